package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"digistore-bot/internal/service"

	"github.com/redis/go-redis/v9"
)

const (
	sweepLockKey = "sweeper_lock"
	statsPeriod  = 24 * time.Hour
)

// adminNotifier pushes operational summaries to the admin chats.
type adminNotifier interface {
	NotifyAdmins(ctx context.Context, text string)
}

// Sweeper runs the periodic housekeeping: cancelling stale pending orders,
// granting referral rewards and logging daily store stats. A Redis lock keeps
// concurrent runs out when several instances share the store; with a nil
// Redis client it runs unlocked.
type Sweeper struct {
	Orders   *service.OrderService
	Users    *service.UserService
	Products *service.ProductService
	Redis    *redis.Client
	Admins   adminNotifier
	Interval time.Duration

	stop chan struct{}
	done chan struct{}
}

func NewSweeper(orders *service.OrderService, users *service.UserService, products *service.ProductService, rdb *redis.Client, interval time.Duration) *Sweeper {
	return &Sweeper{
		Orders:   orders,
		Users:    users,
		Products: products,
		Redis:    rdb,
		Interval: interval,
	}
}

func (s *Sweeper) Start() {
	s.stop = make(chan struct{})
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)

		ticker := time.NewTicker(s.Interval)
		defer ticker.Stop()
		statsTicker := time.NewTicker(statsPeriod)
		defer statsTicker.Stop()

		log.Println("Background sweeper started")

		// Run once at start
		s.Sweep(context.Background())

		for {
			select {
			case <-ticker.C:
				s.Sweep(context.Background())
			case <-statsTicker.C:
				s.logStats()
			case <-s.stop:
				return
			}
		}
	}()
}

func (s *Sweeper) Stop() {
	if s.stop == nil {
		return
	}
	close(s.stop)
	<-s.done
	log.Println("Background sweeper stopped")
}

// Sweep performs one housekeeping pass. Re-running it is harmless: expiry is
// a bulk conditional update and rewards flip a guarded flag.
func (s *Sweeper) Sweep(ctx context.Context) {
	if !s.acquireLock(ctx) {
		log.Println("Sweep skipped, another run holds the lock")
		return
	}
	defer s.releaseLock(ctx)

	if _, err := s.Orders.ExpirePending(time.Now()); err != nil {
		log.Printf("Error expiring pending orders: %v", err)
	}

	if rewarded, err := s.Users.ProcessReferralRewards(); err != nil {
		log.Printf("Error processing referral rewards: %v", err)
	} else if rewarded > 0 {
		log.Printf("Processed %d referral rewards", rewarded)
	}
}

func (s *Sweeper) acquireLock(ctx context.Context) bool {
	if s.Redis == nil {
		return true
	}
	set, err := s.Redis.SetNX(ctx, sweepLockKey, "1", s.Interval).Result()
	if err != nil {
		// Redis being down should not stop housekeeping on a single instance.
		log.Printf("Sweeper lock error: %v", err)
		return true
	}
	return set
}

func (s *Sweeper) releaseLock(ctx context.Context) {
	if s.Redis == nil {
		return
	}
	s.Redis.Del(ctx, sweepLockKey)
}

func (s *Sweeper) logStats() {
	userStats, err := s.Users.Stats()
	if err != nil {
		log.Printf("Error collecting user stats: %v", err)
		return
	}
	productStats, err := s.Products.Stats()
	if err != nil {
		log.Printf("Error collecting product stats: %v", err)
		return
	}
	orderStats, err := s.Orders.Stats()
	if err != nil {
		log.Printf("Error collecting order stats: %v", err)
		return
	}

	summary := fmt.Sprintf("Store stats - Users: %d, Products: %d, Orders: %d (pending %d), Revenue today: %s",
		userStats.TotalUsers, productStats.ActiveProducts,
		orderStats.TotalOrders, orderStats.PendingOrders,
		orderStats.RevenueToday.StringFixed(2))
	log.Println(summary)

	if s.Admins != nil {
		s.Admins.NotifyAdmins(context.Background(), "📊 "+summary)
	}
}
