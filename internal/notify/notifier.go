package notify

import (
	"context"
	"fmt"
	"log"
	"time"

	"digistore-bot/internal/models"
	"digistore-bot/internal/service"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	"github.com/redis/go-redis/v9"
)

const deliveryDedupTTL = 48 * time.Hour

// Notifier sends order delivery messages and admin alerts over Telegram.
// Redis keys guard against sending the same delivery twice when gateways
// retry their callbacks.
type Notifier struct {
	Bot      *telego.Bot
	Redis    *redis.Client
	Users    *service.UserService
	AdminIDs []int64
}

func NewNotifier(bot *telego.Bot, rdb *redis.Client, users *service.UserService, adminIDs []int64) *Notifier {
	return &Notifier{
		Bot:      bot,
		Redis:    rdb,
		Users:    users,
		AdminIDs: adminIDs,
	}
}

// DeliverOrder sends the rendered delivery message to the buyer, at most once
// per order. Best effort: failures are logged, never propagated.
func (n *Notifier) DeliverOrder(ctx context.Context, order *models.Order, message string) {
	if n.Bot == nil {
		return
	}

	key := fmt.Sprintf("delivered_%s", order.OrderNumber)
	if n.Redis != nil {
		set, err := n.Redis.SetNX(ctx, key, "true", deliveryDedupTTL).Result()
		if err == nil && !set {
			return // already delivered
		}
	}

	user, err := n.Users.ByID(order.UserID)
	if err != nil {
		log.Printf("Failed to resolve user %d for order %s delivery: %v", order.UserID, order.OrderNumber, err)
		return
	}

	_, err = n.Bot.SendMessage(ctx, tu.Message(tu.ID(user.TelegramID), message))
	if err != nil {
		log.Printf("Failed to send delivery for order %s to %d: %v", order.OrderNumber, user.TelegramID, err)
		if n.Redis != nil {
			// Free the key so a later callback retry can deliver.
			n.Redis.Del(ctx, key)
		}
		return
	}
	log.Printf("Delivered order %s to user %d", order.OrderNumber, user.TelegramID)
}

// NotifyAdmins fans a message out to the configured admin chats, best effort.
func (n *Notifier) NotifyAdmins(ctx context.Context, text string) {
	if n.Bot == nil {
		return
	}
	for _, adminID := range n.AdminIDs {
		if _, err := n.Bot.SendMessage(ctx, tu.Message(tu.ID(adminID), text)); err != nil {
			log.Printf("Failed to notify admin %d: %v", adminID, err)
		}
	}
}
