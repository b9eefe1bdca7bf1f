package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"digistore-bot/internal/api"
	"digistore-bot/internal/bot"
	"digistore-bot/internal/config"
	"digistore-bot/internal/database"
	"digistore-bot/internal/notify"
	"digistore-bot/internal/payment"
	"digistore-bot/internal/service"
	"digistore-bot/internal/worker"
)

func main() {
	// Load Configuration
	cfg := config.LoadConfig()

	// Connect to Database
	db, err := database.ConnectPostgres(cfg)
	if err != nil {
		log.Fatalf("Could not connect to database: %v", err)
	}

	// Connect to Redis
	rdb, err := database.ConnectRedis(cfg)
	if err != nil {
		log.Fatalf("Could not connect to redis: %v", err)
	}

	// Services
	orders := service.NewOrderService(db, cfg.OrderTTL)
	products := service.NewProductService(db)
	users := service.NewUserService(db, cfg.TrialEnabled, cfg.TrialDurationDays, cfg.ReferralEnabled, cfg.ReferralRewardDays)

	if imported, err := products.ImportJSON(cfg.ProductsFile); err != nil {
		log.Printf("Could not import products from %s: %v", cfg.ProductsFile, err)
	} else if imported > 0 {
		log.Printf("Imported %d products from %s", imported, cfg.ProductsFile)
	}

	// Telegram bot and payment gateways
	storeBot, err := bot.NewBot(cfg.BotToken, users, products, orders, nil, cfg.AdminIDs)
	if err != nil {
		log.Fatalf("Could not create bot: %v", err)
	}

	notifier := notify.NewNotifier(storeBot.Instance, rdb, users, cfg.AdminIDs)

	gateways := payment.Registry{}
	if cfg.StarsEnabled {
		gw := payment.NewStarsGateway(true, orders, notifier)
		gateways[gw.Name()] = gw
	}
	if cfg.CryptomusEnabled {
		client := payment.NewCryptomusClient(cfg.CryptomusMerchantID, cfg.CryptomusAPIKey)
		gw := payment.NewCryptomusGateway(true, client, orders, notifier, cfg.WebhookBase())
		gateways[gw.Name()] = gw
	}
	storeBot.Gateways = gateways

	// Webhook and admin HTTP server
	server := api.NewServer(cfg, users, products, orders, gateways)
	go func() {
		if err := server.Start(); err != nil {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	// Background sweeper
	sweeper := worker.NewSweeper(orders, users, products, rdb, cfg.SweepInterval)
	sweeper.Admins = notifier
	sweeper.Start()

	go storeBot.Start()

	log.Println("Service started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	sweeper.Stop()
	storeBot.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}
}
