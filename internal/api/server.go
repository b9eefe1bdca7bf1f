package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"digistore-bot/internal/config"
	"digistore-bot/internal/payment"
	"digistore-bot/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server exposes the payment webhooks and the admin REST surface.
type Server struct {
	Config   *config.Config
	Users    *service.UserService
	Products *service.ProductService
	Orders   *service.OrderService
	Gateways payment.Registry

	httpServer *http.Server
}

func NewServer(cfg *config.Config, users *service.UserService, products *service.ProductService, orders *service.OrderService, gateways payment.Registry) *Server {
	return &Server{
		Config:   cfg,
		Users:    users,
		Products: products,
		Orders:   orders,
		Gateways: gateways,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Route("/webhooks", func(r chi.Router) {
			r.Get("/health", s.handleHealth)
			r.Post("/cryptomus", s.handleCryptomusWebhook)
			r.Post("/telegram-stars", s.handleStarsWebhook)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(s.adminAuth)
			r.Get("/stats/users", s.handleUserStats)
			r.Get("/stats/products", s.handleProductStats)
			r.Get("/stats/orders", s.handleOrderStats)
			r.Get("/users/{telegramID}", s.handleGetUser)
			r.Post("/users/{telegramID}/ban", s.handleBanUser)
			r.Delete("/users/{telegramID}/ban", s.handleUnbanUser)
			r.Post("/users/{telegramID}/admin", s.handlePromoteUser)
			r.Delete("/users/{telegramID}/admin", s.handleDemoteUser)
			r.Get("/products", s.handleListProducts)
			r.Get("/orders", s.handleListOrders)
			r.Post("/orders/cleanup", s.handleCleanupOrders)
			r.Post("/products/load", s.handleLoadProducts)
			r.Post("/products/export", s.handleExportProducts)
		})
	})

	return r
}

func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         ":" + s.Config.HTTPPort,
		Handler:      s.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	log.Printf("HTTP server listening on :%s", s.Config.HTTPPort)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]string{"error": message})
}
