package api

import (
	"crypto/subtle"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"digistore-bot/internal/models"
	"digistore-bot/internal/service"

	"github.com/go-chi/chi/v5"
)

// adminAuth gates the admin surface behind a static bearer token. The
// comparison is constant time; an unset token disables the surface entirely.
func (s *Server) adminAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := s.Config.AdminAPIToken
		if token == "" {
			writeError(w, http.StatusServiceUnavailable, "admin API disabled")
			return
		}

		header := r.Header.Get("Authorization")
		supplied, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(supplied), []byte(token)) != 1 {
			writeError(w, http.StatusUnauthorized, "invalid authentication token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleUserStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.Users.Stats()
	if err != nil {
		log.Printf("Error getting user stats: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to get user statistics")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleProductStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.Products.Stats()
	if err != nil {
		log.Printf("Error getting product stats: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to get product statistics")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleOrderStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.Orders.Stats()
	if err != nil {
		log.Printf("Error getting order stats: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to get order statistics")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, ok := s.userFromPath(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleBanUser(w http.ResponseWriter, r *http.Request) {
	s.setBan(w, r, true)
}

func (s *Server) handleUnbanUser(w http.ResponseWriter, r *http.Request) {
	s.setBan(w, r, false)
}

func (s *Server) setBan(w http.ResponseWriter, r *http.Request, banned bool) {
	user, ok := s.userFromPath(w, r)
	if !ok {
		return
	}
	if err := s.Users.SetBanned(user.ID, banned); err != nil {
		log.Printf("Error updating ban for user %d: %v", user.ID, err)
		writeError(w, http.StatusInternalServerError, "failed to update user")
		return
	}
	action := "unbanned"
	if banned {
		action = "banned"
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "User " + strconv.FormatInt(user.TelegramID, 10) + " " + action,
	})
}

func (s *Server) handlePromoteUser(w http.ResponseWriter, r *http.Request) {
	s.setAdmin(w, r, true)
}

func (s *Server) handleDemoteUser(w http.ResponseWriter, r *http.Request) {
	s.setAdmin(w, r, false)
}

func (s *Server) setAdmin(w http.ResponseWriter, r *http.Request, admin bool) {
	user, ok := s.userFromPath(w, r)
	if !ok {
		return
	}
	if err := s.Users.SetAdmin(user.ID, admin); err != nil {
		log.Printf("Error updating admin flag for user %d: %v", user.ID, err)
		writeError(w, http.StatusInternalServerError, "failed to update user")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func (s *Server) userFromPath(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	telegramID, err := strconv.ParseInt(chi.URLParam(r, "telegramID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid telegram id")
		return nil, false
	}
	user, err := s.Users.ByTelegramID(telegramID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
		} else {
			log.Printf("Error getting user %d: %v", telegramID, err)
			writeError(w, http.StatusInternalServerError, "failed to get user")
		}
		return nil, false
	}
	return user, true
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	filter := service.ProductFilter{
		Category: models.ProductCategory(r.URL.Query().Get("category")),
		Limit:    queryInt(r, "limit", 50),
		Offset:   queryInt(r, "offset", 0),
	}
	if raw := r.URL.Query().Get("is_active"); raw != "" {
		active := raw == "true"
		filter.IsActive = &active
	}

	products, err := s.Products.List(filter)
	if err != nil {
		log.Printf("Error getting products: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to get products")
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	status := models.OrderStatus(r.URL.Query().Get("status"))
	orders, err := s.Orders.ListAll(status, queryInt(r, "limit", 50), queryInt(r, "offset", 0))
	if err != nil {
		log.Printf("Error getting orders: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to get orders")
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (s *Server) handleCleanupOrders(w http.ResponseWriter, r *http.Request) {
	expired, err := s.Orders.ExpirePending(time.Now())
	if err != nil {
		log.Printf("Error cleaning up orders: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to cleanup orders")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "success",
		"expired_orders": expired,
	})
}

func (s *Server) handleLoadProducts(w http.ResponseWriter, r *http.Request) {
	loaded, err := s.Products.ImportJSON(s.Config.ProductsFile)
	if err != nil {
		log.Printf("Error loading products: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load products")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":          "success",
		"loaded_products": loaded,
	})
}

func (s *Server) handleExportProducts(w http.ResponseWriter, r *http.Request) {
	if err := s.Products.ExportJSON(s.Config.ProductsFile); err != nil {
		log.Printf("Error exporting products: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to export products")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func queryInt(r *http.Request, key string, fallback int) int {
	if raw := r.URL.Query().Get(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	return fallback
}
