package api

import (
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"

	"digistore-bot/internal/models"
	"digistore-bot/internal/payment"
	"digistore-bot/internal/service"
	"digistore-bot/internal/utils"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "digistore-bot",
	})
}

func (s *Server) handleCryptomusWebhook(w http.ResponseWriter, r *http.Request) {
	if len(s.Config.CryptomusAllowedIPs) > 0 {
		if !utils.IsAllowedIP(remoteIP(r), s.Config.CryptomusAllowedIPs) {
			log.Printf("Cryptomus webhook from disallowed IP: %s", remoteIP(r))
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
	}
	s.dispatchCallback(w, r, models.GatewayCryptomus)
}

func (s *Server) handleStarsWebhook(w http.ResponseWriter, r *http.Request) {
	s.dispatchCallback(w, r, models.GatewayTelegramStars)
}

func (s *Server) dispatchCallback(w http.ResponseWriter, r *http.Request, name models.PaymentGateway) {
	var payload map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		log.Printf("Failed to decode %s webhook: %v", name, err)
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	gateway, err := s.Gateways.Get(name)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "gateway disabled")
		return
	}

	if err := gateway.HandleCallback(r.Context(), payload); err != nil {
		log.Printf("Failed to process %s webhook: %v", name, err)
		switch {
		case errors.Is(err, payment.ErrBadSignature):
			writeError(w, http.StatusBadRequest, "invalid signature")
		case errors.Is(err, service.ErrNotFound):
			writeError(w, http.StatusNotFound, "order not found")
		default:
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// remoteIP prefers proxy headers since the service normally sits behind one.
func remoteIP(r *http.Request) string {
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
