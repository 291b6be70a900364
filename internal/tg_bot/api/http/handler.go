// Package http serves Telegram webhook deliveries.
package http

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"io"
	"net/http"

	"github.com/DenisKhanov/RelayBOT/internal/tg_bot/api/telegram"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// SecretHeader carries the secret token registered together with the webhook.
const SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

const maxUpdateSize = 1 << 20

// Handler decodes webhook updates and hands them to the bot.
type Handler struct {
	updates telegram.UpdateHandler // Receives converted events
	secret  string                 // Expected SecretHeader value, empty to accept any
}

// NewHandler creates a webhook handler.
// Arguments:
//   - updates: consumer of the converted updates.
//   - secret: value Telegram must echo in SecretHeader, empty to disable the check.
func NewHandler(updates telegram.UpdateHandler, secret string) *Handler {
	return &Handler{
		updates: updates,
		secret:  secret,
	}
}

// Router returns the routes of the webhook server.
func (h *Handler) Router(webhookPath string) chi.Router {
	if webhookPath == "" {
		webhookPath = "/webhook"
	}
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(LogrusLog)
	router.Use(middleware.Recoverer)

	router.Get("/healthz", h.Health)
	router.Post(webhookPath, h.Webhook)
	return router
}

// Webhook handles one update. The update is processed before the response is written.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	if h.secret != "" && subtle.ConstantTimeCompare([]byte(r.Header.Get(SecretHeader)), []byte(h.secret)) != 1 {
		logrus.WithField("remoteAddr", r.RemoteAddr).Warn("Webhook request with a wrong secret token")
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var update tgbotapi.Update
	if err := json.NewDecoder(io.LimitReader(r.Body, maxUpdateSize)).Decode(&update); err != nil {
		logrus.WithError(err).Warn("Failed to decode webhook update")
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	// The update is finished even if Telegram drops the connection meanwhile.
	telegram.Dispatch(context.WithoutCancel(r.Context()), h.updates, update)
	w.WriteHeader(http.StatusOK)
}

// Health reports that the server is up.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
