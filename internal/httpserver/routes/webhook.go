package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/claudel/offrebot/internal/httpserver/deps"
	"github.com/claudel/offrebot/internal/httpserver/handlers"
)

func init() { Register(registerWebhook) }

func registerWebhook(r chi.Router, d deps.Deps) {
	r.Get("/webhook", handlers.Verify(d))
	r.Post("/webhook", handlers.Webhook(d))
}
