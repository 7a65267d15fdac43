package handlers

import (
	"net/http"

	"github.com/claudel/offrebot/internal/httpserver/deps"
	"github.com/claudel/offrebot/internal/logger"
)

// Verify answers the provider's subscription handshake on GET /webhook.
// The challenge is echoed back verbatim only when both the mode and the
// pre-shared token match; anything else is refused.
func Verify(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		mode := q.Get("hub.mode")
		token := q.Get("hub.verify_token")
		challenge := q.Get("hub.challenge")

		if mode == "subscribe" && token == d.VerifyToken {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(challenge))
			return
		}

		d.Logger.Warn("webhook verification refused",
			logger.String("mode", mode),
		)
		http.Error(w, "Forbidden", http.StatusForbidden)
	}
}
