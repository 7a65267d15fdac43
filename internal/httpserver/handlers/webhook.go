package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/claudel/offrebot/internal/httpserver/deps"
	"github.com/claudel/offrebot/internal/logger"
	"github.com/claudel/offrebot/internal/phone"
	"github.com/claudel/offrebot/internal/wa"
)

// Provider payloads are small; anything past this is hostile.
const maxWebhookBody = 1 << 20

type webhookResponse struct {
	Status string `json:"status"`
}

type webhookError struct {
	Error string `json:"error"`
}

// Webhook ingests inbound message batches on POST /webhook.
//
// The signature gate runs before anything else; an unauthenticated body
// is never parsed. Once authenticated the endpoint always acknowledges
// with 200 so the provider does not redeliver: malformed envelopes and
// per-message failures are logged and dropped, not surfaced.
func Webhook(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBody)
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}

		header := r.Header.Get("X-Hub-Signature-256")
		if header == "" {
			header = r.Header.Get("X-Hub-Signature")
		}
		if !d.Verifier.Verify(body, header) {
			d.Logger.Warn("webhook signature rejected",
				logger.String("remote_ip", r.RemoteAddr),
			)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			_ = json.NewEncoder(w).Encode(webhookError{Error: "invalid signature"})
			return
		}

		messages, err := wa.ParseEnvelope(body)
		if err != nil {
			// Authenticated but unreadable; ack so it is not redelivered.
			d.Logger.Warn("webhook envelope unparseable", logger.Error(err))
			ack(w)
			return
		}

		for _, m := range messages {
			user, err := phone.Normalize(m.From)
			if err != nil {
				d.Logger.Warn("inbound sender rejected",
					logger.String("from", m.From),
					logger.Error(err),
				)
				continue
			}

			intent := wa.ExtractIntent(m)
			if err := d.Engine.Handle(r.Context(), user, intent); err != nil {
				d.Logger.Error("conversation handling failed",
					logger.String("user", user),
					logger.Error(err),
				)
			}
		}

		ack(w)
	}
}

func ack(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(webhookResponse{Status: "received"})
}
