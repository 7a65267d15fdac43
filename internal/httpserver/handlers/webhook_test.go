package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/claudel/offrebot/internal/httpserver/deps"
	"github.com/claudel/offrebot/internal/logger"
	"github.com/claudel/offrebot/internal/signature"
	"github.com/claudel/offrebot/internal/wa"
)

type fakeConversation struct {
	calls []struct {
		user   string
		intent wa.Intent
	}
	err error
}

func (f *fakeConversation) Handle(_ context.Context, user string, intent wa.Intent) error {
	f.calls = append(f.calls, struct {
		user   string
		intent wa.Intent
	}{user, intent})
	return f.err
}

const appSecret = "test-app-secret"

const textEnvelope = `{
  "object": "whatsapp_business_account",
  "entry": [{
    "changes": [{
      "value": {
        "messages": [{
          "from": "33612345678",
          "id": "wamid.1",
          "type": "text",
          "text": {"body": "start"}
        }]
      }
    }]
  }]
}`

func testDeps(engine *fakeConversation) deps.Deps {
	return deps.Deps{
		Logger:      logger.NewNop(),
		StartTime:   time.Now(),
		VerifyToken: "expected-token",
		Verifier:    signature.NewVerifier(appSecret),
		Engine:      engine,
	}
}

func postWebhook(t *testing.T, d deps.Deps, body, header string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader([]byte(body)))
	if header != "" {
		req.Header.Set("X-Hub-Signature-256", header)
	}
	rec := httptest.NewRecorder()
	Webhook(d)(rec, req)
	return rec
}

func TestVerifyEchoesChallenge(t *testing.T) {
	d := testDeps(&fakeConversation{})
	req := httptest.NewRequest(http.MethodGet,
		"/webhook?hub.mode=subscribe&hub.verify_token=expected-token&hub.challenge=1158201444", nil)
	rec := httptest.NewRecorder()

	Verify(d)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Body.String(); got != "1158201444" {
		t.Fatalf("challenge = %q", got)
	}
}

func TestVerifyRefusals(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"wrong token", "hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=42"},
		{"wrong mode", "hub.mode=unsubscribe&hub.verify_token=expected-token&hub.challenge=42"},
		{"no params", ""},
	}
	d := testDeps(&fakeConversation{})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/webhook?"+tt.query, nil)
			rec := httptest.NewRecorder()

			Verify(d)(rec, req)

			if rec.Code != http.StatusForbidden {
				t.Fatalf("status = %d, want 403", rec.Code)
			}
			if strings.Contains(rec.Body.String(), "42") {
				t.Fatal("challenge leaked on refusal")
			}
		})
	}
}

func TestWebhookDispatchesMessage(t *testing.T) {
	engine := &fakeConversation{}
	d := testDeps(engine)

	rec := postWebhook(t, d, textEnvelope, d.Verifier.Sign([]byte(textEnvelope)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"received"`) {
		t.Fatalf("body = %q", rec.Body.String())
	}
	if len(engine.calls) != 1 {
		t.Fatalf("engine calls = %d, want 1", len(engine.calls))
	}
	if engine.calls[0].user != "+33612345678" {
		t.Fatalf("user = %q", engine.calls[0].user)
	}
	if engine.calls[0].intent.Kind != wa.IntentFreeText || engine.calls[0].intent.Text != "START" {
		t.Fatalf("intent = %+v", engine.calls[0].intent)
	}
}

// A tampered body must be refused before any parsing or dispatch.
func TestWebhookRejectsTamperedSignature(t *testing.T) {
	engine := &fakeConversation{}
	d := testDeps(engine)

	sig := d.Verifier.Sign([]byte(textEnvelope))
	tampered := strings.Replace(textEnvelope, "start", "stop!", 1)

	rec := postWebhook(t, d, tampered, sig)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "invalid signature") {
		t.Fatalf("body = %q", rec.Body.String())
	}
	if len(engine.calls) != 0 {
		t.Fatalf("engine reached with bad signature: %d calls", len(engine.calls))
	}
}

func TestWebhookRejectsMissingSignature(t *testing.T) {
	engine := &fakeConversation{}
	d := testDeps(engine)

	rec := postWebhook(t, d, textEnvelope, "")

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if len(engine.calls) != 0 {
		t.Fatal("engine reached without signature")
	}
}

// Authenticated garbage is acknowledged so the provider stops
// redelivering it.
func TestWebhookAcksUnparseableEnvelope(t *testing.T) {
	engine := &fakeConversation{}
	d := testDeps(engine)
	body := `{"object": "whatsapp_business_account", "entry": "oops"}`

	rec := postWebhook(t, d, body, d.Verifier.Sign([]byte(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if len(engine.calls) != 0 {
		t.Fatal("engine reached with unparseable envelope")
	}
}

func TestWebhookSkipsInvalidSender(t *testing.T) {
	engine := &fakeConversation{}
	d := testDeps(engine)
	body := strings.Replace(textEnvelope, "33612345678", "bad-sender", 1)

	rec := postWebhook(t, d, body, d.Verifier.Sign([]byte(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if len(engine.calls) != 0 {
		t.Fatal("engine reached with invalid sender")
	}
}

// Engine errors never leak into the HTTP status: the batch is acked.
func TestWebhookAcksDespiteEngineError(t *testing.T) {
	engine := &fakeConversation{err: context.DeadlineExceeded}
	d := testDeps(engine)

	rec := postWebhook(t, d, textEnvelope, d.Verifier.Sign([]byte(textEnvelope)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if len(engine.calls) != 1 {
		t.Fatalf("engine calls = %d, want 1", len(engine.calls))
	}
}

func TestWebhookLegacySignatureHeader(t *testing.T) {
	engine := &fakeConversation{}
	d := testDeps(engine)

	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader([]byte(textEnvelope)))
	req.Header.Set("X-Hub-Signature", d.Verifier.SignLegacy([]byte(textEnvelope)))
	rec := httptest.NewRecorder()

	Webhook(d)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if len(engine.calls) != 1 {
		t.Fatalf("engine calls = %d, want 1", len(engine.calls))
	}
}
