package deps

import (
	"context"
	"time"

	"github.com/claudel/offrebot/internal/logger"
	"github.com/claudel/offrebot/internal/signature"
	"github.com/claudel/offrebot/internal/wa"
)

// Conversation is the engine surface the webhook handler drives.
type Conversation interface {
	Handle(ctx context.Context, user string, intent wa.Intent) error
}

// Pinger answers the document-store liveness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Logger    logger.Logger
	StartTime time.Time
	Version   string
	Commit    string
	BuildDate string
	GoVersion string
	TimeNow   func() time.Time // for testing, defaults to time.Now

	VerifyToken string              // expected hub.verify_token on GET /webhook
	Verifier    *signature.Verifier // gate for POST /webhook bodies
	Engine      Conversation        // per-message dispatch
	DB          Pinger              // health probe target
}
