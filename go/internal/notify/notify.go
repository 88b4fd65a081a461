package notify

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Category classifies a notification for rendering purposes.
type Category string

const (
	CategoryRanking Category = "ranking"
	CategoryInfo    Category = "info"
	CategoryWarning Category = "warning"
	CategoryEvent   Category = "event"
	CategoryTime    Category = "time"
	CategoryError   Category = "error"
)

// Intent is a user-facing notification the core wants rendered.
// How it is rendered (toast, banner, sound) is the gateway's business.
type Intent struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	Category Category `json:"category"`
	AutoHide bool     `json:"auto_hide"`
}

// NewIntent builds an intent with a fresh id.
func NewIntent(text string, category Category) Intent {
	return Intent{
		ID:       uuid.New().String(),
		Text:     text,
		Category: category,
		AutoHide: true,
	}
}

// Gateway renders notification intents. Implementations must not block;
// the engine calls it from its event loop.
type Gateway interface {
	Notify(intent Intent)
}

// GatewayFunc adapts a function to the Gateway interface.
type GatewayFunc func(Intent)

// Notify implements Gateway.
func (f GatewayFunc) Notify(intent Intent) { f(intent) }

// NopGateway discards every intent. Useful in tests.
type NopGateway struct{}

// Notify implements Gateway as a no-op.
func (NopGateway) Notify(Intent) {}

// LimiterConfig bounds how fast intents may reach the UI gateway.
type LimiterConfig struct {
	// PerMinute is the sustained notification budget.
	PerMinute int
	// Burst is how many intents may arrive back to back.
	Burst int
}

// DefaultLimiterConfig returns the default notification budget.
func DefaultLimiterConfig() LimiterConfig {
	return LimiterConfig{
		PerMinute: 20,
		Burst:     5,
	}
}

// Limited wraps a Gateway with a token-bucket rate limit so bursty room
// events cannot flood the UI. Over-budget intents are dropped, not queued:
// a stale notification is worse than a missing one.
type Limited struct {
	gateway Gateway
	limiter *rate.Limiter
}

// NewLimited wraps gateway with the given budget.
func NewLimited(gateway Gateway, cfg LimiterConfig) *Limited {
	if cfg.PerMinute <= 0 {
		cfg = DefaultLimiterConfig()
	}
	return &Limited{
		gateway: gateway,
		limiter: rate.NewLimiter(rate.Limit(float64(cfg.PerMinute)/60), cfg.Burst),
	}
}

// Notify implements Gateway.
func (l *Limited) Notify(intent Intent) {
	if !l.limiter.Allow() {
		log.Warn().
			Str("intent_id", intent.ID).
			Str("category", string(intent.Category)).
			Msg("notification budget exceeded, dropping intent")
		return
	}
	l.gateway.Notify(intent)
}
