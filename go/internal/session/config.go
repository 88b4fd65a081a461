package session

import (
	"time"

	"github.com/escapekit/escapekit/go/internal/reconcile"
	"github.com/escapekit/escapekit/go/internal/state"
)

// AuthState is the authentication state machine's current phase.
type AuthState string

const (
	AuthUnauthenticated AuthState = "unauthenticated"
	AuthAuthenticating  AuthState = "authenticating"
	AuthValidating      AuthState = "validating"
	AuthReady           AuthState = "ready"
)

// Config enumerates every recognized session option with its default.
// Each field replaces one entry of the loosely-typed option bag the legacy
// client merged at runtime.
type Config struct {
	// Endpoint is the room's API base URL on the platform.
	Endpoint string
	// PushURL is the websocket endpoint for live room events.
	PushURL string
	// EscapeRoomID identifies the room on the push channel.
	EscapeRoomID string

	// Namespace keys the persisted local replica.
	Namespace string
	// Locale selects the message catalog and the Accept-Language header.
	Locale string

	// RestoreMode governs adoption of newer remote snapshots.
	RestoreMode reconcile.RestoreMode
	// AppPuzzleIDs restricts the newest-state comparison to the puzzles this
	// app covers. Empty means all puzzles count.
	AppPuzzleIDs []int
	// RequiredPuzzleIDs must all be solved before this app accepts a
	// submission. Empty means no prerequisite.
	RequiredPuzzleIDs []int

	// TeamName names the local team in notifications.
	TeamName string

	// StrictValidation keeps re-prompting for credentials until
	// authentication succeeds. When false, a dismissed prompt ends the flow
	// with ErrCancelled.
	StrictValidation bool
	// MaxAuthAttempts caps authentication retries. Zero means unbounded.
	MaxAuthAttempts int

	// CountdownEnabled arms the countdown clock when a remaining time is known.
	CountdownEnabled bool
	// SecondaryCooldown is the suppression window for low-priority ranking
	// messages.
	SecondaryCooldown time.Duration
	// ReconnectionWindow debounces roster leave/join flicker.
	ReconnectionWindow time.Duration

	// OnStateChange, when set, is invoked with the canonical snapshot after
	// every reconciliation that changed the solved-puzzle set.
	OnStateChange func(*state.Snapshot)
}

// DefaultConfig returns the session defaults.
func DefaultConfig() Config {
	return Config{
		Namespace:          "ESCAPP",
		Locale:             "en",
		RestoreMode:        reconcile.RestoreRequestUser,
		CountdownEnabled:   true,
		SecondaryCooldown:  4 * time.Minute,
		ReconnectionWindow: 3 * time.Second,
	}
}
