package session

import (
	"errors"
	"fmt"

	"github.com/escapekit/escapekit/go/internal/state"
)

// ErrInvalidCredentials means the platform rejected the email/password pair.
// Recovery is re-entering the authentication flow, not aborting.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrCancelled means the user dismissed a prompt the flow cannot continue
// without.
var ErrCancelled = errors.New("cancelled by user")

// ErrPuzzleRequirementNotMet means prerequisite puzzles are unsolved and the
// submission was blocked locally.
var ErrPuzzleRequirementNotMet = errors.New("puzzle requirements not met")

// NotParticipantError reports that the authenticated user may not play the
// room right now. Terminal for the attempt; the status says why.
type NotParticipantError struct {
	Status state.ParticipationStatus
}

func (e *NotParticipantError) Error() string {
	return fmt.Sprintf("not a participant: %s", e.Status)
}

// IsNotParticipant reports whether err is a participation failure.
func IsNotParticipant(err error) bool {
	var npe *NotParticipantError
	return errors.As(err, &npe)
}
