// Package dialogs defines the modal-prompt contract between the sync engine
// and whatever UI hosts it. The engine never renders anything itself; it asks
// the gateway and suspends until the user answers or the context ends.
package dialogs

import "context"

// CredentialInput is what a credential prompt collects from the user.
type CredentialInput struct {
	Email    string
	Password string
}

// Gateway renders modal prompts and returns the user's choice.
// Implementations are expected to be slow (a human is on the other end);
// every method honors context cancellation.
type Gateway interface {
	// Inform shows a message with a single acknowledge button.
	Inform(ctx context.Context, title, text string) error

	// Confirm shows an ok/cancel prompt and reports the choice.
	Confirm(ctx context.Context, title, text string) (bool, error)

	// RequestCredentials prompts for email and password.
	// ok is false when the user dismissed the prompt.
	RequestCredentials(ctx context.Context, title, text string) (input CredentialInput, ok bool, err error)
}

// AutoGateway answers every prompt without user interaction. Confirm always
// returns Accept; RequestCredentials always dismisses. Useful for headless
// runs and tests.
type AutoGateway struct {
	Accept bool
}

// Inform implements Gateway.
func (AutoGateway) Inform(context.Context, string, string) error { return nil }

// Confirm implements Gateway.
func (g AutoGateway) Confirm(context.Context, string, string) (bool, error) {
	return g.Accept, nil
}

// RequestCredentials implements Gateway.
func (AutoGateway) RequestCredentials(context.Context, string, string) (CredentialInput, bool, error) {
	return CredentialInput{}, false, nil
}
