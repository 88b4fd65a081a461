package escapp

import (
	"context"
	"fmt"

	"github.com/escapekit/escapekit/go/internal/state"
)

// submitBody extends the credential payload with a puzzle solution.
type submitBody struct {
	state.AuthPayload
	Solution string `json:"solution"`
}

// Auth authenticates the user against the platform. The envelope reports the
// verdict, the user's participation status, a token to replace the password,
// and possibly the team's current ER state.
func (c *Client) Auth(ctx context.Context, creds state.AuthPayload) (*Envelope, error) {
	return c.post(ctx, "/auth", creds)
}

// SubmitPuzzle submits a solution for grading. Code "OK" means solved;
// the envelope then carries the updated remote ER state.
func (c *Client) SubmitPuzzle(ctx context.Context, creds state.AuthPayload, puzzleID int, solution string) (*Envelope, error) {
	return c.post(ctx, fmt.Sprintf("/puzzles/%d/submit", puzzleID), submitBody{AuthPayload: creds, Solution: solution})
}

// CheckSolution grades a solution without recording it. The envelope's
// CorrectAnswer reports the verdict; team progress is unaffected.
func (c *Client) CheckSolution(ctx context.Context, creds state.AuthPayload, puzzleID int, solution string) (*Envelope, error) {
	return c.post(ctx, fmt.Sprintf("/puzzles/%d/check_solution", puzzleID), submitBody{AuthPayload: creds, Solution: solution})
}

// Start starts the escape room for the user's team. Time begins to run on
// the platform and cannot be stopped afterwards.
func (c *Client) Start(ctx context.Context, creds state.AuthPayload) (*Envelope, error) {
	return c.post(ctx, "/start", creds)
}
