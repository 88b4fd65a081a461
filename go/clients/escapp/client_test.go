package escapp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/escapekit/escapekit/go/internal/state"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{Endpoint: srv.URL, Locale: "es", RetryMax: 1})
}

func TestClient_Auth(t *testing.T) {
	var gotPath, gotLang string
	var gotBody state.AuthPayload

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotLang = r.Header.Get("Accept-Language")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		json.NewEncoder(w).Encode(Envelope{
			Code:           CodeOK,
			Authentication: true,
			Participation:  state.ParticipationParticipant,
			Token:          "tok-1",
			ErState:        &state.Snapshot{SolvedPuzzles: []int{1}},
		})
	})

	env, err := c.Auth(context.Background(), state.AuthPayload{Email: "a@b.c", Password: "pw"})
	require.NoError(t, err)

	assert.Equal(t, "/auth", gotPath)
	assert.Equal(t, "es", gotLang)
	assert.Equal(t, "a@b.c", gotBody.Email)
	assert.Equal(t, "pw", gotBody.Password)

	assert.True(t, env.Authentication)
	assert.Equal(t, "tok-1", env.Token)
	assert.Equal(t, state.ParticipationParticipant, env.Participation)
	require.NotNil(t, env.ErState)
	assert.Equal(t, []int{1}, env.ErState.SolvedPuzzles)
}

func TestClient_SubmitPuzzle(t *testing.T) {
	var gotPath string
	var gotBody map[string]any

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(Envelope{Code: CodeOK})
	})

	creds := state.AuthPayload{Email: "a@b.c", Token: "tok"}
	env, err := c.SubmitPuzzle(context.Background(), creds, 3, "42")
	require.NoError(t, err)

	assert.Equal(t, "/puzzles/3/submit", gotPath)
	assert.Equal(t, "42", gotBody["solution"])
	assert.Equal(t, "tok", gotBody["token"])
	// Token-bearing credentials never carry a password on the wire.
	_, hasPassword := gotBody["password"]
	assert.False(t, hasPassword)
	assert.Equal(t, CodeOK, env.Code)
}

func TestClient_CheckSolution(t *testing.T) {
	var gotPath string

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		correct := true
		json.NewEncoder(w).Encode(Envelope{Code: CodeOK, CorrectAnswer: &correct})
	})

	env, err := c.CheckSolution(context.Background(), state.AuthPayload{Email: "a@b.c", Token: "t"}, 5, "guess")
	require.NoError(t, err)

	assert.Equal(t, "/puzzles/5/check_solution", gotPath)
	require.NotNil(t, env.CorrectAnswer)
	assert.True(t, *env.CorrectAnswer)
}

func TestClient_ServerErrorIsNetworkError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := c.Start(context.Background(), state.AuthPayload{Email: "a@b.c", Token: "t"})
	require.Error(t, err)
	assert.True(t, IsNetworkError(err))
}

func TestClient_ApplicationErrorIsNotNetworkError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Envelope{Code: "NOK", Msg: "wrong credentials"})
	})

	env, err := c.Auth(context.Background(), state.AuthPayload{Email: "a@b.c", Password: "nope"})
	require.NoError(t, err)
	assert.False(t, env.Authentication)
	assert.Equal(t, "NOK", env.Code)
}

func TestClient_UnreachableHostIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(Config{Endpoint: url, RetryMax: 1})
	_, err := c.Auth(context.Background(), state.AuthPayload{Email: "a@b.c", Token: "t"})
	require.Error(t, err)
	assert.True(t, IsNetworkError(err))
}

func TestClient_MalformedResponseIsNetworkError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	})

	_, err := c.Auth(context.Background(), state.AuthPayload{Email: "a@b.c", Token: "t"})
	require.Error(t, err)
	assert.True(t, IsNetworkError(err))
}
