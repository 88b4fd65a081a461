package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/escapekit/escapekit/go/clients/escapp"
	"github.com/escapekit/escapekit/go/internal/dialogs"
	"github.com/escapekit/escapekit/go/internal/notify"
	"github.com/escapekit/escapekit/go/internal/state"
)

// fakeStorage keeps the replica in memory.
type fakeStorage struct {
	mu    sync.Mutex
	creds *state.Credentials
	snap  *state.Snapshot
}

func (f *fakeStorage) SaveCredentials(c *state.Credentials) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *c
	f.creds = &cp
	return nil
}

func (f *fakeStorage) Credentials() (*state.Credentials, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.creds == nil {
		return nil, errNotFound
	}
	cp := *f.creds
	return &cp, nil
}

func (f *fakeStorage) DeleteCredentials() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creds = nil
	return nil
}

func (f *fakeStorage) SaveSnapshot(s *state.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !s.Valid() {
		s = state.Default()
	}
	f.snap = s.Clone()
	return nil
}

func (f *fakeStorage) Snapshot() (*state.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.snap == nil {
		return state.Default(), nil
	}
	return f.snap.Clone(), nil
}

func (f *fakeStorage) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creds = nil
	f.snap = nil
	return nil
}

var errNotFound = errors.New("not found")

// fakeAPI serves scripted envelopes and records every call.
type fakeAPI struct {
	mu          sync.Mutex
	authQueue   []*escapp.Envelope
	authErrs    []error
	submitEnv   *escapp.Envelope
	checkEnv    *escapp.Envelope
	startEnv    *escapp.Envelope
	authCalls   []state.AuthPayload
	submitCalls int
	startCalls  int
}

func (f *fakeAPI) Auth(_ context.Context, creds state.AuthPayload) (*escapp.Envelope, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.authCalls = append(f.authCalls, creds)
	if len(f.authErrs) > 0 {
		err := f.authErrs[0]
		f.authErrs = f.authErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	if len(f.authQueue) == 0 {
		return &escapp.Envelope{}, nil
	}
	env := f.authQueue[0]
	if len(f.authQueue) > 1 {
		f.authQueue = f.authQueue[1:]
	}
	return env, nil
}

func (f *fakeAPI) SubmitPuzzle(_ context.Context, _ state.AuthPayload, _ int, _ string) (*escapp.Envelope, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitCalls++
	return f.submitEnv, nil
}

func (f *fakeAPI) CheckSolution(context.Context, state.AuthPayload, int, string) (*escapp.Envelope, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.checkEnv, nil
}

func (f *fakeAPI) Start(context.Context, state.AuthPayload) (*escapp.Envelope, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.startCalls++
	return f.startEnv, nil
}

// scriptedDialogs answers credential prompts from a queue and counts prompts.
type scriptedDialogs struct {
	mu         sync.Mutex
	inputs     []dialogs.CredentialInput
	confirm    bool
	prompts    int
	lastTitle  string
	informLog  []string
	confirmLog []string
}

func (d *scriptedDialogs) Inform(_ context.Context, title, _ string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.informLog = append(d.informLog, title)
	return nil
}

func (d *scriptedDialogs) Confirm(_ context.Context, title, _ string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.confirmLog = append(d.confirmLog, title)
	return d.confirm, nil
}

func (d *scriptedDialogs) RequestCredentials(_ context.Context, title, _ string) (dialogs.CredentialInput, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.prompts++
	d.lastTitle = title
	if len(d.inputs) == 0 {
		return dialogs.CredentialInput{}, false, nil
	}
	in := d.inputs[0]
	d.inputs = d.inputs[1:]
	return in, true, nil
}

type recorder struct {
	mu      sync.Mutex
	intents []notify.Intent
}

func (r *recorder) Notify(in notify.Intent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.intents = append(r.intents, in)
}

func participantEnv(token string, snap *state.Snapshot) *escapp.Envelope {
	return &escapp.Envelope{
		Code:           escapp.CodeOK,
		Authentication: true,
		Participation:  state.ParticipationParticipant,
		Token:          token,
		ErState:        snap,
	}
}

type fixture struct {
	session *Session
	store   *fakeStorage
	api     *fakeAPI
	dialogs *scriptedDialogs
	gateway *recorder
	clock   *clockwork.FakeClock
}

func newFixture(t *testing.T, cfg Config, store *fakeStorage, api *fakeAPI, dg *scriptedDialogs) *fixture {
	t.Helper()
	if store == nil {
		store = &fakeStorage{}
	}
	if dg == nil {
		dg = &scriptedDialogs{confirm: true}
	}
	gw := &recorder{}
	clock := clockwork.NewFakeClock()
	s, err := New(cfg, store, api, dg, gw, clock)
	require.NoError(t, err)
	return &fixture{session: s, store: store, api: api, dialogs: dg, gateway: gw, clock: clock}
}

func TestValidate_PromptsAndAuthenticates(t *testing.T) {
	api := &fakeAPI{authQueue: []*escapp.Envelope{
		participantEnv("tok-1", &state.Snapshot{SolvedPuzzles: []int{1, 2}}),
	}}
	dg := &scriptedDialogs{
		inputs:  []dialogs.CredentialInput{{Email: "a@b.c", Password: "pw"}},
		confirm: true, // accept adopting the newer remote state
	}
	f := newFixture(t, Config{}, nil, api, dg)

	snap, err := f.session.Validate(context.Background())
	require.NoError(t, err)

	assert.Equal(t, AuthReady, f.session.AuthState())
	assert.Equal(t, []int{1, 2}, snap.SolvedPuzzles)
	assert.Equal(t, 1, dg.prompts)

	// Wire call carried the password; the stored identity got the token and
	// dropped the password for good.
	require.Len(t, api.authCalls, 1)
	assert.Equal(t, "pw", api.authCalls[0].Password)
	require.NotNil(t, f.store.creds)
	assert.Equal(t, "tok-1", f.store.creds.Token)
	assert.Empty(t, f.store.creds.Password)
}

func TestValidate_WrongCredentialsReprompts(t *testing.T) {
	api := &fakeAPI{authQueue: []*escapp.Envelope{
		{Authentication: false},
		participantEnv("tok-2", &state.Snapshot{SolvedPuzzles: []int{}}),
	}}
	dg := &scriptedDialogs{inputs: []dialogs.CredentialInput{
		{Email: "a@b.c", Password: "wrong"},
		{Email: "a@b.c", Password: "right"},
	}}
	f := newFixture(t, Config{}, nil, api, dg)

	_, err := f.session.Validate(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, dg.prompts)
	// The second prompt uses the escalated wording.
	assert.Equal(t, "Authentication error", dg.lastTitle)
	assert.Len(t, api.authCalls, 2)
}

func TestValidate_DismissedPromptCancels(t *testing.T) {
	f := newFixture(t, Config{}, nil, &fakeAPI{}, &scriptedDialogs{})

	_, err := f.session.Validate(context.Background())
	assert.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, AuthUnauthenticated, f.session.AuthState())
}

func TestValidate_MaxAttemptsBoundsTheLoop(t *testing.T) {
	api := &fakeAPI{authQueue: []*escapp.Envelope{{Authentication: false}}}
	dg := &scriptedDialogs{inputs: []dialogs.CredentialInput{
		{Email: "a@b.c", Password: "w1"},
		{Email: "a@b.c", Password: "w2"},
		{Email: "a@b.c", Password: "w3"},
	}}
	f := newFixture(t, Config{MaxAuthAttempts: 2}, nil, api, dg)

	_, err := f.session.Validate(context.Background())
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Len(t, api.authCalls, 2)
}

func TestValidate_ParticipationVerdictBlocks(t *testing.T) {
	api := &fakeAPI{authQueue: []*escapp.Envelope{{
		Authentication: true,
		Participation:  state.ParticipationTooLate,
	}}}
	dg := &scriptedDialogs{inputs: []dialogs.CredentialInput{{Email: "a@b.c", Password: "pw"}}}
	f := newFixture(t, Config{}, nil, api, dg)

	_, err := f.session.Validate(context.Background())
	require.Error(t, err)
	assert.True(t, IsNotParticipant(err))

	var npe *NotParticipantError
	require.ErrorAs(t, err, &npe)
	assert.Equal(t, state.ParticipationTooLate, npe.Status)
	// The verdict was explained to the user.
	assert.Contains(t, dg.informLog, "Error")
}

func TestValidate_StoredCredentialsSkipPrompt(t *testing.T) {
	store := &fakeStorage{creds: &state.Credentials{
		Email:         "a@b.c",
		Token:         "tok-old",
		Authenticated: true,
		Participation: state.ParticipationParticipant,
	}}
	api := &fakeAPI{authQueue: []*escapp.Envelope{
		participantEnv("", &state.Snapshot{SolvedPuzzles: []int{}}),
	}}
	dg := &scriptedDialogs{}
	f := newFixture(t, Config{}, store, api, dg)

	_, err := f.session.Validate(context.Background())
	require.NoError(t, err)

	assert.Zero(t, dg.prompts)
	require.Len(t, api.authCalls, 1)
	assert.Equal(t, "tok-old", api.authCalls[0].Token)
}

func TestValidate_NetworkFailureRetriedOnUserRequest(t *testing.T) {
	netErr := &escapp.NetworkError{Err: assert.AnError}
	api := &fakeAPI{
		authErrs:  []error{netErr, nil},
		authQueue: []*escapp.Envelope{participantEnv("tok", &state.Snapshot{SolvedPuzzles: []int{}})},
	}
	dg := &scriptedDialogs{
		inputs:  []dialogs.CredentialInput{{Email: "a@b.c", Password: "pw"}},
		confirm: true,
	}
	f := newFixture(t, Config{}, nil, api, dg)

	_, err := f.session.Validate(context.Background())
	require.NoError(t, err)
	assert.Len(t, api.authCalls, 2)
	assert.Contains(t, dg.confirmLog, "Connection problem")
}

func TestValidate_NetworkFailureDeclinedSurfaces(t *testing.T) {
	api := &fakeAPI{authErrs: []error{&escapp.NetworkError{Err: assert.AnError}}}
	dg := &scriptedDialogs{
		inputs:  []dialogs.CredentialInput{{Email: "a@b.c", Password: "pw"}},
		confirm: false,
	}
	f := newFixture(t, Config{}, nil, api, dg)

	_, err := f.session.Validate(context.Background())
	require.Error(t, err)
	assert.True(t, escapp.IsNetworkError(err))
}

func validatedFixture(t *testing.T, cfg Config, api *fakeAPI) *fixture {
	t.Helper()
	store := &fakeStorage{creds: &state.Credentials{
		Email:         "a@b.c",
		Token:         "tok",
		Authenticated: true,
		Participation: state.ParticipationParticipant,
	}}
	if len(api.authQueue) == 0 {
		api.authQueue = []*escapp.Envelope{participantEnv("", &state.Snapshot{SolvedPuzzles: []int{}})}
	}
	f := newFixture(t, cfg, store, api, nil)
	_, err := f.session.Validate(context.Background())
	require.NoError(t, err)
	return f
}

func TestSubmitPuzzle_RecordsAcceptedSolution(t *testing.T) {
	api := &fakeAPI{submitEnv: &escapp.Envelope{
		Code:    escapp.CodeOK,
		ErState: &state.Snapshot{SolvedPuzzles: []int{3}},
	}}
	f := validatedFixture(t, Config{RestoreMode: "AUTO"}, api)

	ok, err := f.session.SubmitPuzzle(context.Background(), 3, "answer")
	require.NoError(t, err)
	assert.True(t, ok)

	assert.True(t, f.session.LocalSnapshot().Solved(3))
	assert.True(t, f.store.snap.Solved(3))
}

func TestSubmitPuzzle_RejectedSolution(t *testing.T) {
	api := &fakeAPI{submitEnv: &escapp.Envelope{Code: "NOK"}}
	f := validatedFixture(t, Config{}, api)

	ok, err := f.session.SubmitPuzzle(context.Background(), 3, "wrong")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, f.session.LocalSnapshot().Solved(3))
}

func TestSubmitPuzzle_PrerequisiteBlocksLocally(t *testing.T) {
	api := &fakeAPI{}
	f := validatedFixture(t, Config{RequiredPuzzleIDs: []int{1}}, api)

	ok, err := f.session.SubmitPuzzle(context.Background(), 2, "answer")
	assert.ErrorIs(t, err, ErrPuzzleRequirementNotMet)
	assert.False(t, ok)
	assert.Zero(t, api.submitCalls)
	// The user was told why.
	assert.Contains(t, f.dialogs.informLog, "Error")
}

func TestSubmitPuzzle_CompletionShownOnce(t *testing.T) {
	one := 1
	api := &fakeAPI{
		authQueue: []*escapp.Envelope{participantEnv("", &state.Snapshot{
			SolvedPuzzles: []int{},
			TotalPuzzles:  &one,
		})},
		submitEnv: &escapp.Envelope{Code: escapp.CodeOK},
	}
	f := validatedFixture(t, Config{RestoreMode: "AUTO"}, api)

	ok, err := f.session.SubmitPuzzle(context.Background(), 1, "answer")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, f.dialogs.informLog, "Escape Room Completed!")

	// Resubmitting never re-announces completion.
	before := len(f.dialogs.informLog)
	_, err = f.session.SubmitPuzzle(context.Background(), 1, "answer")
	require.NoError(t, err)
	assert.Len(t, f.dialogs.informLog, before)
}

func TestCheckSolution_DoesNotMutateState(t *testing.T) {
	correct := true
	api := &fakeAPI{checkEnv: &escapp.Envelope{Code: escapp.CodeOK, CorrectAnswer: &correct}}
	f := validatedFixture(t, Config{}, api)

	ok, err := f.session.CheckSolution(context.Background(), 5, "guess")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, f.session.LocalSnapshot().Solved(5))
}

func TestStartRoom_DeclinedConfirmation(t *testing.T) {
	api := &fakeAPI{}
	f := validatedFixture(t, Config{}, api)
	f.dialogs.confirm = false

	_, err := f.session.StartRoom(context.Background())
	assert.ErrorIs(t, err, ErrCancelled)
	assert.Zero(t, api.startCalls)
}

func TestStartRoom_StartsClockAndAnnounces(t *testing.T) {
	remaining := 3600.0
	duration := 3600.0
	api := &fakeAPI{startEnv: &escapp.Envelope{
		Code:          escapp.CodeOK,
		Participation: state.ParticipationParticipant,
		ErState: &state.Snapshot{
			SolvedPuzzles: []int{},
			RemainingTime: &remaining,
			Duration:      &duration,
		},
	}}
	f := validatedFixture(t, Config{
		RestoreMode:      "AUTO",
		CountdownEnabled: true,
		TeamName:         "Lockpickers",
	}, api)

	_, err := f.session.StartRoom(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, "stopped", string(f.session.Countdown().State()))
	assert.Equal(t, 3600, f.session.Countdown().Remaining())

	var texts []string
	for _, in := range f.gateway.intents {
		texts = append(texts, in.Text)
	}
	assert.Contains(t, texts, "The Escape Room begins. Good luck Lockpickers!")
}

func TestApplyRemote_RestartInformsAndRestartsClock(t *testing.T) {
	start := 1000.0
	api := &fakeAPI{authQueue: []*escapp.Envelope{participantEnv("", &state.Snapshot{
		SolvedPuzzles: []int{1, 2},
		StartTime:     &start,
	})}}
	f := validatedFixture(t, Config{RestoreMode: "AUTO", CountdownEnabled: true}, api)

	newStart := 2000.0
	remaining := 500.0
	res, err := f.session.ApplyRemote(context.Background(), &state.Snapshot{
		SolvedPuzzles: []int{},
		StartTime:     &newStart,
		RemainingTime: &remaining,
	})
	require.NoError(t, err)

	assert.True(t, res.Restarted)
	assert.Empty(t, f.session.LocalSnapshot().SolvedPuzzles)
	assert.Contains(t, f.dialogs.informLog, "Status update")
	assert.Equal(t, 500, f.session.Countdown().Remaining())
}

func TestApplyRemote_OnStateChangeFiresWhenProgressGrows(t *testing.T) {
	var changes int
	api := &fakeAPI{}
	f := validatedFixture(t, Config{RestoreMode: "AUTO"}, api)
	f.session.cfg.OnStateChange = func(*state.Snapshot) { changes++ }

	_, err := f.session.ApplyRemote(context.Background(), &state.Snapshot{SolvedPuzzles: []int{1}})
	require.NoError(t, err)
	assert.Equal(t, 1, changes)

	// Same progress again: no callback.
	_, err = f.session.ApplyRemote(context.Background(), &state.Snapshot{SolvedPuzzles: []int{1}})
	require.NoError(t, err)
	assert.Equal(t, 1, changes)
}

func TestAddCredentialsToURL(t *testing.T) {
	api := &fakeAPI{}
	f := validatedFixture(t, Config{}, api)

	got := f.session.AddCredentialsToURL("https://example.com/room?x=1")
	assert.Contains(t, got, "email=a%40b.c")
	assert.Contains(t, got, "token=tok")
	assert.Contains(t, got, "x=1")
}

func TestAddCredentialsToURL_WithoutTokenUnchanged(t *testing.T) {
	f := newFixture(t, Config{}, nil, &fakeAPI{}, nil)

	raw := "https://example.com/room"
	assert.Equal(t, raw, f.session.AddCredentialsToURL(raw))
}

func TestReset_ForgetsEverything(t *testing.T) {
	api := &fakeAPI{}
	f := validatedFixture(t, Config{}, api)

	require.NoError(t, f.session.Reset())

	assert.Equal(t, AuthUnauthenticated, f.session.AuthState())
	assert.Empty(t, f.session.LocalSnapshot().SolvedPuzzles)
	assert.Nil(t, f.store.creds)

	// Countdown stops with the session.
	f.clock.Advance(time.Hour)
	assert.Equal(t, 0, f.session.Countdown().Remaining())
}
