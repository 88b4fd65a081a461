// Package session ties the sync engine together: it owns the canonical local
// ER state, drives the authentication state machine, submits solutions, and
// feeds reconciliation results into the countdown clock and the notification
// gateways.
package session

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/escapekit/escapekit/go/clients/escapp"
	"github.com/escapekit/escapekit/go/internal/countdown"
	"github.com/escapekit/escapekit/go/internal/dialogs"
	"github.com/escapekit/escapekit/go/internal/i18n"
	"github.com/escapekit/escapekit/go/internal/notify"
	"github.com/escapekit/escapekit/go/internal/push"
	"github.com/escapekit/escapekit/go/internal/ranking"
	"github.com/escapekit/escapekit/go/internal/reconcile"
	"github.com/escapekit/escapekit/go/internal/state"
)

// RemoteAPI is the platform surface the session depends on.
// *escapp.Client implements it.
type RemoteAPI interface {
	Auth(ctx context.Context, creds state.AuthPayload) (*escapp.Envelope, error)
	SubmitPuzzle(ctx context.Context, creds state.AuthPayload, puzzleID int, solution string) (*escapp.Envelope, error)
	CheckSolution(ctx context.Context, creds state.AuthPayload, puzzleID int, solution string) (*escapp.Envelope, error)
	Start(ctx context.Context, creds state.AuthPayload) (*escapp.Envelope, error)
}

// Storage is the persistence surface the session depends on.
// *store.Store implements it.
type Storage interface {
	SaveCredentials(*state.Credentials) error
	Credentials() (*state.Credentials, error)
	DeleteCredentials() error
	SaveSnapshot(*state.Snapshot) error
	Snapshot() (*state.Snapshot, error)
	Clear() error
}

// Session is one participant's connection to one escape room.
type Session struct {
	cfg        Config
	store      Storage
	api        RemoteAPI
	dialogs    dialogs.Gateway
	gateway    notify.Gateway
	translator *i18n.Translator
	clock      clockwork.Clock
	engine     *reconcile.Engine
	countdown  *countdown.Scheduler

	// mu serializes access to the canonical local state. The engine itself
	// assumes it is never reentered; on a multi-threaded runtime that is the
	// session's job.
	mu              sync.Mutex
	user            *state.Credentials
	local           *state.Snapshot
	authState       AuthState
	completionShown bool
}

// New creates a session, loading any persisted credentials and local state.
// A malformed persisted state degrades to the empty default, never to an
// error.
func New(cfg Config, st Storage, api RemoteAPI, dg dialogs.Gateway, gw notify.Gateway, clock clockwork.Clock) (*Session, error) {
	def := DefaultConfig()
	if cfg.Namespace == "" {
		cfg.Namespace = def.Namespace
	}
	if cfg.Locale == "" {
		cfg.Locale = def.Locale
	}
	if cfg.RestoreMode == "" {
		cfg.RestoreMode = def.RestoreMode
	}
	if cfg.SecondaryCooldown == 0 {
		cfg.SecondaryCooldown = def.SecondaryCooldown
	}
	if cfg.ReconnectionWindow == 0 {
		cfg.ReconnectionWindow = def.ReconnectionWindow
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	translator := i18n.New(cfg.Locale)

	s := &Session{
		cfg:        cfg,
		store:      st,
		api:        api,
		dialogs:    dg,
		gateway:    gw,
		translator: translator,
		clock:      clock,
		authState:  AuthUnauthenticated,
	}
	s.engine = reconcile.NewEngine(reconcile.Config{
		Mode:         cfg.RestoreMode,
		AppPuzzleIDs: cfg.AppPuzzleIDs,
	}, st, dg, translator)
	s.countdown = countdown.NewScheduler(countdown.Config{Enabled: cfg.CountdownEnabled}, clock, gw, translator)

	user, err := st.Credentials()
	if err != nil {
		user = &state.Credentials{}
	}
	s.user = user

	local, err := st.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("load local state: %w", err)
	}
	s.local = local
	if err := st.SaveSnapshot(s.local); err != nil {
		return nil, fmt.Errorf("persist local state: %w", err)
	}

	return s, nil
}

// AuthState returns the authentication machine's current phase.
func (s *Session) AuthState() AuthState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authState
}

// Countdown exposes the countdown scheduler.
func (s *Session) Countdown() *countdown.Scheduler {
	return s.countdown
}

func (s *Session) setAuthState(st AuthState) {
	s.mu.Lock()
	s.authState = st
	s.mu.Unlock()
}

// Validate runs the authentication state machine until the user is ready to
// play, a participation verdict blocks them, or the flow is cancelled.
// Returns the reconciled canonical snapshot on success.
//
// Stored credentials are revalidated against the platform first; otherwise
// the user is prompted. Wrong credentials re-prompt rather than fail; with
// StrictValidation the loop is unbounded, otherwise a dismissed prompt ends
// with ErrCancelled. MaxAuthAttempts, when set, bounds the loop either way.
func (s *Session) Validate(ctx context.Context) (*state.Snapshot, error) {
	attempts := 0
	wrongCredentials := false

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if s.cfg.MaxAuthAttempts > 0 && attempts >= s.cfg.MaxAuthAttempts {
			return nil, ErrInvalidCredentials
		}

		s.mu.Lock()
		haveCreds := s.user.CanParticipate()
		s.mu.Unlock()

		if !haveCreds {
			s.setAuthState(AuthUnauthenticated)
			input, ok, err := s.promptCredentials(ctx, wrongCredentials)
			if err != nil {
				return nil, err
			}
			if !ok {
				if s.cfg.StrictValidation {
					continue
				}
				return nil, ErrCancelled
			}
			s.mu.Lock()
			s.user = &state.Credentials{Email: input.Email, Password: input.Password}
			s.mu.Unlock()
		}

		s.setAuthState(AuthAuthenticating)
		env, err := s.authenticate(ctx)
		if err != nil {
			return nil, err
		}

		s.setAuthState(AuthValidating)
		s.mu.Lock()
		authenticated := s.user.Authenticated
		participation := s.user.Participation
		s.mu.Unlock()

		if !authenticated {
			wrongCredentials = true
			attempts++
			s.resetCredentials()
			continue
		}
		if participation != state.ParticipationParticipant {
			if err := s.explainParticipation(ctx, participation); err != nil {
				return nil, err
			}
			return nil, &NotParticipantError{Status: participation}
		}

		winner, err := s.adoptRemote(ctx, env.ErState)
		if err != nil {
			return nil, err
		}
		s.setAuthState(AuthReady)
		log.Info().Str("email", s.user.Email).Msg("session validated")
		return winner, nil
	}
}

// promptCredentials asks the user for email and password, with the wording
// escalated after a rejected attempt.
func (s *Session) promptCredentials(ctx context.Context, wrong bool) (dialogs.CredentialInput, bool, error) {
	titleKey, textKey := "auth_title", "auth_text"
	if wrong {
		titleKey, textKey = "auth_title_wrong_credentials", "auth_text_wrong_credentials"
	}
	return s.dialogs.RequestCredentials(ctx, s.translator.T(titleKey, nil), s.translator.T(textKey, nil))
}

// authenticate performs the /auth call with the current credentials and
// applies the verdict: the issued token permanently replaces the password.
func (s *Session) authenticate(ctx context.Context) (*escapp.Envelope, error) {
	s.mu.Lock()
	payload, ok := s.user.Payload()
	s.mu.Unlock()
	if !ok {
		return nil, ErrInvalidCredentials
	}

	env, err := s.withRetry(ctx, func() (*escapp.Envelope, error) {
		return s.api.Auth(ctx, payload)
	})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.user.Authenticated = env.Authentication
	s.user.Participation = env.Participation
	if env.Token != "" {
		s.user.Token = env.Token
		s.user.Password = ""
	}
	user := *s.user
	s.mu.Unlock()

	if err := s.store.SaveCredentials(&user); err != nil {
		return nil, fmt.Errorf("persist credentials: %w", err)
	}
	return env, nil
}

func (s *Session) explainParticipation(ctx context.Context, status state.ParticipationStatus) error {
	key := "participation_error_" + string(status)
	switch status {
	case state.ParticipationTooLate, state.ParticipationNotActive, state.ParticipationNotStarted:
	default:
		key = "participation_error_NOT_A_PARTICIPANT"
	}
	return s.dialogs.Inform(ctx,
		s.translator.T("generic_error_title", nil),
		s.translator.T(key, nil))
}

// withRetry wraps a platform call with the user-driven retry prompt for
// transport failures. Validation failures pass through untouched.
func (s *Session) withRetry(ctx context.Context, op func() (*escapp.Envelope, error)) (*escapp.Envelope, error) {
	for {
		env, err := op()
		if err == nil || !escapp.IsNetworkError(err) {
			return env, err
		}
		log.Warn().Err(err).Msg("platform unreachable, asking user")
		retry, derr := s.dialogs.Confirm(ctx,
			s.translator.T("network_error_title", nil),
			s.translator.T("network_error_text", nil))
		if derr != nil {
			return nil, derr
		}
		if !retry {
			return nil, err
		}
	}
}

// LocalSnapshot returns the canonical local state. Implements push.StateSync.
func (s *Session) LocalSnapshot() *state.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.local
}

// ApplyRemote reconciles a transient remote snapshot into the canonical
// state. Implements push.StateSync.
func (s *Session) ApplyRemote(ctx context.Context, remote *state.Snapshot) (reconcile.Result, error) {
	s.mu.Lock()
	prevSolved := len(s.local.SolvedPuzzles)
	res, err := s.engine.Reconcile(ctx, s.local, remote)
	if err != nil {
		s.mu.Unlock()
		return reconcile.Result{}, err
	}
	s.local = res.Winner
	grew := len(s.local.SolvedPuzzles) > prevSolved
	winner := s.local
	s.mu.Unlock()

	if res.Restarted {
		log.Warn().Msg("room restart adopted from remote state")
		if err := s.dialogs.Inform(ctx,
			s.translator.T("restore_title", nil),
			s.translator.T("restart_text", nil)); err != nil {
			return res, err
		}
		s.startCountdownFrom(winner, true)
	} else {
		s.startCountdownFrom(winner, false)
	}

	if grew && s.cfg.OnStateChange != nil {
		s.cfg.OnStateChange(winner)
	}
	s.checkCompletion(ctx, winner)
	return res, nil
}

// adoptRemote is ApplyRemote for request/response flows where the remote
// snapshot came from an envelope rather than the push channel.
func (s *Session) adoptRemote(ctx context.Context, remote *state.Snapshot) (*state.Snapshot, error) {
	res, err := s.ApplyRemote(ctx, remote)
	if err != nil {
		return nil, err
	}
	return res.Winner, nil
}

// startCountdownFrom arms the countdown from a snapshot's remaining time.
// Unless forced, a running clock is left alone so push echoes do not skew
// the phase alignment.
func (s *Session) startCountdownFrom(snap *state.Snapshot, force bool) {
	if snap.RemainingTime == nil {
		return
	}
	if !force {
		switch s.countdown.State() {
		case countdown.StateStopped:
		default:
			return
		}
	}
	duration := 0
	if snap.Duration != nil {
		duration = int(*snap.Duration)
	}
	s.countdown.Start(int(*snap.RemainingTime), duration)
}

func (s *Session) checkCompletion(ctx context.Context, snap *state.Snapshot) {
	s.mu.Lock()
	show := snap.Completed() && !s.completionShown
	if show {
		s.completionShown = true
	}
	s.mu.Unlock()
	if !show {
		return
	}
	if err := s.dialogs.Inform(ctx,
		s.translator.T("completion_title", nil),
		s.translator.T("completion_text", nil)); err != nil {
		log.Error().Err(err).Msg("completion dialog failed")
	}
}

// SubmitPuzzle grades and records a solution. Returns whether the platform
// accepted it. Prerequisite puzzles must be solved first; a rejected
// prerequisite blocks the submission locally with ErrPuzzleRequirementNotMet.
func (s *Session) SubmitPuzzle(ctx context.Context, puzzleID int, solution string) (bool, error) {
	s.mu.Lock()
	unmet := false
	for _, id := range s.cfg.RequiredPuzzleIDs {
		if !s.local.Solved(id) {
			unmet = true
			break
		}
	}
	payload, ok := s.user.Payload()
	s.mu.Unlock()

	if unmet {
		if err := s.dialogs.Inform(ctx,
			s.translator.T("generic_error_title", nil),
			s.translator.T("puzzles_required", nil)); err != nil {
			return false, err
		}
		return false, ErrPuzzleRequirementNotMet
	}
	if !ok {
		return false, ErrInvalidCredentials
	}

	env, err := s.withRetry(ctx, func() (*escapp.Envelope, error) {
		return s.api.SubmitPuzzle(ctx, payload, puzzleID, solution)
	})
	if err != nil {
		return false, err
	}

	if env.Code != escapp.CodeOK {
		return false, nil
	}

	s.mu.Lock()
	s.local.AppendSolved(puzzleID)
	local := s.local
	s.mu.Unlock()
	if err := s.store.SaveSnapshot(local); err != nil {
		return true, fmt.Errorf("persist solved puzzle: %w", err)
	}

	if env.ErState.Valid() {
		if _, err := s.ApplyRemote(ctx, env.ErState); err != nil {
			return true, err
		}
	} else {
		s.checkCompletion(ctx, local)
	}
	return true, nil
}

// CheckSolution grades a solution without recording it.
func (s *Session) CheckSolution(ctx context.Context, puzzleID int, solution string) (bool, error) {
	s.mu.Lock()
	payload, ok := s.user.Payload()
	s.mu.Unlock()
	if !ok {
		return false, ErrInvalidCredentials
	}

	env, err := s.withRetry(ctx, func() (*escapp.Envelope, error) {
		return s.api.CheckSolution(ctx, payload, puzzleID, solution)
	})
	if err != nil {
		return false, err
	}
	return env.CorrectAnswer != nil && *env.CorrectAnswer, nil
}

// StartRoom asks for confirmation and starts the room on the platform.
// Time begins to run and cannot be stopped.
func (s *Session) StartRoom(ctx context.Context) (*state.Snapshot, error) {
	ok, err := s.dialogs.Confirm(ctx,
		s.translator.T("start_title", nil),
		s.translator.T("start_text", nil))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrCancelled
	}

	s.mu.Lock()
	payload, valid := s.user.Payload()
	s.mu.Unlock()
	if !valid {
		return nil, ErrInvalidCredentials
	}

	env, err := s.withRetry(ctx, func() (*escapp.Envelope, error) {
		return s.api.Start(ctx, payload)
	})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.user.Participation = env.Participation
	user := *s.user
	s.mu.Unlock()
	if err := s.store.SaveCredentials(&user); err != nil {
		return nil, fmt.Errorf("persist credentials: %w", err)
	}

	if env.Participation != state.ParticipationParticipant {
		if err := s.explainParticipation(ctx, env.Participation); err != nil {
			return nil, err
		}
		return nil, &NotParticipantError{Status: env.Participation}
	}

	winner, err := s.adoptRemote(ctx, env.ErState)
	if err != nil {
		return nil, err
	}
	s.startCountdownFrom(winner, true)

	s.gateway.Notify(notify.NewIntent(
		s.translator.T("notification_start", i18n.Args{"team": s.cfg.TeamName}),
		notify.CategoryEvent))
	return winner, nil
}

// ConnectPush opens the live event subscription and wires its dispatcher to
// this session. The team identity comes from the canonical local state, so
// call it after Validate.
func (s *Session) ConnectPush(ctx context.Context) (*push.Channel, error) {
	s.mu.Lock()
	payload, ok := s.user.Payload()
	teamID := 0
	if s.local.TeamID != nil {
		teamID = *s.local.TeamID
	}
	baseline := s.local.Ranking
	s.mu.Unlock()
	if !ok || payload.Token == "" {
		return nil, ErrInvalidCredentials
	}

	tracker := ranking.NewTracker(ranking.Config{
		TeamID:            teamID,
		TeamName:          s.cfg.TeamName,
		SecondaryCooldown: s.cfg.SecondaryCooldown,
	}, s.clock, s.translator)
	if baseline != nil {
		tracker.OnSnapshot(baseline)
	}

	dispatcher := push.NewDispatcher(push.DispatcherConfig{
		UserEmail:          payload.Email,
		TeamName:           s.cfg.TeamName,
		ReconnectionWindow: s.cfg.ReconnectionWindow,
	}, s.clock, s, tracker, s.gateway, s.translator)

	chCfg := push.DefaultChannelConfig()
	chCfg.URL = s.cfg.PushURL
	chCfg.EscapeRoomID = s.cfg.EscapeRoomID
	return push.Connect(ctx, chCfg, payload.Email, payload.Token, dispatcher)
}

// Reset clears the persisted replica and forgets the user.
func (s *Session) Reset() error {
	s.mu.Lock()
	s.user = &state.Credentials{}
	s.local = state.Default()
	s.authState = AuthUnauthenticated
	s.completionShown = false
	s.mu.Unlock()
	s.countdown.Stop()
	if err := s.store.Clear(); err != nil {
		return fmt.Errorf("clear local store: %w", err)
	}
	return nil
}

func (s *Session) resetCredentials() {
	s.mu.Lock()
	s.user = &state.Credentials{}
	s.local = state.Default()
	s.mu.Unlock()
	if err := s.store.DeleteCredentials(); err != nil {
		log.Error().Err(err).Msg("failed to drop stored credentials")
	}
}

// AddCredentialsToURL appends the user's email and token to a URL so a
// companion page can authenticate silently. Passwords never appear in URLs.
func (s *Session) AddCredentialsToURL(raw string) string {
	s.mu.Lock()
	email, token := s.user.Email, s.user.Token
	s.mu.Unlock()
	if email == "" || token == "" {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	q.Set("email", email)
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String()
}
