package push

import (
	"context"
	"math/rand/v2"
	"strconv"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/escapekit/escapekit/go/internal/i18n"
	"github.com/escapekit/escapekit/go/internal/notify"
	"github.com/escapekit/escapekit/go/internal/ranking"
	"github.com/escapekit/escapekit/go/internal/reconcile"
	"github.com/escapekit/escapekit/go/internal/state"
)

// StateSync is the slice of the session the dispatcher needs: read the
// canonical local snapshot and reconcile a remote one into it.
type StateSync interface {
	LocalSnapshot() *state.Snapshot
	ApplyRemote(ctx context.Context, remote *state.Snapshot) (reconcile.Result, error)
}

// DispatcherConfig holds dispatch configuration.
type DispatcherConfig struct {
	UserEmail string
	TeamName  string
	// ReconnectionWindow suppresses leave notifications for members that
	// rejoin within it, so network flaps do not spam the team.
	ReconnectionWindow time.Duration
}

// DefaultDispatcherConfig returns default dispatch configuration.
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		ReconnectionWindow: 3 * time.Second,
	}
}

// Dispatcher routes inbound room events to the reconciliation engine, the
// ranking tracker, and the notification gateway.
type Dispatcher struct {
	cfg        DispatcherConfig
	clock      clockwork.Clock
	sync       StateSync
	tracker    *ranking.Tracker
	gateway    notify.Gateway
	translator *i18n.Translator

	mu               sync.Mutex
	connectedMembers []string
	// pendingReconnect counts in-flight leave debounces per member, so rapid
	// repeated flaps within the window still produce no notification.
	pendingReconnect map[string]int
}

// NewDispatcher creates an event dispatcher.
func NewDispatcher(cfg DispatcherConfig, clock clockwork.Clock, sync StateSync, tracker *ranking.Tracker, gateway notify.Gateway, tr *i18n.Translator) *Dispatcher {
	if cfg.ReconnectionWindow <= 0 {
		cfg.ReconnectionWindow = DefaultDispatcherConfig().ReconnectionWindow
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if tr == nil {
		tr = i18n.New()
	}
	return &Dispatcher{
		cfg:              cfg,
		clock:            clock,
		sync:             sync,
		tracker:          tracker,
		gateway:          gateway,
		translator:       tr,
		pendingReconnect: make(map[string]int),
	}
}

// Dispatch handles one inbound event. Events must be delivered in arrival
// order; the dispatcher performs no reordering of its own.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) {
	payload, err := ParsePayload(ev)
	if err != nil {
		log.Warn().Err(err).Str("type", string(ev.Type)).Msg("dropping undecodable push event")
		return
	}

	switch p := payload.(type) {
	case InitialInfoPayload:
		d.onInitialInfo(p)
	case MemberPayload:
		if ev.Type == EventJoin {
			d.onJoin(p)
		} else {
			d.onLeave(p)
		}
	case HintPayload:
		d.onHint(p)
	case PuzzlePayload:
		d.onPuzzleResponse(ctx, p)
	case ProgressPayload:
		d.onTeamProgress(p)
	case MessagePayload:
		d.onMessage(p)
	default:
		log.Debug().Str("type", string(ev.Type)).Msg("ignoring unknown push event")
	}
}

func (d *Dispatcher) onInitialInfo(p InitialInfoPayload) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if p.ConnectedMembers != nil {
		d.connectedMembers = p.ConnectedMembers
	}
}

func (d *Dispatcher) onJoin(p MemberPayload) {
	if p.Username == "" {
		return
	}

	d.mu.Lock()
	previous := d.connectedMembers
	if p.ConnectedMembers != nil {
		d.connectedMembers = p.ConnectedMembers
	}
	pending := d.pendingReconnect[p.Username] > 0
	d.mu.Unlock()

	if p.Username == d.cfg.UserEmail {
		return
	}
	snap := d.sync.LocalSnapshot()
	if !snap.HasMember(p.Username) {
		return
	}
	if contains(previous, p.Username) {
		return
	}
	// A rejoin inside the reconnection window is flicker, not news.
	if pending {
		return
	}

	name := memberDisplayName(snap, p.Username)
	d.gateway.Notify(notify.NewIntent(
		d.translator.T("notification_member_join", i18n.Args{"member": name}),
		notify.CategoryInfo))
}

func (d *Dispatcher) onLeave(p MemberPayload) {
	if p.Username == "" {
		return
	}

	d.mu.Lock()
	previous := d.connectedMembers
	if p.ConnectedMembers != nil {
		d.connectedMembers = p.ConnectedMembers
	}
	stillConnected := contains(d.connectedMembers, p.Username)
	d.mu.Unlock()

	if p.Username == d.cfg.UserEmail {
		return
	}
	snap := d.sync.LocalSnapshot()
	if !snap.HasMember(p.Username) {
		return
	}
	if !contains(previous, p.Username) || stillConnected {
		return
	}

	member := p.Username
	d.mu.Lock()
	d.pendingReconnect[member]++
	d.mu.Unlock()

	d.clock.AfterFunc(d.cfg.ReconnectionWindow, func() {
		d.mu.Lock()
		if n := d.pendingReconnect[member]; n > 1 {
			d.pendingReconnect[member] = n - 1
		} else {
			delete(d.pendingReconnect, member)
		}
		gone := !contains(d.connectedMembers, member) && d.pendingReconnect[member] == 0
		d.mu.Unlock()

		if !gone {
			return
		}
		name := memberDisplayName(d.sync.LocalSnapshot(), member)
		d.gateway.Notify(notify.NewIntent(
			d.translator.T("notification_member_leave", i18n.Args{"member": name}),
			notify.CategoryInfo))
	})
}

func (d *Dispatcher) onHint(p HintPayload) {
	if p.Msg == "" {
		return
	}
	d.gateway.Notify(notify.NewIntent(
		d.translator.T("notification_hint_new", i18n.Args{"hint": p.Msg}),
		notify.CategoryEvent))
}

func (d *Dispatcher) onPuzzleResponse(ctx context.Context, p PuzzlePayload) {
	if p.Code != "OK" {
		return
	}

	// The acting browser already appended the solved puzzle before the push
	// echo arrives; only a genuinely new id deserves an announcement.
	alreadySolved := d.sync.LocalSnapshot().Solved(p.PuzzleOrder)

	if _, err := d.sync.ApplyRemote(ctx, p.ErState); err != nil {
		log.Error().Err(err).Int("puzzle", p.PuzzleOrder).Msg("failed to reconcile pushed ER state")
		return
	}

	if alreadySolved {
		return
	}
	suffix := d.translator.T("notification_puzzle_success_end"+strconv.Itoa(rand.IntN(3)+1),
		i18n.Args{"team": d.cfg.TeamName})
	d.gateway.Notify(notify.NewIntent(
		d.translator.T("notification_puzzle_success", nil)+" "+suffix,
		notify.CategoryEvent))
}

func (d *Dispatcher) onTeamProgress(p ProgressPayload) {
	if p.Ranking == nil {
		return
	}
	if intent := d.tracker.OnSnapshot(p.Ranking); intent != nil {
		d.gateway.Notify(*intent)
	}
}

func (d *Dispatcher) onMessage(p MessagePayload) {
	if p.Msg == "" {
		return
	}
	d.gateway.Notify(notify.NewIntent(
		d.translator.T("notification_message", i18n.Args{"msg": p.Msg}),
		notify.CategoryInfo))
}

func memberDisplayName(snap *state.Snapshot, email string) string {
	if name := snap.MemberName(email); name != "" {
		return name
	}
	return email
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
