// Package ranking turns wholesale leaderboard snapshots into user-facing
// messages. Snapshots carry no trusted diff, so the tracker always compares
// the two most recent full snapshots itself.
package ranking

import (
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/escapekit/escapekit/go/internal/i18n"
	"github.com/escapekit/escapekit/go/internal/notify"
	"github.com/escapekit/escapekit/go/internal/state"
)

const podiumSize = 3

// Config holds ranking tracker configuration.
type Config struct {
	TeamID   int
	TeamName string
	// SecondaryCooldown is the minimum gap between low-priority messages.
	SecondaryCooldown time.Duration
}

// DefaultConfig returns default tracker configuration.
func DefaultConfig() Config {
	return Config{
		SecondaryCooldown: 4 * time.Minute,
	}
}

// Tracker classifies leaderboard transitions for the local team.
type Tracker struct {
	cfg        Config
	clock      clockwork.Clock
	translator *i18n.Translator

	prev            state.RankingSnapshot
	hasPrev         bool
	shownAny        bool
	lastSecondary   time.Time
	anySecondary    bool
	announcedPodium map[int]bool
}

// NewTracker creates a ranking tracker for the given team.
func NewTracker(cfg Config, clock clockwork.Clock, tr *i18n.Translator) *Tracker {
	if cfg.SecondaryCooldown <= 0 {
		cfg.SecondaryCooldown = DefaultConfig().SecondaryCooldown
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if tr == nil {
		tr = i18n.New()
	}
	return &Tracker{
		cfg:             cfg,
		clock:           clock,
		translator:      tr,
		announcedPodium: make(map[int]bool),
	}
}

// OnSnapshot consumes a leaderboard snapshot and returns the notification
// intent it warrants, or nil. The very first snapshot only establishes the
// baseline; an all-zero snapshot means the room has not been scored yet and
// is ignored.
func (t *Tracker) OnSnapshot(r state.RankingSnapshot) *notify.Intent {
	prev := t.prev
	hadPrev := t.hasPrev
	t.prev = r.Clone()
	t.hasPrev = true

	if !hadPrev || r.Empty() {
		return nil
	}

	newPos := r.PositionOf(t.cfg.TeamID)
	prevPos := prev.PositionOf(t.cfg.TeamID)
	if newPos == 0 || prevPos == 0 || t.cfg.TeamName == "" {
		return nil
	}

	standing, _ := r.TeamAt(newPos)
	msg := t.classify(prev, r, prevPos, newPos, standing.Count)
	if msg == nil {
		return nil
	}

	if msg.secondary {
		if t.anySecondary && t.clock.Now().Sub(t.lastSecondary) < t.cfg.SecondaryCooldown {
			log.Debug().Int("position", newPos).Msg("secondary ranking notification suppressed by cool-down")
			return nil
		}
		t.lastSecondary = t.clock.Now()
		t.anySecondary = true
	}
	t.shownAny = true

	intent := notify.NewIntent(msg.text, msg.category)
	return &intent
}

type message struct {
	text      string
	category  notify.Category
	secondary bool
}

func (t *Tracker) classify(prev, cur state.RankingSnapshot, prevPos, newPos, solved int) *message {
	args := i18n.Args{"team": t.cfg.TeamName, "position": newPos}

	// A team without a single solved puzzle has no standing worth announcing.
	if newPos <= podiumSize && solved >= 1 {
		return t.podiumMessage(prev, cur, prevPos, newPos, args)
	}

	// First message ever: never open with a discouraging drop. A genuine
	// climb keeps its own wording; drops and holds soften to the neutral
	// message, which still arms the cool-down like any other secondary.
	if !t.shownAny && solved >= 1 && newPos >= prevPos {
		return &message{
			text:      t.translator.T("notification_ranking_same", args),
			category:  notify.CategoryRanking,
			secondary: true,
		}
	}

	switch {
	case newPos < prevPos:
		return &message{
			text:     t.translator.T("notification_ranking_up", args),
			category: notify.CategoryRanking,
		}
	case newPos > prevPos:
		if overtaker, ok := singleOvertaker(prev, cur, t.cfg.TeamID, prevPos, newPos); ok {
			args["other"] = overtaker.Name
			return &message{
				text:     t.translator.T("notification_ranking_down_overtaken", args),
				category: notify.CategoryRanking,
			}
		}
		return &message{
			text:      t.translator.T("notification_ranking_down", args),
			category:  notify.CategoryRanking,
			secondary: true,
		}
	default:
		if entrant, ok := t.newPodiumEntrant(prev, cur, prevPos, newPos); ok {
			return &message{
				text:      t.translator.T("notification_ranking_other_podium", i18n.Args{"other": entrant.Name}),
				category:  notify.CategoryInfo,
				secondary: true,
			}
		}
		return &message{
			text:      t.translator.T("notification_ranking_same", args),
			category:  notify.CategoryRanking,
			secondary: true,
		}
	}
}

func (t *Tracker) podiumMessage(prev, cur state.RankingSnapshot, prevPos, newPos int, args i18n.Args) *message {
	var variant string
	secondary := false
	switch {
	case newPos < prevPos:
		variant = "up"
	case newPos == prevPos:
		variant = "same"
		secondary = true
	default:
		variant = "displaced"
		if displacer, ok := displacingTeam(prev, cur, t.cfg.TeamID, newPos); ok {
			args["other"] = displacer.Name
		} else {
			// Cannot name who pushed us down; fall back to holding wording
			// rather than an accusation with a blank name.
			variant = "same"
			secondary = true
		}
	}

	// A team that has never been congratulated gets the arrival wording even
	// when the transition itself was unfavorable.
	if !t.shownAny {
		variant = "up"
		secondary = false
	}

	key := "notification_ranking_" + strconv.Itoa(newPos) + "_" + variant
	return &message{
		text:      t.translator.T(key, args),
		category:  notify.CategoryRanking,
		secondary: secondary,
	}
}

// newPodiumEntrant finds a team other than ours that appears in the current
// top 3 but not the previous one, announcing each such team only once.
func (t *Tracker) newPodiumEntrant(prev, cur state.RankingSnapshot, prevPos, newPos int) (state.TeamStanding, bool) {
	curCount, _ := cur.TeamAt(newPos)
	prevCount, _ := prev.TeamAt(prevPos)
	if curCount.Count != prevCount.Count {
		return state.TeamStanding{}, false
	}
	for pos := 1; pos <= podiumSize; pos++ {
		s, ok := cur.TeamAt(pos)
		if !ok || s.ID == t.cfg.TeamID {
			continue
		}
		if p := prev.PositionOf(s.ID); p == 0 || p > podiumSize {
			if !t.announcedPodium[s.ID] {
				t.announcedPodium[s.ID] = true
				return s, true
			}
		}
	}
	return state.TeamStanding{}, false
}

// displacingTeam resolves which team pushed ours down into newPos by diffing
// the ranks above: the displacer sits above us now but did not before.
func displacingTeam(prev, cur state.RankingSnapshot, teamID, newPos int) (state.TeamStanding, bool) {
	for pos := 1; pos < newPos; pos++ {
		s, ok := cur.TeamAt(pos)
		if !ok || s.ID == teamID {
			continue
		}
		if p := prev.PositionOf(s.ID); p == 0 || p >= newPos {
			return s, true
		}
	}
	return state.TeamStanding{}, false
}

// singleOvertaker identifies the one team that moved from below us to above
// us. Reports false when zero or several teams qualify.
func singleOvertaker(prev, cur state.RankingSnapshot, teamID, prevPos, newPos int) (state.TeamStanding, bool) {
	var found state.TeamStanding
	n := 0
	for pos := 1; pos < newPos; pos++ {
		s, ok := cur.TeamAt(pos)
		if !ok || s.ID == teamID {
			continue
		}
		if p := prev.PositionOf(s.ID); p > prevPos || p == 0 {
			found = s
			n++
		}
	}
	return found, n == 1
}
