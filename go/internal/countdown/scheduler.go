// Package countdown drives the room clock. The clock ticks coarsely while
// plenty of time remains and switches to second granularity near the end,
// and an independent single-shot timer announces fixed remaining-time
// thresholds without firing once per tick.
package countdown

import (
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/escapekit/escapekit/go/internal/i18n"
	"github.com/escapekit/escapekit/go/internal/notify"
)

// State is the scheduler's lifecycle state.
type State string

const (
	StateStopped State = "stopped"
	StateCoarse  State = "coarse"
	StateFine    State = "fine"
	StateExpired State = "expired"
)

const (
	coarsePeriod = 10 // seconds per tick far from the end
	finePeriod   = 1  // seconds per tick near the end
	// fineThreshold is the remaining time below which the clock ticks every
	// second.
	fineThreshold = 4 * 60
	// startGuard suppresses threshold notifications fired within this many
	// seconds of the full room duration, so a fresh room does not open with a
	// spurious "time remaining" message.
	startGuard = 30
	// defaultDuration is assumed when the room never reported its duration.
	defaultDuration = 2 * 60 * 60
)

// thresholds are the announced remaining times, in minutes. Above two hours
// the next exact hour boundary is announced instead.
var thresholds = []int{0, 1, 2, 5, 10, 15, 30, 45, 60, 90}

// Config holds countdown configuration.
type Config struct {
	// Enabled gates the whole scheduler; a disabled scheduler ignores Start.
	Enabled bool
}

// Scheduler runs the adaptive-resolution countdown and emits time
// notifications. There is no pause: superseding a running countdown means
// calling Start again, which cancels every prior timer.
type Scheduler struct {
	cfg        Config
	clock      clockwork.Clock
	gateway    notify.Gateway
	translator *i18n.Translator

	mu          sync.Mutex
	state       State
	remaining   int // seconds
	duration    int // seconds, full room duration
	period      int // seconds, active tick period
	gen         uint64
	tickTimer   clockwork.Timer
	notifyTimer clockwork.Timer
}

// NewScheduler creates a countdown scheduler.
func NewScheduler(cfg Config, clock clockwork.Clock, gateway notify.Gateway, tr *i18n.Translator) *Scheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if tr == nil {
		tr = i18n.New()
	}
	return &Scheduler{
		cfg:        cfg,
		clock:      clock,
		gateway:    gateway,
		translator: tr,
		state:      StateStopped,
	}
}

// State returns the current lifecycle state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Remaining returns the clock's current remaining seconds.
func (s *Scheduler) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remaining
}

// Start arms the countdown from the given remaining seconds. A non-positive
// remaining time or a disabled scheduler is a no-op. Any running countdown is
// cancelled first. durationHint is the room's full duration in seconds; zero
// means unknown.
func (s *Scheduler) Start(remaining, durationHint int) {
	if !s.cfg.Enabled || remaining <= 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelTimersLocked()
	s.gen++
	gen := s.gen

	s.remaining = remaining
	if durationHint > 0 {
		s.duration = durationHint
	} else {
		s.duration = defaultDuration
	}
	s.period = periodFor(remaining)
	if s.period == coarsePeriod {
		s.state = StateCoarse
	} else {
		s.state = StateFine
	}

	// Phase-align the first tick so later ticks land on round boundaries.
	align := remaining % s.period
	s.tickTimer = s.clock.AfterFunc(time.Duration(align)*time.Second, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if gen != s.gen {
			return
		}
		s.remaining = max(0, s.remaining-align)
		s.scheduleTickLocked(gen)
		s.armNotificationLocked(gen)
	})

	log.Debug().
		Int("remaining", remaining).
		Int("duration", s.duration).
		Int("period", s.period).
		Int("align", align).
		Msg("countdown started")
}

// Stop cancels the countdown without firing anything.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelTimersLocked()
	s.gen++
	s.state = StateStopped
}

func (s *Scheduler) cancelTimersLocked() {
	if s.tickTimer != nil {
		s.tickTimer.Stop()
		s.tickTimer = nil
	}
	if s.notifyTimer != nil {
		s.notifyTimer.Stop()
		s.notifyTimer = nil
	}
}

func periodFor(remaining int) int {
	if remaining > fineThreshold {
		return coarsePeriod
	}
	return finePeriod
}

func (s *Scheduler) scheduleTickLocked(gen uint64) {
	period := s.period
	s.tickTimer = s.clock.AfterFunc(time.Duration(period)*time.Second, func() {
		s.onTick(gen, period)
	})
}

func (s *Scheduler) onTick(gen uint64, period int) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}

	s.remaining = max(0, s.remaining-period)

	if s.remaining == 0 {
		s.state = StateExpired
		s.cancelTimersLocked()
		text := s.translator.T("notification_time_runout", nil)
		s.mu.Unlock()
		log.Info().Msg("countdown expired")
		s.gateway.Notify(notify.NewIntent(text, notify.CategoryTime))
		return
	}

	// Crossing the fine threshold restarts the interval at 1s granularity.
	if s.state == StateCoarse && s.remaining <= fineThreshold {
		s.state = StateFine
		s.period = finePeriod
	}
	s.scheduleTickLocked(gen)
	s.mu.Unlock()
}

// armNotificationLocked schedules the single-shot threshold timer for the
// next crossing below the current remaining time.
func (s *Scheduler) armNotificationLocked(gen uint64) {
	if s.state == StateExpired {
		return
	}
	if s.notifyTimer != nil {
		s.notifyTimer.Stop()
		s.notifyTimer = nil
	}

	delay, ok := nextThresholdDelay(s.remaining)
	if !ok {
		return
	}
	s.notifyTimer = s.clock.AfterFunc(time.Duration(delay)*time.Second, func() {
		s.onThreshold(gen)
	})
}

func (s *Scheduler) onThreshold(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || s.state == StateExpired {
		s.mu.Unlock()
		return
	}

	text := s.thresholdTextLocked()
	period := s.period

	// Re-arm for the next lower threshold after a short guard delay so the
	// same crossing is never announced twice.
	guard := time.Duration(period+1) * time.Second
	s.notifyTimer = s.clock.AfterFunc(guard, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if gen != s.gen {
			return
		}
		s.armNotificationLocked(gen)
	})
	s.mu.Unlock()

	if text != "" {
		s.gateway.Notify(notify.NewIntent(text, notify.CategoryTime))
	}
}

// thresholdTextLocked formats the "N remaining" message, or returns empty
// when the current remaining time should not be announced: right after the
// room started, or when the clock has drifted off the exact threshold.
func (s *Scheduler) thresholdTextLocked() string {
	remaining := s.remaining

	if abs(remaining-s.duration) < startGuard {
		return ""
	}

	hours := remaining / 3600
	minutes := int(float64(remaining%3600)/60 + 0.5)
	seconds := remaining - hours*3600 - minutes*60

	// Only announce when within one tick period of the exact threshold;
	// drifted values stay silent and the timer re-arms.
	if abs(seconds) > s.period+1 {
		return ""
	}

	switch {
	case hours > 0 && minutes == 0:
		if hours == 1 {
			return s.translator.T("notification_time_one_hour", nil)
		}
		return s.translator.T("notification_time_hours", i18n.Args{"hours": hours})
	case hours > 0:
		return s.translator.T("notification_time_hours_and_minutes", i18n.Args{"hours": hours, "minutes": minutes})
	case minutes == 1:
		return s.translator.T("notification_time_one_minute", nil)
	case minutes > 0:
		return s.translator.T("notification_time_minutes", i18n.Args{"minutes": minutes})
	default:
		return ""
	}
}

// nextThresholdDelay computes the seconds until the next announcement for a
// given remaining time: the next exact hour boundary above two hours, the
// next entry of the threshold table below that.
func nextThresholdDelay(remaining int) (int, bool) {
	if remaining >= 2*3600 {
		return remaining % 3600, true
	}

	minutes := float64(remaining) / 60
	sorted := append([]int(nil), thresholds...)
	sort.Sort(sort.Reverse(sort.IntSlice(sorted)))
	for _, t := range sorted {
		if minutes >= float64(t) {
			return remaining - t*60, true
		}
	}
	return 0, false
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
