package state

// PuzzleDetail holds per-puzzle metadata delivered by the platform.
type PuzzleDetail struct {
	Score float64 `json:"score"`
	Hints int     `json:"hints,omitempty"`
}

// TeamMember identifies a member of the local team.
type TeamMember struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// TeamStanding is one row of a leaderboard snapshot.
type TeamStanding struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Snapshot is the escape-room progress state ("ER state") of a team.
// A snapshot is valid iff SolvedPuzzles is present, even when empty;
// everything else is optional metadata that may arrive on either the
// local or the remote side.
type Snapshot struct {
	SolvedPuzzles []int                `json:"puzzlesSolved"`
	PuzzleDetails map[int]PuzzleDetail `json:"puzzleData,omitempty"`
	TotalPuzzles  *int                 `json:"nPuzzles,omitempty"`
	HintsAllowed  *bool                `json:"hintsAllowed,omitempty"`
	StartTime     *float64             `json:"startTime,omitempty"`
	Duration      *float64             `json:"duration,omitempty"`
	RemainingTime *float64             `json:"remainingTime,omitempty"`
	TeamID        *int                 `json:"teamId,omitempty"`
	TeamMembers   []TeamMember         `json:"teamMembers,omitempty"`
	Ranking       []TeamStanding       `json:"ranking,omitempty"`

	// Derived fields, recomputed on every update.
	ProgressPercent float64 `json:"progress"`
	Score           float64 `json:"score"`
}

// Default returns the empty state every invalid snapshot falls back to.
func Default() *Snapshot {
	hints := true
	return &Snapshot{
		SolvedPuzzles: []int{},
		HintsAllowed:  &hints,
	}
}

// Valid reports whether s can be persisted and compared.
func (s *Snapshot) Valid() bool {
	return s != nil && s.SolvedPuzzles != nil
}

// Solved reports whether the given puzzle is already in the solved sequence.
func (s *Snapshot) Solved(puzzleID int) bool {
	if s == nil {
		return false
	}
	for _, id := range s.SolvedPuzzles {
		if id == puzzleID {
			return true
		}
	}
	return false
}

// AppendSolved records a newly solved puzzle, preserving solve order.
// Duplicate ids are ignored.
func (s *Snapshot) AppendSolved(puzzleID int) bool {
	if s.Solved(puzzleID) {
		return false
	}
	s.SolvedPuzzles = append(s.SolvedPuzzles, puzzleID)
	s.Recompute()
	return true
}

// SolvedCount counts solved puzzles, optionally restricted to the subset of
// puzzle ids the embedding app cares about. An empty filter counts everything.
func (s *Snapshot) SolvedCount(appPuzzleIDs []int) int {
	if s == nil || s.SolvedPuzzles == nil {
		return 0
	}
	if len(appPuzzleIDs) == 0 {
		return len(s.SolvedPuzzles)
	}
	relevant := make(map[int]struct{}, len(appPuzzleIDs))
	for _, id := range appPuzzleIDs {
		relevant[id] = struct{}{}
	}
	n := 0
	for _, id := range s.SolvedPuzzles {
		if _, ok := relevant[id]; ok {
			n++
		}
	}
	return n
}

// NewerThan reports whether s is strictly newer than other under the
// solved-count ordering. This ordering is only meaningful while puzzles form
// a single linear sequence; behavior for branching puzzle graphs is
// deliberately undefined.
func (s *Snapshot) NewerThan(other *Snapshot, appPuzzleIDs []int) bool {
	if !s.Valid() {
		return false
	}
	if !other.Valid() {
		return true
	}
	return s.SolvedCount(appPuzzleIDs) > other.SolvedCount(appPuzzleIDs)
}

// Recompute refreshes the derived fields from the authoritative ones.
func (s *Snapshot) Recompute() {
	if s == nil {
		return
	}
	score := 0.0
	for _, id := range s.SolvedPuzzles {
		if d, ok := s.PuzzleDetails[id]; ok {
			score += d.Score
		}
	}
	s.Score = score

	if s.TotalPuzzles != nil && *s.TotalPuzzles > 0 {
		s.ProgressPercent = 100 * float64(len(s.SolvedPuzzles)) / float64(*s.TotalPuzzles)
	} else {
		s.ProgressPercent = 0
	}
}

// Completed reports whether every puzzle of the room has been solved.
// Unknown while TotalPuzzles has not arrived.
func (s *Snapshot) Completed() bool {
	if s == nil || s.TotalPuzzles == nil || *s.TotalPuzzles == 0 {
		return false
	}
	return len(s.SolvedPuzzles) >= *s.TotalPuzzles
}

// MemberName resolves a team member's display name from the roster.
// Returns empty when the member is unknown or has no name.
func (s *Snapshot) MemberName(email string) string {
	if s == nil {
		return ""
	}
	for _, m := range s.TeamMembers {
		if m.Email == email {
			return m.Name
		}
	}
	return ""
}

// HasMember reports whether the given email belongs to the team roster.
func (s *Snapshot) HasMember(email string) bool {
	if s == nil {
		return false
	}
	for _, m := range s.TeamMembers {
		if m.Email == email {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the snapshot.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	c := *s
	if s.SolvedPuzzles != nil {
		c.SolvedPuzzles = append([]int(nil), s.SolvedPuzzles...)
	}
	if s.PuzzleDetails != nil {
		c.PuzzleDetails = make(map[int]PuzzleDetail, len(s.PuzzleDetails))
		for id, d := range s.PuzzleDetails {
			c.PuzzleDetails[id] = d
		}
	}
	c.TotalPuzzles = clonePtr(s.TotalPuzzles)
	c.HintsAllowed = clonePtr(s.HintsAllowed)
	c.StartTime = clonePtr(s.StartTime)
	c.Duration = clonePtr(s.Duration)
	c.RemainingTime = clonePtr(s.RemainingTime)
	c.TeamID = clonePtr(s.TeamID)
	if s.TeamMembers != nil {
		c.TeamMembers = append([]TeamMember(nil), s.TeamMembers...)
	}
	if s.Ranking != nil {
		c.Ranking = append([]TeamStanding(nil), s.Ranking...)
	}
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
