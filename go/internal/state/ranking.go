package state

// RankingSnapshot is a full leaderboard delivered wholesale on every
// leaderboard event. Incremental diffs are never trusted; consumers always
// compare two complete snapshots.
type RankingSnapshot []TeamStanding

// Empty reports whether no team has scored yet. A room that has not been
// scored re-delivers all-zero standings which carry no ranking information.
func (r RankingSnapshot) Empty() bool {
	for _, s := range r {
		if s.Count > 0 {
			return false
		}
	}
	return true
}

// PositionOf returns the 1-based leaderboard position of a team,
// or 0 when the team is absent from the snapshot.
func (r RankingSnapshot) PositionOf(teamID int) int {
	for i, s := range r {
		if s.ID == teamID {
			return i + 1
		}
	}
	return 0
}

// TeamAt returns the standing at a 1-based position.
func (r RankingSnapshot) TeamAt(position int) (TeamStanding, bool) {
	if position < 1 || position > len(r) {
		return TeamStanding{}, false
	}
	return r[position-1], true
}

// Clone returns a copy safe to retain across snapshot deliveries.
func (r RankingSnapshot) Clone() RankingSnapshot {
	if r == nil {
		return nil
	}
	return append(RankingSnapshot(nil), r...)
}
