package push

import (
	"encoding/json"

	"github.com/escapekit/escapekit/go/internal/state"
)

// EventType identifies an inbound room event.
type EventType string

const (
	EventInitialInfo    EventType = "INITIAL_INFO"
	EventJoin           EventType = "JOIN"
	EventLeave          EventType = "LEAVE"
	EventHintResponse   EventType = "HINT_RESPONSE"
	EventPuzzleResponse EventType = "PUZZLE_RESPONSE"
	EventTeamProgress   EventType = "TEAM_PROGRESS"
	EventMessage        EventType = "MESSAGE"
)

// Event is the wire envelope for every inbound room event.
type Event struct {
	Type EventType       `json:"type"`
	Data json.RawMessage `json:"data"`
}

// InitialInfoPayload is the roster snapshot delivered right after connecting.
type InitialInfoPayload struct {
	ConnectedMembers []string `json:"connectedMembers"`
}

// MemberPayload accompanies JOIN and LEAVE events.
type MemberPayload struct {
	Username         string   `json:"username"`
	ConnectedMembers []string `json:"connectedMembers"`
}

// HintPayload carries a hint granted to the team.
type HintPayload struct {
	Msg string `json:"msg"`
}

// PuzzlePayload announces a solved-puzzle verdict together with the remote
// ER state it produced.
type PuzzlePayload struct {
	Code        string          `json:"code"`
	PuzzleOrder int             `json:"puzzleOrder"`
	ErState     *state.Snapshot `json:"erState"`
}

// ProgressPayload carries a full leaderboard snapshot.
type ProgressPayload struct {
	Ranking state.RankingSnapshot `json:"ranking"`
}

// MessagePayload is a free-form staff message.
type MessagePayload struct {
	Msg string `json:"msg"`
}

// ParsePayload decodes an event's payload into its typed struct.
// Unknown event types yield nil without error so newer server events are
// tolerated.
func ParsePayload(ev Event) (any, error) {
	switch ev.Type {
	case EventInitialInfo:
		var p InitialInfoPayload
		if err := json.Unmarshal(ev.Data, &p); err != nil {
			return nil, err
		}
		return p, nil
	case EventJoin, EventLeave:
		var p MemberPayload
		if err := json.Unmarshal(ev.Data, &p); err != nil {
			return nil, err
		}
		return p, nil
	case EventHintResponse:
		var p HintPayload
		if err := json.Unmarshal(ev.Data, &p); err != nil {
			return nil, err
		}
		return p, nil
	case EventPuzzleResponse:
		var p PuzzlePayload
		if err := json.Unmarshal(ev.Data, &p); err != nil {
			return nil, err
		}
		return p, nil
	case EventTeamProgress:
		var p ProgressPayload
		if err := json.Unmarshal(ev.Data, &p); err != nil {
			return nil, err
		}
		return p, nil
	case EventMessage:
		var p MessagePayload
		if err := json.Unmarshal(ev.Data, &p); err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, nil
	}
}
