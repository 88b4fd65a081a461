package state

// ParticipationStatus is the platform's verdict on a user's eligibility for a room.
type ParticipationStatus string

const (
	ParticipationParticipant     ParticipationStatus = "PARTICIPANT"
	ParticipationNotStarted      ParticipationStatus = "NOT_STARTED"
	ParticipationNotActive       ParticipationStatus = "NOT_ACTIVE"
	ParticipationTooLate         ParticipationStatus = "TOO_LATE"
	ParticipationAuthor          ParticipationStatus = "AUTHOR"
	ParticipationNotAParticipant ParticipationStatus = "NOT_A_PARTICIPANT"
)

// Credentials is the persisted identity of the local user.
type Credentials struct {
	Email         string              `json:"email"`
	Token         string              `json:"token,omitempty"`
	Password      string              `json:"password,omitempty"`
	Authenticated bool                `json:"authenticated"`
	Participation ParticipationStatus `json:"participation,omitempty"`
}

// AuthPayload is the credential subset sent on every API call.
// Once a token has been issued it replaces the password entirely;
// passwords never travel after that, and never appear in URLs.
type AuthPayload struct {
	Email    string `json:"email"`
	Token    string `json:"token,omitempty"`
	Password string `json:"password,omitempty"`
}

// Payload extracts the wire credentials, preferring token over password.
// Returns false when the credentials are unusable.
func (c *Credentials) Payload() (AuthPayload, bool) {
	if c == nil || c.Email == "" || (c.Token == "" && c.Password == "") {
		return AuthPayload{}, false
	}
	p := AuthPayload{Email: c.Email}
	if c.Token != "" {
		p.Token = c.Token
	} else {
		p.Password = c.Password
	}
	return p, true
}

// CanParticipate reports whether the user may play the room right now.
func (c *Credentials) CanParticipate() bool {
	return c != nil && c.Authenticated && c.Participation == ParticipationParticipant
}
