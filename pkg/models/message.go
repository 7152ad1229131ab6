package models

// Message is one chat entry in a project room. Messages are append-only:
// once delivered they are never edited or deleted in-session.
type Message struct {
	ID      string      `json:"id"`
	Project string      `json:"project"`
	Sender  Participant `json:"sender"`
	Text    string      `json:"text"`
	TS      int64       `json:"ts"`
}

// Event types carried on a project room.
const (
	EventChat   = "chat"
	EventRoster = "roster"
)

// Event is the wire shape broadcast to attached room connections. Chat
// events carry a sender and text; roster events carry the updated project
// so clients converge on the authoritative membership.
type Event struct {
	Type    string       `json:"type"`
	Sender  *Participant `json:"sender,omitempty"`
	Text    string       `json:"text,omitempty"`
	Project *Project     `json:"project,omitempty"`
	TS      int64        `json:"ts,omitempty"`
}
