package models

// Participant is an authenticated identity attached to a project. The email
// is display-only; the id is the opaque identity supplied by the identity
// collaborator. Records are immutable once added to a roster.
type Participant struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}

// AgentID is the sentinel identity of the automated participant. The user
// store refuses to register a human account under this id.
const AgentID = "ai"

// AgentSender is the sender identity stamped on interpreted agent messages.
var AgentSender = Participant{ID: AgentID, Email: "ai"}

// Project is a workspace owning a roster and one file tree. Users are
// ordered by join time and never reordered: index 0 is the creator, by
// construction.
type Project struct {
	ID        string        `json:"id"`
	Users     []Participant `json:"users"`
	FileTree  FileTree      `json:"fileTree,omitempty"`
	CreatedTS int64         `json:"created_ts,omitempty"`
	UpdatedTS int64         `json:"updated_ts,omitempty"`
}

// Creator returns the participant at roster position 0. Every project has
// at least one participant, so this never fails on a stored project.
func (p *Project) Creator() Participant {
	return p.Users[0]
}

// IsCreator reports whether id identifies the project creator.
func (p *Project) IsCreator(id string) bool {
	return len(p.Users) > 0 && p.Users[0].ID == id
}

// Has reports whether id is currently on the roster.
func (p *Project) Has(id string) bool {
	for _, u := range p.Users {
		if u.ID == id {
			return true
		}
	}
	return false
}
