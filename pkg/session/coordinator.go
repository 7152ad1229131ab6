// Package session glues a connecting participant to a project's room and
// file tree and routes inbound messages. OnIncoming is the single dispatch
// point distinguishing agent messages from human ones.
package session

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"vagentd/pkg/agent"
	"vagentd/pkg/errdefs"
	"vagentd/pkg/logger"
	"vagentd/pkg/models"
	"vagentd/pkg/room"
	"vagentd/pkg/roster"
	"vagentd/pkg/store"
	"vagentd/pkg/tree"
	"vagentd/pkg/utils"
)

// Coordinator wires participants into project sessions.
type Coordinator struct {
	Hub    *room.Hub
	Trees  *tree.Store
	Roster *roster.Manager
}

// NewCoordinator builds a coordinator over the given collaborators.
func NewCoordinator(hub *room.Hub, trees *tree.Store, rm *roster.Manager) *Coordinator {
	return &Coordinator{Hub: hub, Trees: trees, Roster: rm}
}

// State is the initial bundle handed to a freshly attached client.
type State struct {
	Project  models.Project  `json:"project"`
	FileTree models.FileTree `json:"fileTree"`
}

// stateFrame is State on the wire, tagged so clients can tell it from
// room events.
type stateFrame struct {
	Type string `json:"type"`
	State
}

// Attach verifies membership, loads the roster and file-tree snapshots and
// joins the participant's connection to the project room. The state bundle
// is enqueued as the connection's first frame before it can receive room
// events, so no published event is ever ordered ahead of it.
func (c *Coordinator) Attach(projectID string, p models.Participant, ws *websocket.Conn) (*room.Conn, State, error) {
	proj, err := c.Roster.Get(projectID)
	if err != nil {
		return nil, State{}, err
	}
	if !proj.Has(p.ID) {
		return nil, State{}, errdefs.Authorizationf("user %s is not a participant of %s", p.ID, projectID)
	}
	ft, err := c.Trees.Load(projectID)
	if err != nil {
		return nil, State{}, err
	}
	st := State{Project: proj, FileTree: ft}
	frame, err := json.Marshal(stateFrame{Type: "state", State: st})
	if err != nil {
		return nil, State{}, err
	}
	conn := c.Hub.Join(projectID, ws, frame)
	logger.Info("participant_attached", "project", projectID, "user", p.ID)
	return conn, st, nil
}

// SendChat publishes a human-authored message to the project room and
// appends it to the durable log. A failed append is a warning; delivery to
// attached clients is not held back by the durable copy.
func (c *Coordinator) SendChat(projectID string, sender models.Participant, text string) models.Message {
	m := models.Message{
		ID:      utils.GenID(),
		Project: projectID,
		Sender:  sender,
		Text:    text,
		TS:      time.Now().UTC().UnixNano(),
	}
	_ = c.OnIncoming(m)
	return m
}

// OnIncoming routes one inbound message. Messages from the agent sentinel
// pass through the payload interpreter: a tree patch, when present, lands
// in the tree store before the display text is broadcast, so no client can
// see the message without the file changes it refers to. A malformed agent
// payload is reported but the raw text is still delivered and logged as an
// opaque message. All other senders are plain display text.
func (c *Coordinator) OnIncoming(m models.Message) error {
	if m.Sender.ID != models.AgentID {
		c.deliver(m)
		return nil
	}

	pl, err := agent.Interpret(m.Text)
	if err != nil {
		logger.Warn("agent_payload_malformed", "project", m.Project, "error", err)
		c.deliver(m)
		return err
	}
	if pl.HasPatch() {
		if _, perr := c.Trees.Replace(m.Project, pl.Tree, "agent"); perr != nil {
			// durable copy lags; the canonical in-memory snapshot moved
			logger.Warn("agent_patch_persist_lagging", "project", m.Project, "error", perr)
		}
	}
	m.Text = pl.Text
	c.deliver(m)
	return nil
}

// CommitInvite converts the selection into an AddParticipants call. The
// selection is cleared on completion regardless of the outcome, so a retry
// never carries stale pending state.
func (c *Coordinator) CommitInvite(projectID string, requester models.Participant, sel *Selection) (models.Project, error) {
	ids := sel.IDs()
	defer sel.Clear()
	return c.Roster.AddParticipants(projectID, requester.ID, ids)
}

func (c *Coordinator) deliver(m models.Message) {
	if err := store.AppendMessage(m.Project, m); err != nil {
		logger.Warn("message_append_failed", "project", m.Project, "id", m.ID, "error", err)
	}
	sender := m.Sender
	c.Hub.Publish(m.Project, models.Event{
		Type:   models.EventChat,
		Sender: &sender,
		Text:   m.Text,
		TS:     m.TS,
	})
}
