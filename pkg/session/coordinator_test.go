package session

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vagentd/pkg/errdefs"
	"vagentd/pkg/models"
	"vagentd/pkg/room"
	"vagentd/pkg/roster"
	"vagentd/pkg/store"
	"vagentd/pkg/tree"
)

var (
	alice = models.Participant{ID: "u-alice", Email: "alice@example.com"}
	bob   = models.Participant{ID: "u-bob", Email: "bob@example.com"}
)

func newCoordinator(t *testing.T) (*Coordinator, models.Project) {
	t.Helper()
	if err := store.Open(filepath.Join(t.TempDir(), "db")); err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	for _, u := range []models.Participant{alice, bob} {
		require.NoError(t, store.SaveUser(u))
	}
	hub := room.NewHub()
	co := NewCoordinator(hub, tree.NewStore(), roster.New(hub))
	p, err := co.Roster.Create(alice)
	require.NoError(t, err)
	return co, p
}

func TestSendChatAppendsToLog(t *testing.T) {
	co, p := newCoordinator(t)

	m := co.SendChat(p.ID, alice, "hello there")
	assert.Equal(t, alice, m.Sender)
	assert.Equal(t, "hello there", m.Text)

	msgs, err := store.ListMessages(p.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hello there", msgs[0].Text)
	assert.Equal(t, alice.ID, msgs[0].Sender.ID)
}

func TestAgentPatchLandsBeforeDisplay(t *testing.T) {
	co, p := newCoordinator(t)

	raw := `{"text":"I created index.js for you","fileTree":{"index.js":{"file":{"contents":"console.log(1)"}}}}`
	err := co.OnIncoming(models.Message{
		ID:      "m1",
		Project: p.ID,
		Sender:  models.AgentSender,
		Text:    raw,
	})
	require.NoError(t, err)

	ft, err := co.Trees.Load(p.ID)
	require.NoError(t, err)
	require.Contains(t, ft, "index.js")
	assert.Equal(t, "console.log(1)", ft["index.js"].File.Contents)

	msgs, err := store.ListMessages(p.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "I created index.js for you", msgs[0].Text)
	assert.Equal(t, models.AgentID, msgs[0].Sender.ID)
}

func TestAgentDisplayOnlyLeavesTreeAlone(t *testing.T) {
	co, p := newCoordinator(t)
	_, err := co.Trees.WriteFile(p.ID, "keep.js", "original")
	require.NoError(t, err)

	err = co.OnIncoming(models.Message{
		ID:      "m1",
		Project: p.ID,
		Sender:  models.AgentSender,
		Text:    `{"text":"just commentary"}`,
	})
	require.NoError(t, err)

	ft, err := co.Trees.Load(p.ID)
	require.NoError(t, err)
	require.Len(t, ft, 1)
	assert.Equal(t, "original", ft["keep.js"].File.Contents)
}

func TestAgentNullTreeDoesNotWipe(t *testing.T) {
	co, p := newCoordinator(t)
	_, err := co.Trees.WriteFile(p.ID, "keep.js", "original")
	require.NoError(t, err)

	err = co.OnIncoming(models.Message{
		ID:      "m1",
		Project: p.ID,
		Sender:  models.AgentSender,
		Text:    `{"text":"nothing to save","fileTree":null}`,
	})
	require.NoError(t, err)

	ft, err := co.Trees.Load(p.ID)
	require.NoError(t, err)
	require.Contains(t, ft, "keep.js")
	assert.Equal(t, "original", ft["keep.js"].File.Contents)
}

func TestMalformedAgentPayloadStillLogged(t *testing.T) {
	co, p := newCoordinator(t)

	before, err := store.ListMessages(p.ID)
	require.NoError(t, err)

	err = co.OnIncoming(models.Message{
		ID:      "m1",
		Project: p.ID,
		Sender:  models.AgentSender,
		Text:    "not json at all",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errdefs.ErrPayloadFormat))

	// the raw text lands in the log as an opaque message
	after, err := store.ListMessages(p.ID)
	require.NoError(t, err)
	require.Len(t, after, len(before)+1)
	assert.Equal(t, "not json at all", after[len(after)-1].Text)
}

func TestAttachRequiresMembership(t *testing.T) {
	co, p := newCoordinator(t)

	_, _, err := co.Attach(p.ID, bob, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errdefs.ErrAuthorization))

	_, _, err = co.Attach("prj_missing", alice, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errdefs.ErrNotFound))
}

func TestCommitInviteClearsSelection(t *testing.T) {
	co, p := newCoordinator(t)

	sel := NewSelection()
	sel.Toggle(bob.ID)
	got, err := co.CommitInvite(p.ID, alice, sel)
	require.NoError(t, err)
	require.Len(t, got.Users, 2)
	assert.Equal(t, bob.ID, got.Users[1].ID)
	assert.Equal(t, 0, sel.Len())
}

func TestCommitInviteClearsSelectionOnFailure(t *testing.T) {
	co, p := newCoordinator(t)

	sel := NewSelection()
	sel.Toggle("u-ghost")
	_, err := co.CommitInvite(p.ID, alice, sel)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errdefs.ErrNotFound))
	assert.Equal(t, 0, sel.Len(), "selection must not carry stale state into a retry")
}

func TestSendChatInterleavingOrder(t *testing.T) {
	co, p := newCoordinator(t)

	for i := 0; i < 5; i++ {
		co.SendChat(p.ID, alice, fmt.Sprintf("a%d", i))
		co.SendChat(p.ID, bob, fmt.Sprintf("b%d", i))
	}
	msgs, err := store.ListMessages(p.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 10)
	for i := 0; i < 5; i++ {
		assert.Equal(t, fmt.Sprintf("a%d", i), msgs[2*i].Text)
		assert.Equal(t, fmt.Sprintf("b%d", i), msgs[2*i+1].Text)
	}
}
