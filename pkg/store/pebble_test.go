package store

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"vagentd/pkg/errdefs"
	"vagentd/pkg/models"
)

func openTemp(t *testing.T) {
	t.Helper()
	if err := Open(filepath.Join(t.TempDir(), "db")); err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = Close() })
}

func TestProjectRoundTrip(t *testing.T) {
	openTemp(t)
	p := models.Project{
		ID: "prj_abc",
		Users: []models.Participant{
			{ID: "u1", Email: "u1@example.com"},
			{ID: "u2", Email: "u2@example.com"},
		},
		CreatedTS: 100,
		UpdatedTS: 200,
	}
	if err := SaveProject(p); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := GetProject("prj_abc")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Users) != 2 || got.Users[0].ID != "u1" || !got.IsCreator("u1") {
		t.Fatalf("unexpected project: %+v", got)
	}
}

func TestGetProjectMissing(t *testing.T) {
	openTemp(t)
	if _, err := GetProject("prj_nope"); !errors.Is(err, errdefs.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestSaveUserRejectsAgentID(t *testing.T) {
	openTemp(t)
	err := SaveUser(models.Participant{ID: models.AgentID, Email: "fake@example.com"})
	if !errors.Is(err, errdefs.ErrInvariant) {
		t.Fatalf("want ErrInvariant, got %v", err)
	}
	if _, err := GetUser(models.AgentID); !errors.Is(err, errdefs.ErrNotFound) {
		t.Fatalf("reserved id must not be stored, got %v", err)
	}
}

func TestListUsers(t *testing.T) {
	openTemp(t)
	for i := 0; i < 3; i++ {
		u := models.Participant{ID: fmt.Sprintf("u%d", i), Email: fmt.Sprintf("u%d@example.com", i)}
		if err := SaveUser(u); err != nil {
			t.Fatalf("save user: %v", err)
		}
	}
	users, err := ListUsers()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(users) != 3 {
		t.Fatalf("want 3 users, got %d", len(users))
	}
}

func TestFileTreeMissingIsEmpty(t *testing.T) {
	openTemp(t)
	ft, err := GetFileTree("prj_new")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ft == nil || len(ft) != 0 {
		t.Fatalf("want empty tree, got %v", ft)
	}
}

func TestFileTreeReplacedWholesale(t *testing.T) {
	openTemp(t)
	first := models.FileTree{
		"a.js": models.NewFileNode("aaa"),
		"b.js": models.NewFileNode("bbb"),
	}
	if err := SaveFileTree("prj_t", first); err != nil {
		t.Fatalf("save: %v", err)
	}
	second := models.FileTree{"c.js": models.NewFileNode("ccc")}
	if err := SaveFileTree("prj_t", second); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := GetFileTree("prj_t")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("old snapshot leaked through: %v", got)
	}
	if got["c.js"].File == nil || got["c.js"].File.Contents != "ccc" {
		t.Fatalf("unexpected node: %+v", got["c.js"])
	}
}

func TestMessagesKeepInsertionOrder(t *testing.T) {
	openTemp(t)
	for i := 0; i < 10; i++ {
		m := models.Message{
			ID:      fmt.Sprintf("m%d", i),
			Project: "prj_log",
			Sender:  models.Participant{ID: "u1"},
			Text:    fmt.Sprintf("msg %d", i),
			TS:      int64(1000 + i),
		}
		if err := AppendMessage("prj_log", m); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	msgs, err := ListMessages("prj_log")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(msgs) != 10 {
		t.Fatalf("want 10, got %d", len(msgs))
	}
	for i, m := range msgs {
		if m.ID != fmt.Sprintf("m%d", i) {
			t.Fatalf("order broken at %d: %s", i, m.ID)
		}
	}
}

func TestListMessagesLimitKeepsTail(t *testing.T) {
	openTemp(t)
	for i := 0; i < 5; i++ {
		m := models.Message{ID: fmt.Sprintf("m%d", i), Project: "prj_lim", TS: int64(1000 + i)}
		if err := AppendMessage("prj_lim", m); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	msgs, err := ListMessages("prj_lim", 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(msgs) != 2 || msgs[0].ID != "m3" || msgs[1].ID != "m4" {
		t.Fatalf("want last two, got %+v", msgs)
	}
}

func TestMessageLogsAreIsolated(t *testing.T) {
	openTemp(t)
	if err := AppendMessage("prj_x", models.Message{ID: "mx", Project: "prj_x", TS: 1}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := AppendMessage("prj_y", models.Message{ID: "my", Project: "prj_y", TS: 1}); err != nil {
		t.Fatalf("append: %v", err)
	}
	msgs, err := ListMessages("prj_x")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(msgs) != 1 || msgs[0].ID != "mx" {
		t.Fatalf("cross-project leak: %+v", msgs)
	}
}

func TestPruneMessagesBefore(t *testing.T) {
	openTemp(t)
	for i := 0; i < 6; i++ {
		m := models.Message{ID: fmt.Sprintf("m%d", i), Project: "prj_pr", TS: int64((i + 1) * 100)}
		if err := AppendMessage("prj_pr", m); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	n, err := PruneMessagesBefore("prj_pr", 400)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if n != 3 {
		t.Fatalf("want 3 pruned, got %d", n)
	}
	msgs, err := ListMessages("prj_pr")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(msgs) != 3 || msgs[0].ID != "m3" {
		t.Fatalf("unexpected survivors: %+v", msgs)
	}
}

func TestListProjects(t *testing.T) {
	openTemp(t)
	for i := 0; i < 2; i++ {
		p := models.Project{ID: fmt.Sprintf("prj_%d", i), Users: []models.Participant{{ID: "u1"}}}
		if err := SaveProject(p); err != nil {
			t.Fatalf("save: %v", err)
		}
	}
	// a tree record under the same prefix must not be mistaken for a project
	if err := SaveFileTree("prj_0", models.FileTree{}); err != nil {
		t.Fatalf("save tree: %v", err)
	}
	ps, err := ListProjects()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(ps) != 2 {
		t.Fatalf("want 2 projects, got %d", len(ps))
	}
}
