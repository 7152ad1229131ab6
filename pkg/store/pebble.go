// Package store is the durable persistence collaborator backing projects,
// users, file-tree snapshots and the append-only chat log. Values are JSON
// under prefixed keys in a single Pebble database.
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/pebble"

	"vagentd/pkg/errdefs"
	"vagentd/pkg/logger"
	"vagentd/pkg/models"
)

var db *pebble.DB

// seq reduces key collisions when multiple messages share the same
// nanosecond timestamp.
var seq uint64

// Open opens (or creates) a Pebble database at the given path and keeps a
// package-level handle.
func Open(path string) error {
	var err error
	db, err = pebble.Open(path, &pebble.Options{})
	if err != nil {
		logger.Error("pebble_open_failed", "path", path, "error", err)
		return err
	}
	logger.Info("pebble_opened", "path", path)
	return nil
}

// Close closes the opened pebble DB if present.
func Close() error {
	if db == nil {
		return nil
	}
	if err := db.Close(); err != nil {
		return err
	}
	db = nil
	logger.Info("pebble_closed")
	return nil
}

// Ready reports whether the store is opened and ready.
func Ready() bool {
	return db != nil
}

func projectKey(id string) []byte  { return []byte("project:" + id + ":meta") }
func treeKey(id string) []byte     { return []byte("project:" + id + ":tree") }
func msgPrefix(id string) []byte   { return []byte("project:" + id + ":msg:") }
func userKey(id string) []byte     { return []byte("user:" + id) }

func get(key []byte) ([]byte, error) {
	if db == nil {
		return nil, fmt.Errorf("pebble not opened; call store.Open first")
	}
	v, closer, err := db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, errdefs.NotFoundf("key %s", key)
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	return append([]byte(nil), v...), nil
}

func set(key, value []byte) error {
	if db == nil {
		return fmt.Errorf("pebble not opened; call store.Open first")
	}
	return db.Set(key, value, pebble.Sync)
}

// SaveProject stores the project roster record.
func SaveProject(p models.Project) error {
	b, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal project: %w", err)
	}
	if err := set(projectKey(p.ID), b); err != nil {
		logger.Error("save_project_failed", "project", p.ID, "error", err)
		return err
	}
	logger.Debug("project_saved", "project", p.ID, "users", len(p.Users))
	return nil
}

// GetProject returns the stored project or ErrNotFound.
func GetProject(id string) (models.Project, error) {
	var p models.Project
	v, err := get(projectKey(id))
	if err != nil {
		return p, err
	}
	if err := json.Unmarshal(v, &p); err != nil {
		return p, fmt.Errorf("invalid project record %s: %w", id, err)
	}
	return p, nil
}

// ListProjects returns all stored projects.
func ListProjects() ([]models.Project, error) {
	if db == nil {
		return nil, fmt.Errorf("pebble not opened; call store.Open first")
	}
	prefix := []byte("project:")
	iter, err := db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, err
	}
	defer iter.Close()
	var out []models.Project
	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), prefix) {
			break
		}
		if !strings.HasSuffix(string(iter.Key()), ":meta") {
			continue
		}
		var p models.Project
		if err := json.Unmarshal(iter.Value(), &p); err != nil {
			continue
		}
		out = append(out, p)
	}
	return out, iter.Error()
}

// SaveUser registers an invite candidate identity. The agent sentinel id is
// reserved and rejected.
func SaveUser(u models.Participant) error {
	if u.ID == models.AgentID {
		return errdefs.Invariantf("user id %q is reserved", u.ID)
	}
	b, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	return set(userKey(u.ID), b)
}

// GetUser returns the stored user or ErrNotFound.
func GetUser(id string) (models.Participant, error) {
	var u models.Participant
	v, err := get(userKey(id))
	if err != nil {
		return u, err
	}
	if err := json.Unmarshal(v, &u); err != nil {
		return u, fmt.Errorf("invalid user record %s: %w", id, err)
	}
	return u, nil
}

// ListUsers returns all registered users, the invite-candidate pool.
func ListUsers() ([]models.Participant, error) {
	if db == nil {
		return nil, fmt.Errorf("pebble not opened; call store.Open first")
	}
	prefix := []byte("user:")
	iter, err := db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, err
	}
	defer iter.Close()
	var out []models.Participant
	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), prefix) {
			break
		}
		var u models.Participant
		if err := json.Unmarshal(iter.Value(), &u); err != nil {
			continue
		}
		out = append(out, u)
	}
	return out, iter.Error()
}

// SaveFileTree persists the complete file-tree snapshot for a project.
// The previous snapshot is replaced wholesale; there is no per-path diffing.
func SaveFileTree(projectID string, t models.FileTree) error {
	b, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal file tree: %w", err)
	}
	if err := set(treeKey(projectID), b); err != nil {
		logger.Error("save_file_tree_failed", "project", projectID, "error", err)
		return err
	}
	logger.Debug("file_tree_saved", "project", projectID, "files", len(t))
	return nil
}

// GetFileTree returns the persisted snapshot, or an empty tree if none
// exists yet.
func GetFileTree(projectID string) (models.FileTree, error) {
	v, err := get(treeKey(projectID))
	if errors.Is(err, errdefs.ErrNotFound) {
		return models.FileTree{}, nil
	}
	if err != nil {
		return nil, err
	}
	var t models.FileTree
	if err := json.Unmarshal(v, &t); err != nil {
		return nil, fmt.Errorf("invalid file tree record %s: %w", projectID, err)
	}
	if t == nil {
		t = models.FileTree{}
	}
	return t, nil
}

// AppendMessage appends a chat message to the project's durable log. The
// key carries a sortable timestamp so iteration yields insertion order.
func AppendMessage(projectID string, m models.Message) error {
	ts := m.TS
	if ts == 0 {
		ts = time.Now().UTC().UnixNano()
	}
	s := atomic.AddUint64(&seq, 1)
	key := fmt.Sprintf("project:%s:msg:%020d-%06d", projectID, ts, s)
	b, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := set([]byte(key), b); err != nil {
		logger.Error("append_message_failed", "project", projectID, "key", key, "error", err)
		return err
	}
	return nil
}

// ListMessages returns a project's chat log in insertion order. An optional
// limit keeps only the most recent entries.
func ListMessages(projectID string, limit ...int) ([]models.Message, error) {
	if db == nil {
		return nil, fmt.Errorf("pebble not opened; call store.Open first")
	}
	prefix := msgPrefix(projectID)
	iter, err := db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, err
	}
	defer iter.Close()
	var out []models.Message
	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), prefix) {
			break
		}
		var m models.Message
		if err := json.Unmarshal(iter.Value(), &m); err != nil {
			continue
		}
		out = append(out, m)
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}
	if len(limit) > 0 && limit[0] > 0 && limit[0] < len(out) {
		out = out[len(out)-limit[0]:]
	}
	return out, nil
}

// PruneMessagesBefore deletes chat-log entries older than cutoff (unix ns)
// for a project and returns how many were removed. Used by the retention
// janitor only; nothing in-session calls this.
func PruneMessagesBefore(projectID string, cutoff int64) (int, error) {
	if db == nil {
		return 0, fmt.Errorf("pebble not opened; call store.Open first")
	}
	prefix := msgPrefix(projectID)
	iter, err := db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return 0, err
	}
	defer iter.Close()
	var victims [][]byte
	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), prefix) {
			break
		}
		rest := string(iter.Key()[len(prefix):])
		tsPart, _, _ := strings.Cut(rest, "-")
		var ts int64
		if _, err := fmt.Sscanf(tsPart, "%d", &ts); err != nil {
			continue
		}
		if ts >= cutoff {
			break
		}
		victims = append(victims, append([]byte(nil), iter.Key()...))
	}
	if err := iter.Error(); err != nil {
		return 0, err
	}
	for _, k := range victims {
		if err := db.Delete(k, pebble.Sync); err != nil {
			return len(victims), err
		}
	}
	if len(victims) > 0 {
		logger.Info("messages_pruned", "project", projectID, "count", len(victims))
	}
	return len(victims), nil
}
