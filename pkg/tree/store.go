// Package tree owns the canonical per-project file snapshot. Every write
// replaces the whole document: when a local edit and an agent patch race,
// whichever reaches the store last wins entirely. There is no locking finer
// than the snapshot swap and no versioning; whole-document replacement is
// what makes that tolerable (staleness is possible, field-level corruption
// is not).
package tree

import (
	"errors"
	"sync"

	"vagentd/pkg/errdefs"
	"vagentd/pkg/logger"
	"vagentd/pkg/models"
	"vagentd/pkg/store"
	"vagentd/pkg/telemetry"
)

// Store holds the in-memory canonical snapshots and writes each accepted
// snapshot through to the durable collaborator. A failed durable write is
// reported but never rolls the in-memory snapshot back: the local view
// always reflects the most recent accepted edit.
type Store struct {
	mu    sync.Mutex
	trees map[string]models.FileTree
}

// NewStore returns an empty tree store.
func NewStore() *Store {
	return &Store{trees: make(map[string]models.FileTree)}
}

// Load returns the current snapshot for a project, an empty tree if none
// exists yet. The first load faults the persisted snapshot into memory.
func (s *Store) Load(projectID string) (models.FileTree, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.trees[projectID]; ok {
		return t.Clone(), nil
	}
	t, err := store.GetFileTree(projectID)
	if err != nil {
		return nil, err
	}
	s.trees[projectID] = t
	return t.Clone(), nil
}

// WriteFile sets path to contents in a new snapshot equal to the current
// one, marks it canonical and submits the entire snapshot to the durable
// store. The returned error, if any, wraps ErrPersistence and is a warning:
// the in-memory snapshot has already moved forward.
func (s *Store) WriteFile(projectID, path, contents string) (models.FileTree, error) {
	s.mu.Lock()
	cur, ok := s.trees[projectID]
	if !ok {
		loaded, err := store.GetFileTree(projectID)
		if err != nil {
			s.mu.Unlock()
			return nil, err
		}
		cur = loaded
	}
	next := cur.Clone()
	next[path] = models.NewFileNode(contents)
	s.trees[projectID] = next
	snapshot := next.Clone()
	s.mu.Unlock()

	return snapshot, s.persist(projectID, snapshot)
}

// Replace installs snapshot as the complete canonical tree. This is the
// path agent patches take and also backs whole-tree saves from clients; it
// can overwrite concurrent edits not reflected in the snapshot's source,
// which is the accepted conflict policy.
func (s *Store) Replace(projectID string, snapshot models.FileTree, source string) (models.FileTree, error) {
	if snapshot == nil {
		snapshot = models.FileTree{}
	}
	next := snapshot.Clone()
	s.mu.Lock()
	s.trees[projectID] = next
	out := next.Clone()
	s.mu.Unlock()

	logger.Debug("file_tree_replaced", "project", projectID, "files", len(out), "source", source)
	return out, s.persist(projectID, out)
}

func (s *Store) persist(projectID string, snapshot models.FileTree) error {
	if err := store.SaveFileTree(projectID, snapshot); err != nil {
		telemetry.PersistFailures.Inc()
		logger.Warn("file_tree_persist_failed", "project", projectID, "error", err)
		if errors.Is(err, errdefs.ErrPersistence) {
			return err
		}
		return errdefs.Persistencef("file tree for %s: %v", projectID, err)
	}
	return nil
}
