// Package roster owns project membership. The participant list is ordered
// by join time and never reordered, so the creator is always index 0. Any
// current participant may invite; only the creator may remove, and the
// creator can neither be removed nor leave. Every successful mutation
// broadcasts the updated project on the room so attached clients converge.
package roster

import (
	"time"

	"vagentd/pkg/errdefs"
	"vagentd/pkg/logger"
	"vagentd/pkg/models"
	"vagentd/pkg/room"
	"vagentd/pkg/store"
	"vagentd/pkg/telemetry"
	"vagentd/pkg/utils"
)

// Manager mutates project rosters with authorization checks and announces
// the results on the project room.
type Manager struct {
	hub *room.Hub
}

// New returns a manager broadcasting on hub.
func New(hub *room.Hub) *Manager {
	return &Manager{hub: hub}
}

// Create makes a new project with creator as its sole participant.
func (m *Manager) Create(creator models.Participant) (models.Project, error) {
	now := time.Now().UTC().UnixNano()
	p := models.Project{
		ID:        utils.GenProjectID(),
		Users:     []models.Participant{creator},
		CreatedTS: now,
		UpdatedTS: now,
	}
	if err := store.SaveProject(p); err != nil {
		return models.Project{}, err
	}
	telemetry.RosterMutations.WithLabelValues("create").Inc()
	logger.Info("project_created", "project", p.ID, "creator", p.Creator().ID)
	return p, nil
}

// Get returns the stored project.
func (m *Manager) Get(projectID string) (models.Project, error) {
	return store.GetProject(projectID)
}

// AddParticipants appends each candidate not already present, preserving
// existing order. Duplicates are silently ignored, so repeats are
// idempotent. Any current participant may invite; this is deliberately
// more permissive than removal.
func (m *Manager) AddParticipants(projectID, requesterID string, candidateIDs []string) (models.Project, error) {
	p, err := store.GetProject(projectID)
	if err != nil {
		return models.Project{}, err
	}
	if !p.Has(requesterID) {
		return models.Project{}, errdefs.Authorizationf("user %s is not a participant of %s", requesterID, projectID)
	}

	// resolve all candidates before mutating anything; an id repeated
	// within the batch joins once
	var joiners []models.Participant
	seen := make(map[string]struct{}, len(candidateIDs))
	for _, id := range candidateIDs {
		if p.Has(id) {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		u, err := store.GetUser(id)
		if err != nil {
			return models.Project{}, err
		}
		seen[id] = struct{}{}
		joiners = append(joiners, u)
	}
	if len(joiners) == 0 {
		return p, nil
	}

	p.Users = append(p.Users, joiners...)
	p.UpdatedTS = time.Now().UTC().UnixNano()
	if err := store.SaveProject(p); err != nil {
		return models.Project{}, err
	}
	telemetry.RosterMutations.WithLabelValues("add").Inc()
	logger.Info("participants_added", "project", projectID, "by", requesterID, "count", len(joiners))
	m.broadcast(p)
	return p, nil
}

// RemoveParticipant removes targetID from the roster. Preconditions are
// checked in order: the requester must be the creator, the target must not
// be the creator, and the target must currently be a participant.
func (m *Manager) RemoveParticipant(projectID, requesterID, targetID string) (models.Project, error) {
	p, err := store.GetProject(projectID)
	if err != nil {
		return models.Project{}, err
	}
	if !p.IsCreator(requesterID) {
		return models.Project{}, errdefs.Authorizationf("only the creator (%s) may remove participants", p.Creator().ID)
	}
	if p.IsCreator(targetID) {
		return models.Project{}, errdefs.Invariantf("the creator cannot be removed")
	}
	if !p.Has(targetID) {
		return models.Project{}, errdefs.NotFoundf("user %s is not a participant of %s", targetID, projectID)
	}

	p.Users = removeByID(p.Users, targetID)
	p.UpdatedTS = time.Now().UTC().UnixNano()
	if err := store.SaveProject(p); err != nil {
		return models.Project{}, err
	}
	telemetry.RosterMutations.WithLabelValues("remove").Inc()
	logger.Info("participant_removed", "project", projectID, "by", requesterID, "target", targetID)
	m.broadcast(p)
	return p, nil
}

// Leave removes the requester from the roster. The creator cannot leave
// through this path; vacating a creator is not supported.
func (m *Manager) Leave(projectID, requesterID string) (models.Project, error) {
	p, err := store.GetProject(projectID)
	if err != nil {
		return models.Project{}, err
	}
	if p.IsCreator(requesterID) {
		return models.Project{}, errdefs.Invariantf("the creator cannot leave the project")
	}
	if !p.Has(requesterID) {
		return models.Project{}, errdefs.NotFoundf("user %s is not a participant of %s", requesterID, projectID)
	}

	p.Users = removeByID(p.Users, requesterID)
	p.UpdatedTS = time.Now().UTC().UnixNano()
	if err := store.SaveProject(p); err != nil {
		return models.Project{}, err
	}
	telemetry.RosterMutations.WithLabelValues("leave").Inc()
	logger.Info("participant_left", "project", projectID, "user", requesterID)
	m.broadcast(p)
	return p, nil
}

func (m *Manager) broadcast(p models.Project) {
	if m.hub == nil {
		return
	}
	proj := p
	m.hub.Publish(p.ID, models.Event{
		Type:    models.EventRoster,
		Project: &proj,
		TS:      time.Now().UTC().UnixNano(),
	})
}

func removeByID(users []models.Participant, id string) []models.Participant {
	out := make([]models.Participant, 0, len(users))
	for _, u := range users {
		if u.ID == id {
			continue
		}
		out = append(out, u)
	}
	return out
}
