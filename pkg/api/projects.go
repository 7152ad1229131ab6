package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"vagentd/pkg/auth"
	"vagentd/pkg/errdefs"
	"vagentd/pkg/models"
	"vagentd/pkg/session"
	"vagentd/pkg/store"
	"vagentd/pkg/utils"
)

// createProject handles POST /projects/create. The authenticated requester
// becomes the project creator, roster position 0.
func (a *API) createProject(w http.ResponseWriter, r *http.Request) {
	ident := auth.IdentityFromContext(r.Context())
	p, err := a.co.Roster.Create(ident)
	if err != nil {
		writeErr(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusCreated, struct {
		Project models.Project `json:"project"`
	}{Project: p})
}

// getProject handles GET /projects/get-project/{id}: the roster plus the
// current file-tree snapshot. Only participants may read a project.
func (a *API) getProject(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	ident := auth.IdentityFromContext(r.Context())

	p, err := a.co.Roster.Get(id)
	if err != nil {
		writeErr(w, err)
		return
	}
	if !p.Has(ident.ID) {
		writeErr(w, errdefs.Authorizationf("user %s is not a participant of %s", ident.ID, id))
		return
	}
	ft, err := a.co.Trees.Load(id)
	if err != nil {
		writeErr(w, err)
		return
	}
	p.FileTree = ft
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		Project models.Project `json:"project"`
	}{Project: p})
}

// addUser handles PUT /projects/add-user. The body carries the committed
// invite selection; duplicates are ignored, any participant may invite.
func (a *API) addUser(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ProjectID string   `json:"projectId"`
		Users     []string `json:"users"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	ident := auth.IdentityFromContext(r.Context())

	sel := session.NewSelection()
	for _, id := range body.Users {
		sel.Add(id)
	}
	p, err := a.co.CommitInvite(body.ProjectID, ident, sel)
	if err != nil {
		writeErr(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		Project models.Project `json:"project"`
	}{Project: p})
}

// removeUser handles PUT /projects/remove-user. Creator only.
func (a *API) removeUser(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ProjectID    string `json:"projectId"`
		UserToRemove string `json:"userToRemove"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	ident := auth.IdentityFromContext(r.Context())

	p, err := a.co.Roster.RemoveParticipant(body.ProjectID, ident.ID, body.UserToRemove)
	if err != nil {
		writeErr(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		Project models.Project `json:"project"`
	}{Project: p})
}

// leaveProject handles PUT /projects/leave-project. A 200 response is the
// client's signal to navigate away from the session.
func (a *API) leaveProject(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ProjectID string `json:"projectId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	ident := auth.IdentityFromContext(r.Context())

	p, err := a.co.Roster.Leave(body.ProjectID, ident.ID)
	if err != nil {
		writeErr(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		Left    bool           `json:"left"`
		Project models.Project `json:"project"`
	}{Left: true, Project: p})
}

// listMessages handles GET /projects/{id}/messages, the durable chat log.
// The room itself never replays history; this is a pull-only view.
func (a *API) listMessages(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	ident := auth.IdentityFromContext(r.Context())

	p, err := a.co.Roster.Get(id)
	if err != nil {
		writeErr(w, err)
		return
	}
	if !p.Has(ident.ID) {
		writeErr(w, errdefs.Authorizationf("user %s is not a participant of %s", ident.ID, id))
		return
	}
	msgs, err := store.ListMessages(id)
	if err != nil {
		writeErr(w, err)
		return
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		Messages []models.Message `json:"messages"`
	}{Messages: msgs})
}
