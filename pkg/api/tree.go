package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"vagentd/pkg/auth"
	"vagentd/pkg/errdefs"
	"vagentd/pkg/models"
	"vagentd/pkg/utils"
)

// updateFileTree handles PUT /projects/update-file-tree. The body carries
// the complete snapshot that must become canonical; last writer wins. A
// failed durable write does not reject the edit: the response then carries
// a warning and the in-memory snapshot stays moved forward.
func (a *API) updateFileTree(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ProjectID string          `json:"projectId"`
		FileTree  models.FileTree `json:"fileTree"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	ident := auth.IdentityFromContext(r.Context())

	p, err := a.co.Roster.Get(body.ProjectID)
	if err != nil {
		writeErr(w, err)
		return
	}
	if !p.Has(ident.ID) {
		writeErr(w, errdefs.Authorizationf("user %s is not a participant of %s", ident.ID, body.ProjectID))
		return
	}

	ft, err := a.co.Trees.Replace(body.ProjectID, body.FileTree, "user")
	if err != nil && !errors.Is(err, errdefs.ErrPersistence) {
		writeErr(w, err)
		return
	}
	resp := struct {
		FileTree models.FileTree `json:"fileTree"`
		Warning  string          `json:"warning,omitempty"`
	}{FileTree: ft}
	if err != nil {
		resp.Warning = err.Error()
	}
	_ = utils.JSONWrite(w, http.StatusOK, resp)
}
