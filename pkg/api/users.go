package api

import (
	"net/http"

	"vagentd/pkg/auth"
	"vagentd/pkg/models"
	"vagentd/pkg/store"
	"vagentd/pkg/utils"
)

// listUsers handles GET /users/all, the invite candidate pool.
func (a *API) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := store.ListUsers()
	if err != nil {
		writeErr(w, err)
		return
	}
	if users == nil {
		users = []models.Participant{}
	}
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		Users []models.Participant `json:"users"`
	}{Users: users})
}

// syncUser handles POST /users/sync: the identity collaborator (or the
// client on first login) registers the authenticated identity so it shows
// up as an invite candidate. Idempotent.
func (a *API) syncUser(w http.ResponseWriter, r *http.Request) {
	ident := auth.IdentityFromContext(r.Context())
	if err := store.SaveUser(ident); err != nil {
		writeErr(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		User models.Participant `json:"user"`
	}{User: ident})
}
