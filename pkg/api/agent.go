package api

import (
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"vagentd/pkg/auth"
	"vagentd/pkg/errdefs"
	"vagentd/pkg/models"
	"vagentd/pkg/utils"
)

// maxAgentPayload bounds a single agent ingress body.
const maxAgentPayload = 4 << 20

// agentMessage handles POST /projects/{id}/agent-message: the ingress for
// the automated participant's structured payload. The body is the raw
// payload; interpretation and any tree patch happen before the display
// text reaches the room. A malformed payload is still recorded and
// broadcast as opaque text, so the response is 400 but the session is
// unaffected.
func (a *API) agentMessage(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["id"]
	ident := auth.IdentityFromContext(r.Context())

	p, err := a.co.Roster.Get(projectID)
	if err != nil {
		writeErr(w, err)
		return
	}
	if !p.Has(ident.ID) {
		writeErr(w, errdefs.Authorizationf("user %s is not a participant of %s", ident.ID, projectID))
		return
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxAgentPayload))
	if err != nil {
		utils.JSONError(w, http.StatusBadRequest, "read body failed")
		return
	}

	m := models.Message{
		ID:      utils.GenID(),
		Project: projectID,
		Sender:  models.AgentSender,
		Text:    string(raw),
		TS:      time.Now().UTC().UnixNano(),
	}
	if err := a.co.OnIncoming(m); err != nil {
		writeErr(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusAccepted, struct {
		Status string `json:"status"`
	}{Status: "accepted"})
}
