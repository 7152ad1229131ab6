package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"vagentd/pkg/auth"
	"vagentd/pkg/logger"
)

// attach handles GET /ws/projects/{id}: upgrades the connection, wires it
// into the project room and pumps inbound chat until the client goes away.
// The coordinator enqueues the state bundle as the connection's first
// frame. A dropped connection detaches silently; events published while it
// was gone are simply missed.
func (a *API) attach(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["id"]
	ident := auth.IdentityFromContext(r.Context())

	ws, err := a.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("ws_upgrade_failed", "project", projectID, "error", err)
		return
	}

	conn, _, err := a.co.Attach(projectID, ident, ws)
	if err != nil {
		// the upgrade already happened; report on the socket and drop
		_ = ws.WriteJSON(map[string]string{"type": "error", "error": err.Error()})
		_ = ws.Close()
		return
	}
	defer a.co.Hub.Leave(projectID, conn)

	for {
		var in struct {
			Text string `json:"text"`
		}
		if err := conn.ReadJSON(&in); err != nil {
			logger.Debug("ws_read_closed", "project", projectID, "user", ident.ID, "error", err)
			return
		}
		select {
		case <-conn.Done():
			return
		default:
		}
		if in.Text == "" {
			continue
		}
		a.co.SendChat(projectID, ident, in.Text)
	}
}
