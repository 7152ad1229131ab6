// Package api exposes the participant-facing HTTP surface: REST routes for
// roster and file-tree operations, the WebSocket attach point, and the
// agent ingress. Routes mirror the paths the bundled frontend calls.
package api

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"vagentd/pkg/errdefs"
	"vagentd/pkg/session"
	"vagentd/pkg/utils"
)

// API holds the handler dependencies.
type API struct {
	co       *session.Coordinator
	upgrader websocket.Upgrader
}

// New returns an API over the coordinator.
func New(co *session.Coordinator) *API {
	return &API{
		co: co,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// origin policy is enforced by the auth middleware
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Register mounts all routes on the provided router.
func (a *API) Register(r *mux.Router) {
	r.HandleFunc("/projects/create", a.createProject).Methods(http.MethodPost)
	r.HandleFunc("/projects/get-project/{id}", a.getProject).Methods(http.MethodGet)
	r.HandleFunc("/projects/add-user", a.addUser).Methods(http.MethodPut)
	r.HandleFunc("/projects/remove-user", a.removeUser).Methods(http.MethodPut)
	r.HandleFunc("/projects/leave-project", a.leaveProject).Methods(http.MethodPut)
	r.HandleFunc("/projects/update-file-tree", a.updateFileTree).Methods(http.MethodPut)
	r.HandleFunc("/projects/{id}/messages", a.listMessages).Methods(http.MethodGet)
	r.HandleFunc("/projects/{id}/agent-message", a.agentMessage).Methods(http.MethodPost)
	r.HandleFunc("/users/all", a.listUsers).Methods(http.MethodGet)
	r.HandleFunc("/users/sync", a.syncUser).Methods(http.MethodPost)
	r.HandleFunc("/ws/projects/{id}", a.attach).Methods(http.MethodGet)
}

// writeErr maps the error taxonomy onto HTTP statuses.
func writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errdefs.ErrAuthorization):
		utils.JSONError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, errdefs.ErrInvariant):
		utils.JSONError(w, http.StatusConflict, err.Error())
	case errors.Is(err, errdefs.ErrNotFound):
		utils.JSONError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, errdefs.ErrPayloadFormat):
		utils.JSONError(w, http.StatusBadRequest, err.Error())
	default:
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
	}
}
