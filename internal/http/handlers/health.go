package handlers

import (
	"net/http"
)

// Health reports liveness plus which job store backs the server, so a client
// author can tell at a glance whether queued jobs survive a restart.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{
		"status": "ok",
		"store":  a.StoreKind,
	})
}
