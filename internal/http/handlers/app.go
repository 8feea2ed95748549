package handlers

import (
	"encoding/json"
	"net/http"

	"storygen/internal/domain"
	"storygen/internal/facts"
	"storygen/internal/infra"
	"storygen/internal/jobs"
	"storygen/internal/storage"
)

// App carries the dependencies every handler needs. Construct it with NewApp
// so optional collaborators get usable defaults.
type App struct {
	Store   domain.JobStore
	Catalog *facts.Catalog
	Events  *jobs.EventBus
	Files   *storage.FileStore
	Log     infra.Logger

	// StoreKind names the active job store ("memory" or "postgres") so the
	// health endpoint can report which backend mode the server runs in.
	StoreKind string
}

func NewApp(store domain.JobStore, catalog *facts.Catalog, events *jobs.EventBus, files *storage.FileStore, log infra.Logger) *App {
	if catalog == nil {
		catalog = facts.Default()
	}
	if events == nil {
		events = jobs.NewEventBus(0)
	}
	return &App{
		Store:     store,
		Catalog:   catalog,
		Events:    events,
		Files:     files,
		Log:       log,
		StoreKind: "memory",
	}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, errorBody{Code: code, Error: message})
}
