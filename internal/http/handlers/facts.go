package handlers

import (
	"net/http"
	"strconv"

	"storygen/internal/facts"
	"storygen/internal/middleware"
)

// Facts serves the waiting trivia for a prompt in the request locale. The
// content is cosmetic: clients keep generating even when this list is empty,
// so the handler never fails a well-formed request.
func (a *App) Facts(w http.ResponseWriter, r *http.Request) {
	prompt := r.URL.Query().Get("prompt")
	locale := middleware.LocaleFromContext(r.Context())

	limit := facts.DefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			a.error(w, http.StatusBadRequest, "bad_request", "limit must be a positive integer")
			return
		}
		if parsed < limit {
			limit = parsed
		}
	}

	list := a.Catalog.FactsFor(prompt, locale, limit)
	a.json(w, http.StatusOK, map[string]any{"facts": list})
}
