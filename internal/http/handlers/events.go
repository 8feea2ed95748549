package handlers

import (
	"net/http"
	"strconv"

	"storygen/internal/jobs"
)

// Events exposes the recent job transition log so client authors can line up
// what their poll loop observed with what the backend actually did. The
// since parameter makes reads incremental: pass the last seq already seen.
func (a *App) JobEvents(w http.ResponseWriter, r *http.Request) {
	var since int64
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 0 {
			a.error(w, http.StatusBadRequest, "bad_request", "since must be a non-negative integer")
			return
		}
		since = parsed
	}

	list := a.Events.Since(since)
	if list == nil {
		list = []jobs.Event{}
	}
	next := since
	if len(list) > 0 {
		next = list[len(list)-1].Seq
	}
	a.json(w, http.StatusOK, map[string]any{"events": list, "next_since": next})
}
