package httpapi

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strings"

	"leadscout-engine/internal/domain"
	"leadscout-engine/internal/job"
	"leadscout-engine/internal/store"
)

type JobsHandler struct {
	DB   *sql.DB
	Jobs *job.Manager
}

func (h JobsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req job.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "validation", "invalid JSON: "+err.Error())
		return
	}

	j, err := h.Jobs.Create(r.Context(), req)
	if err != nil {
		WriteKindError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]any{
		"jobId":    j.ID,
		"priority": j.Priority,
	})
}

type jobStatusResponse struct {
	ID           string          `json:"id"`
	Status       string          `json:"status"`
	Progress     int             `json:"progress"`
	Message      string          `json:"message"`
	Query        string          `json:"query"`
	Location     string          `json:"location,omitempty"`
	TargetCount  int             `json:"targetCount"`
	CurrentCount int             `json:"currentCount"`
	Results      *jobResults     `json:"results,omitempty"`
}

type jobResults struct {
	Total      int               `json:"total"`
	WithEmail  int               `json:"withEmail"`
	Verified   int               `json:"verified"`
	Businesses []domain.Business `json:"businesses"`
}

func (h JobsHandler) Status(w http.ResponseWriter, r *http.Request) {
	id := jobIDFromPath(r.URL.Path)
	j, err := h.Jobs.Get(r.Context(), id)
	if err != nil {
		WriteKindError(w, r, err)
		return
	}

	resp := jobStatusResponse{
		ID:          j.ID,
		Status:      string(j.Status),
		Progress:    j.Progress,
		Message:     j.Message,
		Query:       j.Query,
		Location:    j.Location,
		TargetCount: j.TargetCount,
	}

	if j.Status == domain.JobRunning || j.Status == domain.JobCompleted {
		counts, err := store.CountBusinesses(r.Context(), h.DB, j.ID)
		if err != nil {
			WriteKindError(w, r, err)
			return
		}
		businesses, err := store.ListBusinessesAfter(r.Context(), h.DB, j.ID, 0)
		if err != nil {
			WriteKindError(w, r, err)
			return
		}
		if businesses == nil {
			businesses = []domain.Business{}
		}
		resp.CurrentCount = counts.Total
		resp.Results = &jobResults{
			Total:      counts.Total,
			WithEmail:  counts.WithEmail,
			Verified:   counts.Verified,
			Businesses: businesses,
		}
	}

	WriteJSON(w, http.StatusOK, resp)
}

// Cancel always reports acceptance; cancellation lands asynchronously and
// may lose the race with completion.
func (h JobsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id := jobIDFromPath(r.URL.Path)
	if err := h.Jobs.Cancel(r.Context(), id); err != nil {
		WriteKindError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusAccepted, map[string]any{"ok": true, "accepted": true, "jobId": id})
}

// jobIDFromPath extracts the id from /jobs/{id}[/suffix].
func jobIDFromPath(path string) string {
	rest := strings.TrimPrefix(path, "/jobs/")
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		rest = rest[:i]
	}
	return strings.TrimSpace(rest)
}
