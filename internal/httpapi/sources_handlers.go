package httpapi

import (
	"net/http"

	"leadscout-engine/internal/quota"
)

type SourcesHandler struct {
	Registry *quota.Registry
}

// Status exposes per-provider availability and quota plus the session
// provider-vs-scrape split and estimated savings.
func (h SourcesHandler) Status(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.Registry.Snapshot())
}
