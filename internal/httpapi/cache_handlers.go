package httpapi

import (
	"encoding/json"
	"net/http"

	"leadscout-engine/internal/cache"
)

type CacheHandler struct {
	Cache     *cache.Layer
	RunSearch cache.RunSearch
}

type cacheControlReq struct {
	Action     string `json:"action"` // warm | maintain
	MaxQueries int    `json:"maxQueries,omitempty"`
}

func (h CacheHandler) Control(w http.ResponseWriter, r *http.Request) {
	var req cacheControlReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "validation", "invalid JSON: "+err.Error())
		return
	}

	switch req.Action {
	case "maintain":
		evicted, err := h.Cache.Maintain(r.Context())
		if err != nil {
			WriteKindError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "action": "maintain", "evicted": evicted})

	case "warm":
		warmed, err := h.Cache.Warm(r.Context(), req.MaxQueries, h.RunSearch)
		if err != nil {
			WriteKindError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "action": "warm", "warmed": warmed})

	default:
		WriteError(w, r, http.StatusBadRequest, "validation", `action must be "warm" or "maintain"`)
	}
}
