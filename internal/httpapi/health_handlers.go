package httpapi

import (
	"net/http"
	"time"

	"leadscout-engine/internal/cache"
)

type HealthHandler struct {
	Cache *cache.Layer
}

func (h HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"ok":   true,
		"time": time.Now().UTC().Format(time.RFC3339),
	}
	if h.Cache != nil {
		resp["cache"] = h.Cache.Health(r.Context())
	}
	WriteJSON(w, http.StatusOK, resp)
}
