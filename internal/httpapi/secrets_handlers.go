package httpapi

import (
	"encoding/json"
	"net/http"

	"leadscout-engine/internal/secrets"
)

type SecretsHandler struct{}

type setProviderKeyReq struct {
	Provider string `json:"provider"`
	APIKey   string `json:"apiKey"`
}

// SetProviderKey stores a provider API key in the OS keychain. Keys never
// touch the config file or the database.
func (h SecretsHandler) SetProviderKey(w http.ResponseWriter, r *http.Request) {
	var req setProviderKeyReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	if err := secrets.SetProviderKey(req.Provider, req.APIKey); err != nil {
		http.Error(w, "failed to store key: "+err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
