package httpapi

import (
	"encoding/json"
	"net/http"

	"leadscout-engine/internal/errs"
)

type APIError struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"request_id,omitempty"`
	} `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	var e APIError
	e.Error.Code = code
	e.Error.Message = message
	e.Error.RequestID = RequestIDFrom(r.Context())
	WriteJSON(w, status, e)
}

// WriteKindError maps the engine's error taxonomy onto HTTP statuses.
func WriteKindError(w http.ResponseWriter, r *http.Request, err error) {
	kind := errs.KindOf(err)
	switch kind {
	case errs.KindValidation:
		WriteError(w, r, http.StatusBadRequest, string(kind), err.Error())
	case errs.KindNotFound:
		WriteError(w, r, http.StatusNotFound, string(kind), err.Error())
	case errs.KindRateLimit:
		w.Header().Set("Retry-After", "60")
		WriteError(w, r, http.StatusTooManyRequests, string(kind), err.Error())
	case errs.KindProvider:
		WriteError(w, r, http.StatusBadGateway, string(kind), err.Error())
	default:
		WriteError(w, r, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
