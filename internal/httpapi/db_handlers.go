package httpapi

import (
	"database/sql"
	"net"
	"net/http"
)

// DBHandler exposes maintenance operations on the sqlite store.
type DBHandler struct {
	DB *sql.DB
}

// Checkpoint forces a full WAL checkpoint so the database file is safe to
// copy. Loopback callers only.
func (h DBHandler) Checkpoint(w http.ResponseWriter, r *http.Request) {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	switch host {
	case "127.0.0.1", "::1", "localhost":
	default:
		WriteError(w, r, http.StatusForbidden, "forbidden", "loopback only")
		return
	}

	if _, err := h.DB.Exec(`PRAGMA wal_checkpoint(FULL);`); err != nil {
		WriteError(w, r, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
