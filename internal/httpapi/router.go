package httpapi

import (
	"net/http"
	"strings"
)

// NewMux wires every handler; main() wraps it in the middleware chain.
func NewMux(d Deps) *http.ServeMux {
	mux := http.NewServeMux()

	// Jobs
	jh := JobsHandler{DB: d.DB, Jobs: d.Jobs}
	sh := StreamHandler{Jobs: d.Jobs, Streamer: d.Streamer}
	mux.HandleFunc("/jobs", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: jh.Create,
	}))
	mux.HandleFunc("/jobs/", func(w http.ResponseWriter, r *http.Request) {
		// /jobs/{id}, /jobs/{id}/cancel, /jobs/{id}/stream
		switch {
		case strings.HasSuffix(r.URL.Path, "/cancel"):
			methodMux(map[string]http.HandlerFunc{
				http.MethodPost: jh.Cancel,
			})(w, r)
		case strings.HasSuffix(r.URL.Path, "/stream"):
			methodMux(map[string]http.HandlerFunc{
				http.MethodGet: sh.ServeJobSSE,
			})(w, r)
		default:
			methodMux(map[string]http.HandlerFunc{
				http.MethodGet: jh.Status,
			})(w, r)
		}
	})

	// Cache control
	ch := CacheHandler{Cache: d.Cache, RunSearch: d.RunSearch}
	mux.HandleFunc("/cache", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: ch.Control,
	}))

	// Source/quota status
	qh := SourcesHandler{Registry: d.Registry}
	mux.HandleFunc("/sources/status", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: qh.Status,
	}))

	// Config
	cfgh := ConfigHandler{
		CfgVal:      d.CfgVal,
		UserCfgPath: d.UserCfgPath,
		LoadCfg:     d.LoadCfg,
	}
	mux.HandleFunc("/config", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: cfgh.Get,
		http.MethodPut: cfgh.Put,
	}))
	mux.HandleFunc("/config/path", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: cfgh.Path,
	}))

	// Secrets
	sec := SecretsHandler{}
	mux.HandleFunc("/api/secrets/provider", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: sec.SetProviderKey,
	}))

	// Lifecycle event firehose
	eh := EventsHandler{Hub: d.Hub}
	mux.HandleFunc("/events", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: eh.ServeSSE,
	}))

	// Health + db maintenance
	hh := HealthHandler{Cache: d.Cache}
	mux.HandleFunc("/health", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: hh.Health,
	}))
	dbh := DBHandler{DB: d.DB}
	mux.HandleFunc("/db/checkpoint", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: dbh.Checkpoint,
	}))

	return mux
}
