package httpapi

import (
	"database/sql"
	"sync/atomic"

	"leadscout-engine/internal/cache"
	"leadscout-engine/internal/config"
	"leadscout-engine/internal/events"
	"leadscout-engine/internal/job"
	"leadscout-engine/internal/quota"
	"leadscout-engine/internal/stream"
)

type Deps struct {
	DB *sql.DB

	Hub      *events.Hub
	Jobs     *job.Manager
	Streamer *stream.Streamer
	Cache    *cache.Layer
	Registry *quota.Registry

	// Atomic stores
	CfgVal *atomic.Value // stores config.Config

	// Config persistence
	UserCfgPath string
	LoadCfg     func() (config.Config, error)

	// Warm runs one query through the full pipeline (inject for testability)
	RunSearch cache.RunSearch
}
