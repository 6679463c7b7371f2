package config

import (
	"fmt"
	"strings"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate returns a normalized copy plus any errors/warnings.
// Zero values get usable defaults so a sparse config still runs.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	var out = cfg
	var res Validation

	if out.App.Port <= 0 || out.App.Port > 65535 {
		res.addErr("app.port must be 1..65535")
	}

	// ---- Sources ----
	seen := map[string]bool{}
	for i, p := range out.Sources.Providers {
		name := strings.ToLower(strings.TrimSpace(p.Name))
		if name == "" {
			res.addErr("sources.providers[%d].name is required", i)
			continue
		}
		if seen[name] {
			res.addErr("sources.providers: duplicate name %q", name)
		}
		seen[name] = true
		out.Sources.Providers[i].Name = name
		if p.QuotaPerDay < 0 {
			res.addErr("sources.providers[%d].quota_per_day must be >= 0", i)
		}
		if p.Enabled && p.QuotaPerDay == 0 {
			res.addWarn("provider %q is enabled with zero quota; it will never be called", name)
		}
	}
	if out.Sources.Scrape.RequestsPerSec <= 0 {
		out.Sources.Scrape.RequestsPerSec = 1.0
	}
	if out.Sources.Scrape.Burst <= 0 {
		out.Sources.Scrape.Burst = 2
	}
	if out.Sources.Scrape.FanOut <= 0 {
		out.Sources.Scrape.FanOut = 4
	}

	// ---- Email ----
	if out.Email.Concurrency <= 0 {
		out.Email.Concurrency = 5
	} else if out.Email.Concurrency > 32 {
		res.addWarn("email.concurrency is very high (%d); target sites may block you.", out.Email.Concurrency)
	}

	// ---- Cache ----
	if out.Cache.TTLHours <= 0 {
		out.Cache.TTLHours = 24
	}
	if out.Cache.PopularMinRepeats <= 0 {
		out.Cache.PopularMinRepeats = 3
	}
	trim := func(xs []string) []string {
		dedup := map[string]bool{}
		var ys []string
		for _, x := range xs {
			x = strings.TrimSpace(x)
			if x == "" {
				continue
			}
			k := strings.ToLower(x)
			if dedup[k] {
				continue
			}
			dedup[k] = true
			ys = append(ys, x)
		}
		return ys
	}
	out.Cache.WarmQueries = trim(out.Cache.WarmQueries)

	// ---- Stream ----
	if out.Stream.PollIntervalMS <= 0 {
		out.Stream.PollIntervalMS = 1000
	} else if out.Stream.PollIntervalMS < 100 {
		res.addWarn("stream.poll_interval_ms below 100 hammers the store for little latency gain.")
	}

	// ---- Worker ----
	if out.Worker.MaxAttempts <= 0 {
		out.Worker.MaxAttempts = 3
	}
	if out.Worker.BackoffBaseMS <= 0 {
		out.Worker.BackoffBaseMS = 500
	}

	return out, res
}
