package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/shopvite/shopvite-backend/api/responses"
	pkgerrors "github.com/shopvite/shopvite-backend/pkg/errors"
	"github.com/shopvite/shopvite-backend/pkg/logger"
)

const readyProbeTimeout = 2 * time.Second

type dependencyPinger interface {
	Ping(ctx context.Context) error
}

// HealthLive reports process liveness without touching any dependency.
func HealthLive() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{"status": "ok"})
	}
}

// HealthReady pings the database and Redis, reporting per-dependency status.
// Any failing probe turns the response into a 503.
func HealthReady(database, cache dependencyPinger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyProbeTimeout)
		defer cancel()

		checks := map[string]string{}
		healthy := true

		probe := func(name string, p dependencyPinger) {
			if p == nil {
				checks[name] = "skipped"
				return
			}
			if err := p.Ping(ctx); err != nil {
				checks[name] = "down"
				healthy = false
				logg.Warn(ctx, "health probe failed: "+name)
				return
			}
			checks[name] = "ok"
		}

		probe("database", database)
		probe("redis", cache)

		if !healthy {
			err := pkgerrors.New(pkgerrors.CodeDependency, "one or more dependencies are unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, checks)
	}
}
