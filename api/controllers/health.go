package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/medibook/medibook-backend/api/responses"
	"github.com/medibook/medibook-backend/pkg/config"
	"github.com/medibook/medibook-backend/pkg/db"
	pkgerrors "github.com/medibook/medibook-backend/pkg/errors"
	"github.com/medibook/medibook-backend/pkg/logger"
	"github.com/medibook/medibook-backend/pkg/redis"
)

const (
	envHeader    = "X-Medibook-Env"
	readyTimeout = 2 * time.Second
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings Postgres and Redis; either failing yields 503.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		checks := map[string]string{"database": "ok", "redis": "ok"}
		var failed error
		if err := ping(ctx, dbP); err != nil {
			checks["database"] = "unavailable"
			failed = pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database unavailable")
		}
		if err := ping(ctx, redisP); err != nil {
			checks["redis"] = "unavailable"
			if failed == nil {
				failed = pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis unavailable")
			}
		}

		if failed != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.As(failed).WithDetails(checks))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}

func ping(ctx context.Context, p interface{ Ping(context.Context) error }) error {
	if p == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "not configured")
	}
	return p.Ping(ctx)
}
