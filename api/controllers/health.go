package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/thall003/proxycart/api/responses"
	"github.com/thall003/proxycart/pkg/config"
	"github.com/thall003/proxycart/pkg/db"
	"github.com/thall003/proxycart/pkg/logger"
	pkgredis "github.com/thall003/proxycart/pkg/redis"
)

const readinessTimeout = 2 * time.Second

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-ProxyCart-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every hard dependency. A failing dependency returns 503
// so the orchestrator stops routing traffic here.
func HealthReady(cfg *config.Config, logg *logger.Logger, database db.Pinger, cache pkgredis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		checks := map[string]string{}
		healthy := true

		checks["postgres"] = "ok"
		if database == nil {
			checks["postgres"] = "not configured"
			healthy = false
		} else if err := database.Ping(ctx); err != nil {
			checks["postgres"] = err.Error()
			healthy = false
		}

		checks["redis"] = "ok"
		if cache == nil {
			checks["redis"] = "not configured"
			healthy = false
		} else if err := cache.Ping(ctx); err != nil {
			checks["redis"] = err.Error()
			healthy = false
		}

		w.Header().Set("X-ProxyCart-Env", cfg.App.Env)
		if !healthy {
			if logg != nil {
				logg.Warn(logg.WithFields(r.Context(), map[string]any{"checks": checks}), "readiness check failed")
			}
			responses.WriteSuccessStatus(w, http.StatusServiceUnavailable, map[string]any{
				"status": "degraded",
				"checks": checks,
			})
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"status": "ready",
			"checks": checks,
		})
	}
}
