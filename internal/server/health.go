package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
)

// DBPinger checks the session store connection.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// APIPinger checks that the remote admin API answers its health route.
type APIPinger interface {
	Ping(ctx context.Context) error
}

type HealthChecker struct {
	db  DBPinger
	api APIPinger
	log *slog.Logger
}

func NewHealthChecker(log *slog.Logger, db DBPinger, api APIPinger) *HealthChecker {
	return &HealthChecker{
		db:  db,
		api: api,
		log: log,
	}
}

func (h *HealthChecker) ServeHTTP(writer http.ResponseWriter, req *http.Request) {
	h.log.DebugContext(req.Context(), "Performing health checks...")

	var err error
	status := make(map[string]string)
	overallStatus := http.StatusOK

	if err = h.db.Ping(req.Context()); err != nil {
		status["database"] = "unavailable"
		overallStatus = http.StatusServiceUnavailable
		h.log.WarnContext(req.Context(), "Health check failed: DB ping", "error", err)
	} else {
		status["database"] = "ok"
	}

	if err = h.api.Ping(req.Context()); err != nil {
		status["admin_api"] = "unreachable"
		overallStatus = http.StatusServiceUnavailable
		h.log.WarnContext(req.Context(), "Health check failed: admin API unreachable", "error", err)
	} else {
		status["admin_api"] = "ok"
	}

	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(overallStatus)
	if err = json.NewEncoder(writer).Encode(status); err != nil {
		h.log.ErrorContext(req.Context(), "Failed to write health check response", "error", err)
	}

	h.log.DebugContext(req.Context(), "Health checks completed", "status", overallStatus)
}
