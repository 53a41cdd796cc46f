package handler

import (
	"context"
	"net/http"

	"github.com/punchclock/punchclock-backend/internal/timekeeping/service"
	"github.com/punchclock/punchclock-backend/pkg/httputil"
	"github.com/punchclock/punchclock-backend/pkg/logger"
)

// DashboardService summarises today for an admin.
type DashboardService interface {
	Stats(ctx context.Context) (*service.DashboardStats, error)
	ActiveEmployees(ctx context.Context) (*service.ActiveEmployees, error)
}

// DashboardHandler handles admin dashboard endpoints
type DashboardHandler struct {
	service DashboardService
	logger  *logger.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(svc DashboardService, log *logger.Logger) *DashboardHandler {
	return &DashboardHandler{service: svc, logger: log}
}

// Stats returns today's figures
// GET /dashboard/stats
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, stats)
}

// ActiveEmployees lists employees with recently approved time
// GET /dashboard/active-employees
func (h *DashboardHandler) ActiveEmployees(w http.ResponseWriter, r *http.Request) {
	active, err := h.service.ActiveEmployees(r.Context())
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, active)
}
