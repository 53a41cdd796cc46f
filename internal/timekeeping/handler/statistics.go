package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/punchclock/punchclock-backend/internal/timekeeping/service"
	"github.com/punchclock/punchclock-backend/pkg/clock"
	"github.com/punchclock/punchclock-backend/pkg/httputil"
	"github.com/punchclock/punchclock-backend/pkg/logger"
)

// StatisticsService computes weekly and daily figures.
type StatisticsService interface {
	GetStatistics(ctx context.Context, employeeID string, asOf *clock.Date) (*service.EmployeeStatistics, error)
}

// StatisticsHandler handles statistics endpoints
type StatisticsHandler struct {
	service StatisticsService
	logger  *logger.Logger
}

// NewStatisticsHandler creates a new statistics handler
func NewStatisticsHandler(svc StatisticsService, log *logger.Logger) *StatisticsHandler {
	return &StatisticsHandler{service: svc, logger: log}
}

// Mine returns the caller's statistics
// GET /statistics?as_of=YYYY-MM-DD
func (h *StatisticsHandler) Mine(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, "")
}

// ForEmployee returns one employee's statistics
// GET /employees/{id}/statistics?as_of=YYYY-MM-DD
func (h *StatisticsHandler) ForEmployee(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, chi.URLParam(r, "id"))
}

func (h *StatisticsHandler) respond(w http.ResponseWriter, r *http.Request, employeeID string) {
	asOf, err := dateParam(r, "as_of")
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}

	stats, err := h.service.GetStatistics(r.Context(), employeeID, asOf)
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, stats)
}
