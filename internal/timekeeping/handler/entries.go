// Package handler exposes the time-accounting operations over HTTP.
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/punchclock/punchclock-backend/internal/timekeeping/domain"
	"github.com/punchclock/punchclock-backend/internal/timekeeping/service"
	"github.com/punchclock/punchclock-backend/pkg/clock"
	"github.com/punchclock/punchclock-backend/pkg/errors"
	"github.com/punchclock/punchclock-backend/pkg/httputil"
	"github.com/punchclock/punchclock-backend/pkg/logger"
)

// EntryService is the entry lifecycle as seen by the HTTP layer.
type EntryService interface {
	IssuePunchToken(ctx context.Context) (*service.PunchToken, error)
	PunchIn(ctx context.Context, in service.PunchInput) (*domain.TimeEntry, error)
	CreateTimeEntry(ctx context.Context, in service.CreateEntryInput) (*domain.TimeEntry, error)
	UpdateTimeEntry(ctx context.Context, id string, in service.UpdateEntryInput) (*domain.TimeEntry, error)
	DeleteTimeEntry(ctx context.Context, id string) (*domain.TimeEntry, error)
	UpdateEntryStatus(ctx context.Context, id string, status string) (*domain.TimeEntry, error)
	ApproveAllToday(ctx context.Context) (int, error)
	GetTodayEntries(ctx context.Context) ([]domain.EntryView, error)
	GetRecentActivities(ctx context.Context) ([]domain.TimeEntry, error)
	GetEmployeeTimeEntries(ctx context.Context, employeeID string, date *clock.Date) ([]domain.EntryView, error)
}

// EntryHandler handles punch and time entry endpoints
type EntryHandler struct {
	service EntryService
	logger  *logger.Logger
}

// NewEntryHandler creates a new entry handler
func NewEntryHandler(svc EntryService, log *logger.Logger) *EntryHandler {
	return &EntryHandler{service: svc, logger: log}
}

// CountResponse reports how many entries a bulk operation touched.
type CountResponse struct {
	Count int `json:"count"`
}

// IssuePunchToken returns a session token for the next punch
// GET /punch/token
func (h *EntryHandler) IssuePunchToken(w http.ResponseWriter, r *http.Request) {
	token, err := h.service.IssuePunchToken(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, token)
}

// Punch records a segment for the caller today
// POST /punch
func (h *EntryHandler) Punch(w http.ResponseWriter, r *http.Request) {
	var req service.PunchInput
	if err := httputil.DecodeJSONLocalized(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		h.fail(w, r, err)
		return
	}

	entry, err := h.service.PunchIn(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.Created(w, entry)
}

// Create records a manual entry
// POST /time-entries
func (h *EntryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateEntryInput
	if err := httputil.DecodeJSONLocalized(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		h.fail(w, r, err)
		return
	}

	entry, err := h.service.CreateTimeEntry(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.Created(w, entry)
}

// Update changes a time entry. An explicit "end_time": null reopens it.
// PATCH /time-entries/{id}
func (h *EntryHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateEntryInput
	if err := httputil.DecodeJSONLocalized(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		h.fail(w, r, err)
		return
	}

	entry, err := h.service.UpdateTimeEntry(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, entry)
}

// Delete removes a time entry
// DELETE /time-entries/{id}
func (h *EntryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	entry, err := h.service.DeleteTimeEntry(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, entry)
}

// UpdateStatus sets the status of one entry
// POST /time-entries/{id}/status
func (h *EntryHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req service.StatusInput
	if err := httputil.DecodeJSONLocalized(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	entry, err := h.service.UpdateEntryStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, entry)
}

// ApproveAll approves today's pending entries of the caller's employees
// POST /time-entries/approve-all
func (h *EntryHandler) ApproveAll(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.ApproveAllToday(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, CountResponse{Count: n})
}

// Today lists today's visible entries
// GET /time-entries/today
func (h *EntryHandler) Today(w http.ResponseWriter, r *http.Request) {
	views, err := h.service.GetTodayEntries(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, views)
}

// Recent lists the caller's latest entries
// GET /time-entries/recent
func (h *EntryHandler) Recent(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.GetRecentActivities(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, entries)
}

// ForEmployee lists one managed employee's entries on a date
// GET /employees/{id}/time-entries?date=YYYY-MM-DD
func (h *EntryHandler) ForEmployee(w http.ResponseWriter, r *http.Request) {
	date, err := dateParam(r, "date")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	views, err := h.service.GetEmployeeTimeEntries(r.Context(), chi.URLParam(r, "id"), date)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, views)
}

func (h *EntryHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	respondError(h.logger, w, r, err)
}

// dateParam parses an optional YYYY-MM-DD query parameter.
func dateParam(r *http.Request, name string) (*clock.Date, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	d, err := clock.ParseDate(raw)
	if err != nil {
		return nil, errors.InvalidField(name, "must be a date in YYYY-MM-DD format")
	}
	return &d, nil
}

// respondError writes err and logs anything that is not a known AppError.
func respondError(log *logger.Logger, w http.ResponseWriter, r *http.Request, err error) {
	var appErr *errors.AppError
	if !errors.As(err, &appErr) || appErr.StatusCode >= http.StatusInternalServerError {
		log.Error().
			Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("request_id", httputil.GetRequestID(r.Context())).
			Msg("request failed")
	}
	httputil.ErrorLocalized(w, r, err)
}
