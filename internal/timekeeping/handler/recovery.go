package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/punchclock/punchclock-backend/internal/timekeeping/service"
	"github.com/punchclock/punchclock-backend/pkg/errors"
	"github.com/punchclock/punchclock-backend/pkg/httputil"
	"github.com/punchclock/punchclock-backend/pkg/i18n"
	"github.com/punchclock/punchclock-backend/pkg/logger"
)

// RecoveryService clears and restores a day's entries.
type RecoveryService interface {
	ClearToday(ctx context.Context, employeeID string) (int, error)
	UndoClear(ctx context.Context) (int, error)
}

// RecoveryHandler handles clear and undo endpoints
type RecoveryHandler struct {
	service RecoveryService
	logger  *logger.Logger
}

// NewRecoveryHandler creates a new recovery handler
func NewRecoveryHandler(svc RecoveryService, log *logger.Logger) *RecoveryHandler {
	return &RecoveryHandler{service: svc, logger: log}
}

// Clear deletes today's entries of one or all managed employees. The body
// is optional.
// POST /time-entries/clear
func (h *RecoveryHandler) Clear(w http.ResponseWriter, r *http.Request) {
	var req service.ClearInput
	if err := decodeOptionalJSON(r, &req); err != nil {
		respondError(h.logger, w, r, err)
		return
	}

	n, err := h.service.ClearToday(r.Context(), req.EmployeeID)
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, CountResponse{Count: n})
}

// Undo restores the caller's last clear
// POST /time-entries/undo-clear
func (h *RecoveryHandler) Undo(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.UndoClear(r.Context())
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, CountResponse{Count: n})
}

// decodeOptionalJSON decodes the body into v unless it is empty.
func decodeOptionalJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	body, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, httputil.MaxBodyBytes))
	if err != nil {
		return errors.BadRequest("failed to read request body")
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return errors.BadRequest(i18n.TFromContext(r.Context(), "errors.invalid_json"))
	}
	return nil
}
