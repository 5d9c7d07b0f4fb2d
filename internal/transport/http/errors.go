package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/eventmesh-lab/events-service/internal/app"
	"github.com/eventmesh-lab/events-service/internal/domain"
)

const (
	codeMethodNotAllowed     = "method_not_allowed"
	codeNotFound             = "not_found"
	codeInvalidRequestBody   = "invalid_request_body"
	codeInvalidDate          = "invalid_date"
	codeValidationFailed     = "validation_failed"
	codeMissingRequiredField = "missing_required_field"
	codeInvalidArgument      = "invalid_argument"
	codeInvalidID            = "invalid_id"
	codeEventNotFound        = "event_not_found"
	codeInvalidState         = "invalid_state"
	codeSectionAlreadyExists = "section_already_exists"
	codeConcurrentUpdate     = "concurrent_update"
	codeEventBusUnavailable  = "event_bus_unavailable"
	codeForbidden            = "forbidden"
	codeNotReady             = "not_ready"
	codeInternalError        = "internal_error"
)

type errorResponse struct {
	Error   string               `json:"error"`
	Code    string               `json:"code"`
	Details []app.FieldViolation `json:"details,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeErrorResponse(w, status, errorResponse{Error: msg, Code: code})
}

func writeErrorResponse(w http.ResponseWriter, status int, resp errorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(resp)
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

// writeServiceError maps application and domain errors onto HTTP responses.
// Unexpected errors are logged and reported without detail.
func writeServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var (
		verr *app.ValidationError
		perr *app.PublishError
	)
	switch {
	case errors.As(err, &perr):
		logger.Error("domain events not delivered", zap.String("event_id", perr.EventID), zap.Error(err))
		writeError(w, http.StatusBadGateway, codeEventBusUnavailable,
			"event "+perr.EventID+" was saved but its domain events were not delivered")
	case errors.As(err, &verr):
		writeErrorResponse(w, http.StatusBadRequest, errorResponse{
			Error:   "validation failed",
			Code:    codeValidationFailed,
			Details: verr.Violations,
		})
	case errors.Is(err, domain.ErrNullValue):
		writeError(w, http.StatusBadRequest, codeMissingRequiredField, err.Error())
	case errors.Is(err, domain.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, codeInvalidArgument, err.Error())
	case errors.Is(err, domain.ErrInvalidID):
		writeError(w, http.StatusNotFound, codeInvalidID, "invalid event id")
	case errors.Is(err, domain.ErrEventNotFound):
		writeError(w, http.StatusNotFound, codeEventNotFound, "event not found")
	case errors.Is(err, domain.ErrInvalidState):
		writeError(w, http.StatusConflict, codeInvalidState, err.Error())
	case errors.Is(err, domain.ErrDuplicateEntity):
		writeError(w, http.StatusConflict, codeSectionAlreadyExists, err.Error())
	case errors.Is(err, domain.ErrConcurrentUpdate):
		writeError(w, http.StatusConflict, codeConcurrentUpdate, "event was modified concurrently, retry")
	default:
		logger.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}
