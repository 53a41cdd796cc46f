package httputil

import (
	"encoding/json"
	"net/http"

	"github.com/punchclock/punchclock-backend/pkg/errors"
	"github.com/punchclock/punchclock-backend/pkg/i18n"
)

// MaxBodyBytes bounds request bodies read by DecodeJSON.
const MaxBodyBytes = 1 << 20

// Response is the envelope of every API response.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
}

// ErrorBody represents an error in the response
type ErrorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

func write(w http.ResponseWriter, statusCode int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(resp)
}

// JSON sends data in a success envelope for 2xx codes.
func JSON(w http.ResponseWriter, statusCode int, data interface{}) {
	write(w, statusCode, Response{Success: statusCode >= 200 && statusCode < 300, Data: data})
}

// Created sends a 201 Created response
func Created(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusCreated, data)
}

// Error sends err with its English message. Errors that are not AppErrors
// become a 500 without their cause.
func Error(w http.ResponseWriter, err error) {
	var appErr *errors.AppError
	if errors.As(err, &appErr) {
		write(w, appErr.StatusCode, errorResponse(appErr, appErr.Message))
		return
	}
	write(w, http.StatusInternalServerError, internalResponse("an unexpected error occurred"))
}

// ErrorLocalized is Error with the message translated to the request locale.
func ErrorLocalized(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *errors.AppError
	if errors.As(err, &appErr) {
		write(w, appErr.StatusCode, errorResponse(appErr, appErr.Localize(r.Context())))
		return
	}
	localizer := i18n.LocalizerFromContext(r.Context())
	write(w, http.StatusInternalServerError, internalResponse(localizer.T("errors.internal")))
}

func errorResponse(appErr *errors.AppError, message string) Response {
	return Response{Error: &ErrorBody{Code: appErr.Code, Message: message, Details: appErr.Details}}
}

func internalResponse(message string) Response {
	return Response{Error: &ErrorBody{Code: "INTERNAL_ERROR", Message: message}}
}

// DecodeJSON decodes a body of at most MaxBodyBytes into v.
func DecodeJSON(r *http.Request, v interface{}) error {
	return decode(r, v, "invalid JSON body")
}

// DecodeJSONLocalized is DecodeJSON with a translated error message.
func DecodeJSONLocalized(r *http.Request, v interface{}) error {
	return decode(r, v, i18n.LocalizerFromContext(r.Context()).T("errors.invalid_json"))
}

func decode(r *http.Request, v interface{}, message string) error {
	body := http.MaxBytesReader(nil, r.Body, MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return errors.BadRequest(message)
	}
	return nil
}
