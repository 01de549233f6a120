package server

import (
	"encoding/json"
	"errors"
	"net/http"

	stegoerrors "github.com/matzehuels/stegaplots/pkg/errors"
)

var (
	errNotFound         = stegoerrors.New(stegoerrors.ErrCodeInvalidPath, "no such endpoint")
	errMethodNotAllowed = stegoerrors.New(stegoerrors.ErrCodeInvalidInput, "method not allowed")
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Code      stegoerrors.Code `json:"code"`
	Message   string           `json:"message"`
	RequestID string           `json:"request_id,omitempty"`
}

// statusFor maps an error to its HTTP status.
func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		return http.StatusRequestEntityTooLarge
	}
	switch {
	case err == errNotFound:
		return http.StatusNotFound
	case err == errMethodNotAllowed:
		return http.StatusMethodNotAllowed
	}
	switch stegoerrors.GetCode(err) {
	case stegoerrors.ErrCodeCapacity:
		return http.StatusRequestEntityTooLarge
	case stegoerrors.ErrCodeFormat, stegoerrors.ErrCodeParse, stegoerrors.ErrCodeInvalidInput,
		stegoerrors.ErrCodeInvalidPath, stegoerrors.ErrCodeEncodingDomain:
		return http.StatusBadRequest
	case stegoerrors.ErrCodeUnsupported:
		return http.StatusUnsupportedMediaType
	default:
		return http.StatusInternalServerError
	}
}

// fail logs server-side failures and writes the error response.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	if statusFor(err) >= 500 {
		s.logger.Error("Request failed", "err", err, "request_id", requestIDFrom(r.Context()))
	} else {
		s.logger.Debug("Request rejected", "err", err, "request_id", requestIDFrom(r.Context()))
	}
	writeError(w, r, err)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	body := errorBody{
		Code:      stegoerrors.GetCode(err),
		Message:   stegoerrors.UserMessage(err),
		RequestID: requestIDFrom(r.Context()),
	}
	if body.Code == "" {
		body.Code = stegoerrors.ErrCodeInternal
	}
	if status == http.StatusInternalServerError {
		body.Message = "internal error"
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
