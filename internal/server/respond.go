package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/abhishekK50/wardenxt/internal/errors"
)

// maxBodyBytes caps request bodies; a runbook document is the largest.
const maxBodyBytes = 1 << 20

type errorPayload struct {
	Code        string   `json:"code"`
	Kind        string   `json:"kind"`
	Message     string   `json:"message"`
	Suggestions []string `json:"suggestions"`
}

type errorBody struct {
	Error errorPayload `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps an error to its HTTP status. Provider failures are
// upstream problems and get gateway statuses.
func statusFor(err error) int {
	switch errors.CodeOf(err) {
	case errors.ErrCodeProviderNotConfigured:
		return http.StatusServiceUnavailable
	case errors.ErrCodeProviderRateLimit:
		return http.StatusTooManyRequests
	case errors.ErrCodeProviderTimeout:
		return http.StatusGatewayTimeout
	case errors.ErrCodeProviderAuth, errors.ErrCodeProviderAPI, errors.ErrCodeProviderEmpty:
		return http.StatusBadGateway
	}

	switch errors.KindOf(err) {
	case errors.KindNotFound:
		return http.StatusNotFound
	case errors.KindInvalidRequest:
		return http.StatusBadRequest
	case errors.KindValidationFailure:
		return http.StatusUnprocessableEntity
	case errors.KindSafetyRejection, errors.KindApprovalRequired:
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

// writeError renders err as the JSON error envelope. Unexpected errors are
// logged with their cause and reported generically.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	payload := errorPayload{
		Code:        string(errors.ErrCodeInternal),
		Kind:        string(errors.KindOf(err)),
		Message:     "internal server error",
		Suggestions: []string{},
	}

	we, ok := errors.As(err)
	switch {
	case status == http.StatusInternalServerError:
		s.logger.WithContext(r.Context()).
			With("request_id", middleware.GetReqID(r.Context()), "path", r.URL.Path).
			LogErrorContext(r.Context(), err)
	case ok:
		payload.Code = string(we.Code)
		payload.Message = we.Message
		if len(we.Suggestions) > 0 {
			payload.Suggestions = we.Suggestions
		}
	}

	writeJSON(w, status, errorBody{Error: payload})
}

// decodeJSON reads a JSON body into v. An empty body leaves v untouched.
func decodeJSON(r *http.Request, v interface{}) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return errors.NewInvalidRequestError("could not read request body")
	}
	if len(body) > maxBodyBytes {
		return errors.NewInvalidRequestError("request body too large")
	}
	if strings.TrimSpace(string(body)) == "" {
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return errors.NewInvalidRequestError("malformed JSON body: " + err.Error())
	}
	return nil
}
