package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mealscan/mealscan-go/internal/middleware"
	"github.com/mealscan/mealscan-go/internal/service"
)

const maxJSONBody = 1 << 20 // 1MB

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func errorResponse(msg string) map[string]string {
	return map[string]string{"error": msg}
}

// decodeJSON reads a size-capped JSON body into v. It writes the error
// response itself and reports whether the handler should continue.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if isBodyTooLarge(err) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse("request body too large"))
			return false
		}
		writeJSON(w, http.StatusBadRequest, errorResponse("invalid request body"))
		return false
	}
	return true
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

// principal returns the authenticated caller, answering 401 when absent.
func principal(w http.ResponseWriter, r *http.Request) (service.Principal, bool) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("unauthorized"))
	}
	return p, ok
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.RequestIDFromContext(r.Context()),
			"error", err,
		)
	}
	writeJSON(w, status, errorResponse(msg))
}

func statusFor(err error) (int, string) {
	for _, m := range errorStatuses {
		if errors.Is(err, m.err) {
			return m.status, m.err.Error()
		}
	}
	return http.StatusInternalServerError, "internal server error"
}

var errorStatuses = []struct {
	err    error
	status int
}{
	{service.ErrDevLoginDisabled, http.StatusNotFound},
	{service.ErrMealNotFound, http.StatusNotFound},
	{service.ErrMissingCode, http.StatusBadRequest},
	{service.ErrTextRequired, http.StatusBadRequest},
	{service.ErrImageRequired, http.StatusBadRequest},
	{service.ErrDateQueryRequired, http.StatusBadRequest},
	{service.ErrInvalidDateQuery, http.StatusBadRequest},
	{service.ErrInvalidDateRange, http.StatusBadRequest},
	{service.ErrInvalidMealDate, http.StatusUnprocessableEntity},
	{service.ErrInvalidInputType, http.StatusUnprocessableEntity},
	{service.ErrInvalidNutrition, http.StatusUnprocessableEntity},
	{service.ErrBadUpstream, http.StatusBadGateway},
	{service.ErrUpstream, http.StatusBadGateway},
	{service.ErrNotConfigured, http.StatusInternalServerError},
}
