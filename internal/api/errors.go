package api

import (
	"errors"
	"log/slog"
	"net/http"

	"ironready/coach-api/internal/logger"
	"ironready/coach-api/internal/service"

	"github.com/gin-gonic/gin"
)

// errorStatuses maps service sentinels to HTTP codes. Order matters: a
// GenerationError matches both its kind and its cause.
var errorStatuses = []struct {
	err    error
	status int
}{
	{service.ErrInvalidInput, http.StatusBadRequest},
	{service.ErrSubCategoryNotApplicable, http.StatusBadRequest},
	{service.ErrAuthenticationFailed, http.StatusUnauthorized},
	{service.ErrSessionForbidden, http.StatusForbidden},
	{service.ErrPlanDayForbidden, http.StatusForbidden},
	{service.ErrUserNotFound, http.StatusNotFound},
	{service.ErrSessionNotFound, http.StatusNotFound},
	{service.ErrPlanDayNotFound, http.StatusNotFound},
	{service.ErrNotificationNotFound, http.StatusNotFound},
	{service.ErrUserAlreadyExists, http.StatusConflict},
	{service.ErrSessionAlreadyCompleted, http.StatusConflict},
	{service.ErrPrecondition, http.StatusUnprocessableEntity},
	{service.ErrRetrievalUnavailable, http.StatusServiceUnavailable},
	{service.ErrGenerationFormat, http.StatusBadGateway},
	{service.ErrNoValidPlan, http.StatusBadGateway},
	{service.ErrPersistence, http.StatusInternalServerError},
}

// statusForError returns the HTTP code for err and whether it is a known
// service error whose message can be shown to the caller.
func statusForError(err error) (int, bool) {
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			return e.status, true
		}
	}
	return http.StatusInternalServerError, false
}

// respondServiceError writes err as a JSON error. Server-side failures are
// logged and answered with fallback instead of the internal message.
func respondServiceError(c *gin.Context, base *slog.Logger, err error, fallback string) {
	status, known := statusForError(err)
	if status >= http.StatusInternalServerError {
		logger.FromContext(c.Request.Context(), base).Error(fallback, "error", err, "path", c.Request.URL.Path)
	}

	message := fallback
	if known {
		message = publicMessage(err)
	}
	abortWithError(c, status, message)
}

// publicMessage strips wrapped causes and returns the sentinel's text.
func publicMessage(err error) string {
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			if e.err == service.ErrInvalidInput {
				return err.Error()
			}
			return e.err.Error()
		}
	}
	return err.Error()
}
