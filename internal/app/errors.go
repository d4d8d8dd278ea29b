package app

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/garyellow/attendance-go/internal/ctxutil"
	domerrors "github.com/garyellow/attendance-go/internal/errors"
	"github.com/garyellow/attendance-go/internal/sentry"
)

// Error types, used in responses and as metric labels.
const (
	errorTypeInvalidInput = "invalid_input"
	errorTypeNotFound     = "not_found"
	errorTypeInternal     = "internal"
)

// classify maps an error to its HTTP status and error type.
func classify(err error) (int, string) {
	switch {
	case domerrors.IsInvalidInput(err), errors.Is(err, domerrors.ErrDuplicateStudent):
		return http.StatusBadRequest, errorTypeInvalidInput
	case domerrors.IsNotFound(err), errors.Is(err, domerrors.ErrEmptyDraft):
		return http.StatusNotFound, errorTypeNotFound
	default:
		return http.StatusInternalServerError, errorTypeInternal
	}
}

// respondError writes the JSON error response. Server errors are logged and
// reported to Sentry; their details are not exposed to the client.
func (a *Application) respondError(c *gin.Context, err error) {
	status, errType := classify(err)
	a.metrics.RecordHTTPError(errType, c.FullPath())

	ctx := c.Request.Context()
	message := domerrors.GetUserMessage(err)
	if status == http.StatusInternalServerError {
		a.logger.WithError(err).WithField("route", c.FullPath()).ErrorContext(ctx, "Request error")
		sentry.CaptureError(ctx, err, sentry.Tags{
			"route": c.FullPath(),
			"date":  ctxutil.GetDate(ctx),
			"stage": ctxutil.GetStage(ctx),
		})
		message = "internal error"
	}

	requestID, _ := ctxutil.GetRequestID(ctx)
	c.AbortWithStatusJSON(status, gin.H{
		"error":      message,
		"type":       errType,
		"request_id": requestID,
	})
}
