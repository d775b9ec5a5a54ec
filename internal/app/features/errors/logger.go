// internal/app/features/errors/logger.go
package errors

import (
	"context"
	stderrors "errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// ErrorLogger logs server-side failures with request context and answers
// the caller with a generic notice.
type ErrorLogger struct {
	log *zap.Logger
}

func NewErrorLogger(log *zap.Logger) *ErrorLogger {
	return &ErrorLogger{log: log}
}

// LogServerError logs err as msg and writes a notice carrying userMsg.
// A timed-out dependency answers 503 so clients may retry; anything else
// is a 500.
func (e *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg string) {
	status := http.StatusInternalServerError
	if stderrors.Is(err, context.DeadlineExceeded) {
		status = http.StatusServiceUnavailable
	}
	e.log.Error(msg,
		zap.Error(err),
		zap.Int("status", status),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("request_id", middleware.GetReqID(r.Context())))
	WriteNotice(w, status, Failure(userMsg))
}
