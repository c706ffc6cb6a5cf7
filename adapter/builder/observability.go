package builder

import (
	"context"
	"math"
	"time"

	"github.com/vinicius-lino-figueiredo/gequery/domain"
)

const (
	logMsgExecuted     = "gequery: executed "
	logMsgFailed       = "gequery: failed "
	logAttrOperation   = "operation"
	logAttrDurationMS  = "duration_ms"
	logAttrError       = "error"
	logAttrCondition   = "condition"
	logAttrUpdate      = "update"
	logAttrResultCount = "results"
)

// logExecuted logs a driver call at debug level if the logger is configured.
func (b *Builder[T]) logExecuted(ctx context.Context, operation string, duration time.Duration, args ...any) {
	if b.logger == nil {
		return
	}
	allArgs := []any{logAttrOperation, operation, logAttrDurationMS, toMilliseconds(duration)}
	allArgs = append(allArgs, args...)
	if cl, ok := b.logger.(domain.ContextualLogger); ok {
		cl.DebugContext(ctx, logMsgExecuted+operation, allArgs...)
		return
	}
	b.logger.Debug(logMsgExecuted+operation, allArgs...)
}

// logError logs a failed operation at error level if the logger is configured.
func (b *Builder[T]) logError(ctx context.Context, operation string, err error, args ...any) {
	if b.logger == nil {
		return
	}
	allArgs := []any{logAttrOperation, operation, logAttrError, err.Error()}
	allArgs = append(allArgs, args...)
	if cl, ok := b.logger.(domain.ContextualLogger); ok {
		cl.ErrorContext(ctx, logMsgFailed+operation, allArgs...)
		return
	}
	b.logger.Error(logMsgFailed+operation, allArgs...)
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3
// decimal places.
func toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}
