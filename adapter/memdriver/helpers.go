package memdriver

import (
	"context"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vinicius-lino-figueiredo/gequery/domain"
)

const (
	logMsgCommand     = "memdriver: command "
	logMsgFailed      = "memdriver: failed "
	logAttrCollection = "collection"
	logAttrDurationMS = "duration_ms"
	logAttrError      = "error"
)

// logCommand logs a command at debug level if the logger is configured.
func (c *Collection) logCommand(ctx context.Context, command string, duration time.Duration) {
	if c.logger == nil {
		return
	}
	args := []any{logAttrCollection, c.name, logAttrDurationMS, toMilliseconds(duration)}
	if cl, ok := c.logger.(domain.ContextualLogger); ok {
		cl.DebugContext(ctx, logMsgCommand+command, args...)
		return
	}
	c.logger.Debug(logMsgCommand+command, args...)
}

// logError logs a failed command at error level if the logger is configured.
func (c *Collection) logError(ctx context.Context, command string, err error) {
	if c.logger == nil {
		return
	}
	args := []any{logAttrCollection, c.name, logAttrError, err.Error()}
	if cl, ok := c.logger.(domain.ContextualLogger); ok {
		cl.ErrorContext(ctx, logMsgFailed+command, args...)
		return
	}
	c.logger.Error(logMsgFailed+command, args...)
}

func toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}

func isRegex(v any) bool {
	_, ok := v.(primitive.Regex)
	return ok
}
