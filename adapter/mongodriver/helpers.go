package mongodriver

import (
	"context"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	mopt "go.mongodb.org/mongo-driver/mongo/options"

	"github.com/vinicius-lino-figueiredo/gequery/domain"
)

// filter never returns a nil document, which the server would reject.
func filter(condition domain.M) domain.M {
	if condition == nil {
		return domain.M{}
	}
	return condition
}

// findOptions converts the read parameters. Zero values are left unset.
func findOptions(projection domain.M, sort domain.D, skip, limit int64) *mopt.FindOptions {
	opts := mopt.Find()
	if len(projection) > 0 {
		opts.SetProjection(projection)
	}
	if len(sort) > 0 {
		opts.SetSort(sort)
	}
	if skip > 0 {
		opts.SetSkip(skip)
	}
	if limit > 0 {
		opts.SetLimit(limit)
	}
	return opts
}

// updateOptions converts the update options. Array filters are only set when
// given.
func updateOptions(options ...domain.UpdateOption) *mopt.UpdateOptions {
	var uo domain.UpdateOptions
	for _, opt := range options {
		opt(&uo)
	}
	opts := mopt.Update()
	if len(uo.ArrayFilters) > 0 {
		opts.SetArrayFilters(mopt.ArrayFilters{Filters: uo.ArrayFilters})
	}
	if uo.Upsert {
		opts.SetUpsert(true)
	}
	return opts
}

func toUpdateResult(res *mongo.UpdateResult) *domain.UpdateResult {
	return &domain.UpdateResult{
		MatchedCount:  res.MatchedCount,
		ModifiedCount: res.ModifiedCount,
		UpsertedCount: res.UpsertedCount,
		UpsertedID:    res.UpsertedID,
	}
}

const (
	logMsgCommand     = "mongodriver: command "
	logMsgFailed      = "mongodriver: failed "
	logAttrCollection = "collection"
	logAttrDurationMS = "duration_ms"
	logAttrError      = "error"
)

// logCommand logs a command at debug level if the logger is configured.
func (c *Collection) logCommand(ctx context.Context, command string, duration time.Duration) {
	if c.logger == nil {
		return
	}
	args := []any{logAttrCollection, c.coll.Name(), logAttrDurationMS, toMilliseconds(duration)}
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
	args := []any{logAttrCollection, c.coll.Name(), logAttrError, err.Error()}
	if cl, ok := c.logger.(domain.ContextualLogger); ok {
		cl.ErrorContext(ctx, logMsgFailed+command, args...)
		return
	}
	c.logger.Error(logMsgFailed+command, args...)
}

func toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}
