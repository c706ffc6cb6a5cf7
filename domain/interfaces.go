// Package domain contains domain-specific interfaces, entities, option types
// and errors for gequery.
//
// This package defines the contracts consumed by the builder (the storage
// driver, the identifier converter, the decoder and the loggers), as well as
// the functional options used to configure driver calls.
package domain

import (
	"context"
	"time"
)

// Collection is the narrow storage driver handle a builder is bound to. It is
// owned by the caller and may be shared by any number of builders, so
// implementations must be safe for concurrent use.
type Collection interface {
	// Find returns every document matching the condition.
	Find(ctx context.Context, condition M, options ...FindOption) ([]M, error)
	// FindOne returns the first document matching the condition, or
	// [ErrNotFound].
	FindOne(ctx context.Context, condition M, options ...FindOption) (M, error)
	// Paginate returns a page of matching documents together with the total
	// number of matches.
	Paginate(ctx context.Context, condition M, options ...PaginateOption) (*PageResult, error)
	// Create stores a new document and returns its stored version.
	Create(ctx context.Context, data any) (M, error)
	// UpdateOne applies the update to the first matching document.
	UpdateOne(ctx context.Context, condition M, update M, options ...UpdateOption) (*UpdateResult, error)
	// UpdateMany applies the update to every matching document.
	UpdateMany(ctx context.Context, condition M, update M, options ...UpdateOption) (*UpdateResult, error)
	// DeleteOne removes the first matching document.
	DeleteOne(ctx context.Context, condition M) (*DeleteResult, error)
	// DeleteMany removes every matching document.
	DeleteMany(ctx context.Context, condition M) (*DeleteResult, error)
}

// IDConverter converts user provided identifiers into the driver's native
// identifier type.
type IDConverter interface {
	// ToID returns the native identifier for v, or an error if v cannot
	// represent one.
	ToID(v any) (any, error)
}

// Decoder converts between different data representations.
type Decoder interface {
	// Decode converts from one data format to another.
	Decode(source any, target any) error
}

// Logger is satisfied by [log/slog.Logger] and most structured loggers.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// ContextualLogger is an optional extension of [Logger]. When the configured
// logger implements it, the context of the running operation is passed along
// so trace correlation can happen.
type ContextualLogger interface {
	DebugContext(ctx context.Context, msg string, args ...any)
	InfoContext(ctx context.Context, msg string, args ...any)
	WarnContext(ctx context.Context, msg string, args ...any)
	ErrorContext(ctx context.Context, msg string, args ...any)
}

// TimeGetter provides current time for operators like $currentDate.
type TimeGetter interface {
	// GetTime returns the current time.
	GetTime() time.Time
}

// Comparer provides ordering and comparison for different data types.
type Comparer interface {
	// Compare returns -1, 0, or 1 based on the comparison of two values.
	Compare(any, any) (int, error)
	// Comparable returns true if two values can be compared.
	Comparable(any, any) bool
}

// IDGenerator creates identifiers for documents stored without one.
type IDGenerator interface {
	// GenerateID returns a new unique identifier.
	GenerateID() (any, error)
}

// GetSetter reads and writes a single value located inside a document.
type GetSetter interface {
	// Get returns the value and whether it is defined.
	Get() (value any, defined bool)
	// Set replaces the value.
	Set(value any)
	// Unset removes the value. List elements are set to nil instead.
	Unset()
}
