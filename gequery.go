// Package gequery provides a fluent query and update builder for MongoDB-like
// document databases.
//
// A [Builder] accumulates filter predicates, update operators, projection,
// populations, sort and pagination parameters through chained calls, then
// executes them against a [Collection]. Two collections are provided: the
// mongodriver package talks to a MongoDB server and the memdriver package
// keeps documents in memory, following the same semantics.
//
// The basic usage starts with creating a new [Builder], which can be done by
// calling [New].
package gequery

import (
	"github.com/vinicius-lino-figueiredo/gequery/adapter/builder"
	"github.com/vinicius-lino-figueiredo/gequery/adapter/condition"
	"github.com/vinicius-lino-figueiredo/gequery/adapter/objectid"
	"github.com/vinicius-lino-figueiredo/gequery/adapter/update"
	"github.com/vinicius-lino-figueiredo/gequery/domain"
)

var (
	// ErrNotFound is returned by [Builder.FindOne] when no document matches
	// the condition.
	ErrNotFound = domain.ErrNotFound
	// ErrMissingID is returned by [Builder.Patch] when [Builder.WithID] was
	// never called.
	ErrMissingID = domain.ErrMissingID
	// ErrNonPointer is returned when a decode target is not a pointer.
	ErrNonPointer = domain.ErrNonPointer
)

// ErrTargetNil is returned when a decode target is a nil pointer.
type ErrTargetNil = domain.ErrTargetNil

// ErrDecode wraps third party decoding errors.
type ErrDecode = domain.ErrDecode

// ErrInvalidID is returned by [IDConverter] implementations when a value
// cannot be converted into a native identifier.
type ErrInvalidID = domain.ErrInvalidID

// ErrUpdateFilterType is returned when an update filter option changes
// between list and document across [Builder.AddUpdateFilter] calls.
type ErrUpdateFilterType = domain.ErrUpdateFilterType

// ErrUnresolvedPopulation is returned when the collection referenced by a
// population cannot be found.
type ErrUnresolvedPopulation = domain.ErrUnresolvedPopulation

// ErrCorruptFiles is returned when loading an in-memory database from a dump
// with too many unreadable lines.
type ErrCorruptFiles = domain.ErrCorruptFiles

// ErrDuplicateKey is returned when an in-memory collection already holds a
// document with the same _id.
type ErrDuplicateKey = domain.ErrDuplicateKey

// ErrCannotCompare is returned when two values cannot be ordered.
type ErrCannotCompare = domain.ErrCannotCompare

// ErrFlushToStorage is returned when a saved database file cannot be synced
// or closed.
type ErrFlushToStorage = domain.ErrFlushToStorage

// M is an unordered document.
type M = domain.M

// D is an ordered document, used for sort specifications.
type D = domain.D

// E is a single element of a [D].
type E = domain.E

// A is a list of values inside a document.
type A = domain.A

// Builder accumulates the parts of a query and executes it against a
// [Collection]. Results are decoded into T.
type Builder[T any] = builder.Builder[T]

// Page is the envelope returned by [Builder.Query].
type Page[T any] = domain.Page[T]

// Snapshot is the merged, read-only view of a [Builder].
type Snapshot = domain.Snapshot

// Population describes a reference resolved after reads.
type Population = domain.Population

// UpdateResult carries the counters reported for an update.
type UpdateResult = domain.UpdateResult

// DeleteResult carries the counters reported for a delete.
type DeleteResult = domain.DeleteResult

// Collection is the storage driver handle a [Builder] is bound to.
type Collection = domain.Collection

// IDConverter converts user provided identifiers into native ones.
type IDConverter = domain.IDConverter

// Decoder converts driver documents into caller types.
type Decoder = domain.Decoder

// Logger is satisfied by [log/slog.Logger] and most structured loggers.
type Logger = domain.Logger

// ContextualLogger is an optional extension of [Logger].
type ContextualLogger = domain.ContextualLogger

// Comparer orders document values.
type Comparer = domain.Comparer

// TimeGetter provides current time for $currentDate in memory.
type TimeGetter = domain.TimeGetter

// IDGenerator creates identifiers for documents stored in memory without one.
type IDGenerator = domain.IDGenerator

// Mode selects how a condition fragment is combined with the others.
type Mode = condition.Mode

const (
	// And merges the fragment into the main condition.
	And = condition.And
	// Or adds the fragment as one alternative of $or.
	Or = condition.Or
)

// Comparison is the operator used by [Builder.WhereDate].
type Comparison = condition.Comparison

// Comparison operators.
const (
	Gte = condition.Gte
	Gt  = condition.Gt
	Lt  = condition.Lt
	Lte = condition.Lte
	Eq  = condition.Eq
)

// Coordinates is a point used by [Builder.NearCoordinates].
type Coordinates = condition.Coordinates

// Predicate is a typed filter fragment accepted by [Builder.WherePredicate].
type Predicate = condition.Predicate

// DateType selects the value written by [Builder.SetCurrentDateOn].
type DateType = update.DateType

const (
	// Date writes a date.
	Date = update.Date
	// Timestamp writes a timestamp.
	Timestamp = update.Timestamp
)

// ArrayElement is the value written by [Builder.ModifyArrayElements].
type ArrayElement = update.ArrayElement

// Option configures a [Builder].
type Option = builder.Option

// New returns a [Builder] bound to coll, configured with the options:
//
// - [WithIDConverter]: sets how ids given to the builder are converted.
//
// - [WithDecoder]: sets how documents are decoded into T.
//
// - [WithLogger]: sets the logger for executed operations.
//
// - [WithDefaultLimit]: sets the page size used when no limit is set.
func New[T any](coll Collection, options ...Option) *Builder[T] {
	return builder.New[T](coll, options...)
}

// WithIDConverter sets the converter used by [Builder.WithID] and
// [Builder.WhiteList].
func WithIDConverter(c IDConverter) Option {
	return builder.WithIDConverter(c)
}

// WithDecoder sets the decoder used to convert results.
func WithDecoder(d Decoder) Option {
	return builder.WithDecoder(d)
}

// WithLogger sets the logger for executed operations.
func WithLogger(l Logger) Option {
	return builder.WithLogger(l)
}

// WithDefaultLimit sets the page size used by [Builder.Query] when no limit
// is set.
func WithDefaultLimit(l int64) Option {
	return builder.WithDefaultLimit(l)
}

// PushOption configures [Builder.Push].
type PushOption = domain.PushOption

// WithPushEach makes $push append every element of the given list.
func WithPushEach(e bool) PushOption {
	return domain.WithPushEach(e)
}

// WithPushSort re-sorts the array after the elements are pushed.
func WithPushSort(s D) PushOption {
	return domain.WithPushSort(s)
}

// PaginateOption overrides the parameters of [Builder.Query].
type PaginateOption = domain.PaginateOption

// WithPaginateOffset sets the number of documents skipped before the page.
func WithPaginateOffset(o int64) PaginateOption {
	return domain.WithPaginateOffset(o)
}

// WithPaginateLimit sets the page size.
func WithPaginateLimit(l int64) PaginateOption {
	return domain.WithPaginateLimit(l)
}

// WithPagination enables or disables pagination.
func WithPagination(p bool) PaginateOption {
	return domain.WithPagination(p)
}

// IsValidObjectID reports whether v can be used as an ObjectID: an ObjectID
// or its 24 characters hexadecimal form.
func IsValidObjectID(v any) bool {
	return objectid.IsValid(objectid.NewConverter(), v)
}

// NewObjectIDConverter returns the default [IDConverter].
func NewObjectIDConverter() IDConverter {
	return objectid.NewConverter()
}
