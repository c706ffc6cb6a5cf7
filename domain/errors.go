package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a single document read cannot find any
	// matching document.
	ErrNotFound = errors.New("no document matches the condition")
	// ErrMissingID is returned by single target operations, like patch,
	// when the builder was never given a target id.
	ErrMissingID = errors.New("operation requires a target id")
	// ErrNonPointer is returned when a decode target is not a pointer.
	ErrNonPointer = errors.New("target must be a pointer")
)

// ErrTargetNil is returned when the passed target, which should be a pointer,
// is passed as a nil value.
type ErrTargetNil struct{}

func (e ErrTargetNil) Error() string { return "target interface is nil" }

// ErrDecode wraps third party decoding errors.
type ErrDecode struct {
	Source any
	Target any
}

func (e ErrDecode) Error() string {
	return fmt.Sprintf("cannot decode %T into %T", e.Source, e.Target)
}

// ErrInvalidID is returned by [IDConverter] implementations when a value
// cannot be converted into a native identifier.
type ErrInvalidID struct {
	Value any
}

func (e ErrInvalidID) Error() string {
	return fmt.Sprintf("invalid id %v (%T)", e.Value, e.Value)
}

// ErrUpdateFilterType is returned when an update filter option changes between
// list and object across calls, so the accumulated value cannot be merged.
type ErrUpdateFilterType struct {
	Name     string
	Previous any
	Next     any
}

func (e ErrUpdateFilterType) Error() string {
	return fmt.Sprintf("update filter %q cannot merge %T into %T", e.Name, e.Next, e.Previous)
}

// ErrUnresolvedPopulation is returned by drivers that cannot find the
// collection referenced by a population path.
type ErrUnresolvedPopulation struct {
	Path string
}

func (e ErrUnresolvedPopulation) Error() string {
	return fmt.Sprintf("cannot resolve referenced collection for path %q", e.Path)
}

// ErrInvalidPath is returned by in-memory drivers when a dotted path cannot be
// read or written in a document.
type ErrInvalidPath struct {
	Path   string
	Reason string
}

func (e ErrInvalidPath) Error() string {
	return fmt.Sprintf("invalid path %q: %s", e.Path, e.Reason)
}

// ErrUnknownOperator is returned by in-memory drivers for query or update
// operators they do not implement.
type ErrUnknownOperator struct {
	Operator string
}

func (e ErrUnknownOperator) Error() string {
	return fmt.Sprintf("unknown operator %s", e.Operator)
}

// ErrCannotCompare is returned by [Comparer] implementations when two values
// have no defined order.
type ErrCannotCompare struct {
	A, B any
}

func (e ErrCannotCompare) Error() string {
	return fmt.Sprintf("cannot compare unexpected types %T and %T", e.A, e.B)
}

// ErrCorruptFiles is returned when loading a dump with more unreadable lines
// than the accepted threshold.
type ErrCorruptFiles struct {
	CorruptionRate        float64
	CorruptItems          int
	DataLength            int
	CorruptAlertThreshold float64
}

func (e ErrCorruptFiles) Error() string {
	return fmt.Sprintf(
		"corrupted %.2f%% (%d of %d) exceeded threshold %.2f%%",
		e.CorruptionRate*100, e.CorruptItems, e.DataLength,
		e.CorruptAlertThreshold*100,
	)
}

// ErrDuplicateKey is returned by in-memory drivers when a document is stored
// with an _id already used in the collection.
type ErrDuplicateKey struct {
	Collection string
	ID         any
}

func (e ErrDuplicateKey) Error() string {
	return fmt.Sprintf("duplicate _id %v in collection %q", e.ID, e.Collection)
}

// ErrFlushToStorage is returned when a database file cannot be synced or
// closed after being written.
type ErrFlushToStorage struct {
	ErrorOnFsync error
	ErrorOnClose error
}

func (e ErrFlushToStorage) Error() string {
	return "storage flush error: " + e.Unwrap().Error()
}

func (e ErrFlushToStorage) Unwrap() error {
	if e.ErrorOnFsync != nil {
		return e.ErrorOnFsync
	}
	return e.ErrorOnClose
}
