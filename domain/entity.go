package domain

import "go.mongodb.org/mongo-driver/bson"

// M is an unordered document, used for every predicate, update and result
// fragment handled by the builder.
type M = bson.M

// D is an ordered document. It is used wherever key order matters, like sort
// specifications.
type D = bson.D

// E is a single element of a [D].
type E = bson.E

// A is a list of values inside a document.
type A = bson.A

// Population describes a reference that should be resolved into the
// referenced document(s) after a read. Nested populations are resolved on the
// documents loaded by the parent one.
type Population struct {
	// Path is the field holding the reference(s).
	Path string
	// Model is the name of the collection the references point to. Drivers
	// may resolve it from their own configuration when empty.
	Model string
	// Select is a space separated list of fields to keep ("a b") or omit
	// ("-a -b") in the populated documents.
	Select string
	// Populate is resolved against the documents loaded for this path.
	Populate *Population
}

// Snapshot is the fully merged, read-only view of a builder at query time.
// Parts that were never set are nil.
type Snapshot struct {
	Condition  M
	Projection M
	Populate   []Population
	Skip       *int64
	Limit      *int64
	Sort       D
}

// Page is the envelope returned by paginated reads.
type Page[T any] struct {
	// Total is the number of documents matching the condition, ignoring
	// skip and limit.
	Total int64
	// CurrentPageIndex is the zero based index of the returned page.
	CurrentPageIndex int64
	// MaxPageIndex is the zero based index of the last page.
	MaxPageIndex int64
	// Results holds the decoded documents of the page.
	Results []T
}

// PageResult is what a [Collection] returns for a paginated read.
type PageResult struct {
	TotalDocs int64
	Docs      []M
}

// UpdateResult carries the counters reported by the driver for an update.
type UpdateResult struct {
	MatchedCount  int64
	ModifiedCount int64
	UpsertedCount int64
	UpsertedID    any
}

// DeleteResult carries the counters reported by the driver for a delete.
type DeleteResult struct {
	DeletedCount int64
}
