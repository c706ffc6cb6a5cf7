package modifier

import (
	"errors"
	"fmt"
)

var (
	// ErrReplacement is returned when an update holds plain fields instead
	// of update operators.
	ErrReplacement = errors.New("update document must only contain update operators")
	// ErrNonObject is returned when an operator is not given a document of
	// fields.
	ErrNonObject = errors.New("update operator arguments must be a document")
	// ErrCannotModifyID is returned when an update changes the _id field.
	ErrCannotModifyID = errors.New("cannot modify the _id field")
	// ErrNoPositionalMatch is returned when the query does not select the
	// list element updated through "$".
	ErrNoPositionalMatch = errors.New("the positional operator did not find the match needed from the query")
)

// ErrModArgType is returned when an update operator is called with an
// argument of invalid type.
type ErrModArgType struct {
	Mod    string
	Want   string
	Actual any
}

// Error implements [error].
func (e ErrModArgType) Error() string {
	return fmt.Sprintf("%s argument should be of type %s, got %T", e.Mod, e.Want, e.Actual)
}

// ErrModFieldType is returned when the updated field has a type the operator
// cannot handle.
type ErrModFieldType struct {
	Mod    string
	Want   string
	Actual any
}

// Error implements [error].
func (e ErrModFieldType) Error() string {
	return fmt.Sprintf("%s can only be applied to fields of type %s, got %T", e.Mod, e.Want, e.Actual)
}

// ErrMissingArrayFilter is returned for "$[id]" segments without a matching
// array filter.
type ErrMissingArrayFilter struct {
	Identifier string
}

// Error implements [error].
func (e ErrMissingArrayFilter) Error() string {
	return fmt.Sprintf("no array filter found for identifier %q", e.Identifier)
}
