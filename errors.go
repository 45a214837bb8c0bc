package objtree

import (
	"fmt"
)

// EmptyReferenceError reports a structural operation on the zero Object.
type EmptyReferenceError struct {
	Op string
}

func (e *EmptyReferenceError) Error() string {
	return fmt.Sprintf("objtree: %s on empty reference", e.Op)
}

// WrongTypeError reports access requesting a representation the value does not have.
type WrongTypeError struct {
	Actual   Kind
	Expected Kind
}

func (e *WrongTypeError) Error() string {
	if e.Expected == Empty {
		return fmt.Sprintf("objtree: unexpected %v value", e.Actual)
	}
	return fmt.Sprintf("objtree: have %v, want %v", e.Actual, e.Expected)
}

// WriteProtectedError reports a mutation of a bound object whose resolved mode
// lacks write access.
type WriteProtectedError struct{}

func (e *WriteProtectedError) Error() string {
	return "objtree: data source is write-protected"
}

// ClobberProtectedError reports whole-value replacement of a sparse bound object
// whose resolved mode lacks clobber access.
type ClobberProtectedError struct{}

func (e *ClobberProtectedError) Error() string {
	return "objtree: data source is clobber-protected"
}

// DataSourceError wraps a failure reported by a DataSource operation.
type DataSourceError struct {
	Op  string
	Err error
}

func (e *DataSourceError) Error() string {
	return fmt.Sprintf("objtree: data source %s: %v", e.Op, e.Err)
}

func (e *DataSourceError) Unwrap() error {
	return e.Err
}

// PathError reports a path that cannot be parsed or resolved.
type PathError struct {
	Path   string
	Reason string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("objtree: invalid path %q: %s", e.Path, e.Reason)
}

// RangeError reports an index or slice outside the valid range of a value.
type RangeError struct {
	Index int64
	Size  int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("objtree: index %d out of range for size %d", e.Index, e.Size)
}

// BindError reports a URI that cannot be bound to a data source.
type BindError struct {
	URI    string
	Reason string
}

func (e *BindError) Error() string {
	return fmt.Sprintf("objtree: cannot bind %q: %s", e.URI, e.Reason)
}

func wrongType(actual Kind, expected ...Kind) error {
	e := &WrongTypeError{Actual: actual}
	if len(expected) > 0 {
		e.Expected = expected[0]
	}
	return e
}

func emptyRef(op string) error {
	return &EmptyReferenceError{Op: op}
}
