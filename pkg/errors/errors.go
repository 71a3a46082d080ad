// Error taxonomy of the data-access layer.
//
// Every failure carries the kind (one of the sentinels below), the name of the
// catalog item, its location and the underlying cause, together with where the
// error has been raised.
//
// Usage:
//
// ```
// return xerrors.Item(xerrors.ErrSourceUnavailable, "passengers", "./train.csv", err)
// ```
//
// The message reads as
//
//	@ <func> "<file>" l<line> [passengers @ ./train.csv] <- data source unavailable <- <cause>
//
// `errors.Is` matches both the kind and the cause.
package errors

import (
	"errors"
	"fmt"
	"runtime"
)

var (
	// ErrManifestParse is returned when a manifest document cannot be read or is malformed.
	ErrManifestParse = errors.New("manifest is malformed")

	// ErrManifestValidation is returned when a manifest entry misses a required field
	// or has an invalid one.
	ErrManifestValidation = errors.New("manifest is invalid")

	// ErrDriverNotFound is returned when no driver is registered for a (logical, file) format pair.
	ErrDriverNotFound = errors.New("driver not found")

	// ErrSourceUnavailable is returned when a location to be loaded does not exist or is unreadable.
	ErrSourceUnavailable = errors.New("data source unavailable")

	// ErrDeserialization is returned when the content of a location is malformed for its format.
	ErrDeserialization = errors.New("data can not be deserialized")

	// ErrDestinationUnwritable is returned when a location to be saved can not be opened or written.
	ErrDestinationUnwritable = errors.New("destination unwritable")

	// ErrSerialization is returned when data can not be encoded in the format of its destination.
	ErrSerialization = errors.New("data can not be serialized")
)

type ItemError struct {
	kind     error
	item     string
	location string
	err      error

	file     string
	line     int
	funcname string
}

// Kind is one of the sentinel errors of this package.
func (e *ItemError) Kind() error {
	return e.kind
}

// Name of the catalog item. Can be empty when the error is not bound to an item.
func (e *ItemError) Item() string {
	return e.item
}

func (e *ItemError) Location() string {
	return e.location
}

func (e *ItemError) File() string {
	return e.file
}

func (e *ItemError) Line() int {
	return e.line
}

func (e *ItemError) Error() string {
	subject := ""
	switch {
	case e.item != "" && e.location != "":
		subject = fmt.Sprintf(" [%s @ %s]", e.item, e.location)
	case e.item != "":
		subject = fmt.Sprintf(" [%s]", e.item)
	case e.location != "":
		subject = fmt.Sprintf(" [@ %s]", e.location)
	}

	msg := fmt.Sprintf(`@ %s "%s" l%d%s <- %s`, e.funcname, e.file, e.line, subject, e.kind.Error())
	if e.err != nil {
		msg += " <- " + e.err.Error()
	}
	return msg
}

func (e *ItemError) Unwrap() []error {
	if e.err == nil {
		return []error{e.kind}
	}
	return []error{e.kind, e.err}
}

// Item creates an error of the kind, for the catalog item at the location, caused by err.
//
// err can be nil.
func Item(kind error, item string, location string, err error) error {
	return newItemError(kind, item, location, err, 1)
}

// Itemf is Item with a formatted cause.
func Itemf(kind error, item string, location string, format string, args ...any) error {
	return newItemError(kind, item, location, fmt.Errorf(format, args...), 1)
}

// WithItem names the item of err, when err is an *ItemError without item name.
//
// Other errors are returned as they are.
func WithItem(err error, item string) error {
	ie, ok := err.(*ItemError)
	if !ok || ie.item != "" {
		return err
	}
	named := *ie
	named.item = item
	return &named
}

func newItemError(kind error, item string, location string, err error, depth int) error {
	pc, file, line, ok := runtime.Caller(depth + 1)
	funcname := "(unknown func)"
	if !ok {
		file = "?"
		line = -1
	}
	if fn := runtime.FuncForPC(pc); fn != nil {
		funcname = fn.Name()
	}

	return &ItemError{
		kind:     kind,
		item:     item,
		location: location,
		err:      err,
		file:     file,
		line:     line,
		funcname: funcname,
	}
}
