// Package drivers implements format drivers: how a data item is loaded from and
// saved to its location.
//
// A driver is specified by a pair of logical format (in-memory representation)
// and file format (serialization):
//
//	logical | file    | Go value
//	--------|---------|----------------
//	tabular | csv     | table.Table
//	tabular | parquet | table.Table
//	dict    | json    | map[string]any
//	dict    | yaml    | map[string]any
//	list    | text    | []string
//	model   | msgpack | drivers.Model
//
// Drivers are looked up from a Registry and bound to one location.
package drivers

import (
	"context"
	"strings"

	"github.com/opst/datapod/pkg/storage"
)

// Spec identifies a driver.
type Spec struct {
	LogicalFormat string
	FileFormat    string
}

// NewSpec creates Spec with normalized format names.
func NewSpec(logical, file string) Spec {
	return Spec{LogicalFormat: normalize(logical), FileFormat: normalize(file)}
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (s Spec) normalized() Spec {
	return NewSpec(s.LogicalFormat, s.FileFormat)
}

func (s Spec) String() string {
	return s.LogicalFormat + "/" + s.FileFormat
}

// Driver loads and saves a data item on its location.
type Driver interface {
	// Load reads the location and returns the value of the logical format.
	//
	// Errors:
	//
	// - ErrSourceUnavailable: the location does not exist or is not readable.
	//
	// - ErrDeserialization: content is malformed for the file format.
	Load(ctx context.Context) (any, error)

	// Save writes data to the location.
	//
	// Errors:
	//
	// - ErrSerialization: data is not the Go type of the logical format, or cannot be encoded.
	//
	// - ErrDestinationUnwritable: the location cannot be opened or written.
	Save(ctx context.Context, data any) error

	// Exists tells the location is present.
	//
	// Missing location is (false, nil).
	Exists(ctx context.Context) (bool, error)

	Location() storage.Location

	Spec() Spec
}

// Constructor binds a driver to a location on the filesystem.
type Constructor func(loc storage.Location, fs storage.Filesystem) Driver
