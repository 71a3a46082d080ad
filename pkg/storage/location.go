package storage

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyLocation is returned when a location string is empty.
	ErrEmptyLocation = errors.New("storage: empty location")

	// ErrInvalidLocation is returned when a location has protocol but no path.
	ErrInvalidLocation = errors.New("storage: invalid location")
)

const (
	ProtocolFile   = "file"
	ProtocolMemory = "memory"
	ProtocolS3     = "s3"
)

// Location is where a data item is stored.
//
// Location is written as `protocol://path`, or as a bare local path.
//
//	"./data/train.csv"         -> file, ./data/train.csv
//	"file:///data/train.csv"   -> file, /data/train.csv
//	"local://data/train.csv"   -> file, data/train.csv
//	"s3://bucket/key/test.csv" -> s3, bucket/key/test.csv
//	"memory://any/key"         -> memory, any/key
type Location struct {
	Protocol string
	Path     string

	raw string
}

// Parse splits location string into protocol and path.
//
// Protocols are case-insensitive. "local" is an alias of "file".
func Parse(s string) (Location, error) {
	raw := s
	s = strings.TrimSpace(s)
	if s == "" {
		return Location{}, ErrEmptyLocation
	}

	protocol, path, found := strings.Cut(s, "://")
	if !found {
		return Location{Protocol: ProtocolFile, Path: s, raw: raw}, nil
	}

	protocol = strings.ToLower(protocol)
	if protocol == "local" {
		protocol = ProtocolFile
	}
	if protocol == "" || path == "" {
		return Location{}, fmt.Errorf("%w: %q", ErrInvalidLocation, raw)
	}

	return Location{Protocol: protocol, Path: path, raw: raw}, nil
}

// MustParse is Parse which panics on error.
func MustParse(s string) Location {
	l, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return l
}

// String returns the location as it has been written.
func (l Location) String() string {
	if l.raw != "" {
		return l.raw
	}
	if l.Protocol == ProtocolFile {
		return l.Path
	}
	return l.Protocol + "://" + l.Path
}

// Ext is the extension of the path, lower-cased, without leading dot.
func (l Location) Ext() string {
	base := l.Path
	if i := strings.LastIndex(base, "/"); 0 <= i {
		base = base[i+1:]
	}
	i := strings.LastIndex(base, ".")
	if i < 0 {
		return ""
	}
	return strings.ToLower(base[i+1:])
}
