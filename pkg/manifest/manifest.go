// Package manifest reads manifests: YAML documents declaring named data items.
//
// A manifest is a mapping from item name to its record:
//
//	passengers:
//	  location: s3://bucket/titanic/train.csv
//	  file_format: csv
//	  logical_format: tabular
//	  storage_options:         # optional. passed to the backing filesystem.
//	    endpoint: minio:9000
//	  date_generated: 2024-01-02T03:04:05Z  # optional
//	  git_hash: 1a2b3c                      # optional
//	  dvc_hash: 4d5e6f                      # optional
//	  lineage: ...                          # optional. any value.
//	  ingredients_used: [raw_passengers]    # optional
//
// Entries keep the declaration order.
package manifest

import (
	"maps"
	"slices"
	"time"

	"github.com/opst/datapod/pkg/drivers"
)

// Provenance of a data item.
type Provenance struct {
	DateGenerated   *time.Time
	GitHash         string
	DvcHash         string
	Lineage         any
	IngredientsUsed []string
}

// Clone returns a deep copy.
func (p Provenance) Clone() Provenance {
	c := p
	if p.DateGenerated != nil {
		d := *p.DateGenerated
		c.DateGenerated = &d
	}
	c.IngredientsUsed = slices.Clone(p.IngredientsUsed)
	c.Lineage = cloneLineage(p.Lineage)
	return c
}

// cloneLineage copies lists and mappings decoded from YAML, recursively.
func cloneLineage(v any) any {
	switch v := v.(type) {
	case []any:
		c := make([]any, len(v))
		for i, x := range v {
			c[i] = cloneLineage(x)
		}
		return c
	case []string:
		return slices.Clone(v)
	case map[string]any:
		c := make(map[string]any, len(v))
		for k, x := range v {
			c[k] = cloneLineage(x)
		}
		return c
	default:
		return v
	}
}

// Entry is a named data item.
type Entry struct {
	Name          string
	Location      string
	FileFormat    string
	LogicalFormat string

	// StorageOptions are passed to the filesystem of Location. Can be nil.
	StorageOptions map[string]string

	Provenance Provenance
}

// Spec is the driver spec of this entry.
func (e Entry) Spec() drivers.Spec {
	return drivers.NewSpec(e.LogicalFormat, e.FileFormat)
}

// Clone returns a deep copy.
func (e Entry) Clone() Entry {
	c := e
	if e.StorageOptions != nil {
		c.StorageOptions = maps.Clone(e.StorageOptions)
	}
	c.Provenance = e.Provenance.Clone()
	return c
}

// Manifest is an ordered set of entries.
//
// Manifest is immutable. Accessors return copies.
type Manifest struct {
	source  string
	entries []Entry
}

// From creates Manifest with entries, in the given order.
//
// No validation is done.
func From(source string, entries ...Entry) Manifest {
	m := Manifest{source: source, entries: make([]Entry, len(entries))}
	for i, e := range entries {
		m.entries[i] = e.Clone()
	}
	return m
}

// Source is where the manifest has been read from.
func (m Manifest) Source() string {
	return m.source
}

// Names of entries, in declaration order.
func (m Manifest) Names() []string {
	names := make([]string, len(m.entries))
	for i, e := range m.entries {
		names[i] = e.Name
	}
	return names
}

// Entries in declaration order.
func (m Manifest) Entries() []Entry {
	es := make([]Entry, len(m.entries))
	for i, e := range m.entries {
		es[i] = e.Clone()
	}
	return es
}

func (m Manifest) Get(name string) (Entry, bool) {
	for _, e := range m.entries {
		if e.Name == name {
			return e.Clone(), true
		}
	}
	return Entry{}, false
}

func (m Manifest) Len() int {
	return len(m.entries)
}
