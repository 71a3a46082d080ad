package catalog

import (
	"slices"

	"github.com/opst/datapod/pkg/manifest"
	"github.com/opst/datapod/pkg/storage"
)

type ingredient struct {
	entry    manifest.Entry
	location storage.Location
	value    any
}

// Ingredients are values loaded from an input manifest.
type Ingredients struct {
	names []string
	items map[string]ingredient
}

// Source tells where an ingredient came from.
type Source struct {
	Name     string
	Location storage.Location
	Spec     string

	// Provenance of the entry. Lineage defaults to the location.
	Provenance manifest.Provenance
}

// Names of ingredients, in manifest order.
func (i Ingredients) Names() []string {
	return slices.Clone(i.names)
}

// Get returns the loaded value.
//
// Values are not copied. Do not modify them.
func (i Ingredients) Get(name string) (any, bool) {
	it, ok := i.items[name]
	if !ok {
		return nil, false
	}
	return it.value, true
}

// Values returns a new map from name to value.
func (i Ingredients) Values() map[string]any {
	m := make(map[string]any, len(i.items))
	for k, v := range i.items {
		m[k] = v.value
	}
	return m
}

// Entry returns the manifest entry of the ingredient.
func (i Ingredients) Entry(name string) (manifest.Entry, bool) {
	it, ok := i.items[name]
	if !ok {
		return manifest.Entry{}, false
	}
	return it.entry.Clone(), true
}

// Source returns the traceability of the ingredient.
func (i Ingredients) Source(name string) (Source, bool) {
	it, ok := i.items[name]
	if !ok {
		return Source{}, false
	}
	prov := it.entry.Provenance.Clone()
	if prov.Lineage == nil {
		prov.Lineage = it.location.String()
	}
	return Source{
		Name:       name,
		Location:   it.location,
		Spec:       it.entry.Spec().String(),
		Provenance: prov,
	}, true
}

// Locate is the location where the ingredient has been loaded from.
func (i Ingredients) Locate(name string) (string, bool) {
	it, ok := i.items[name]
	if !ok {
		return "", false
	}
	return it.location.String(), true
}

func (i Ingredients) Len() int {
	return len(i.names)
}

// Locator finds locations of ingredients by name.
type Locator interface {
	Locate(name string) (string, bool)
}

type declared struct {
	m manifest.Manifest
}

// Declared is a Locator of the locations declared in the input manifest,
// for ingredients which are not loaded.
func Declared(m manifest.Manifest) Locator {
	return declared{m: m}
}

func (d declared) Locate(name string) (string, bool) {
	e, ok := d.m.Get(name)
	if !ok {
		return "", false
	}
	return e.Location, true
}
