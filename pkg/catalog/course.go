package catalog

import (
	"context"
	"log"
	"slices"

	"github.com/opst/datapod/pkg/drivers"
	xe "github.com/opst/datapod/pkg/errors"
	"github.com/opst/datapod/pkg/manifest"
	"github.com/opst/datapod/pkg/storage"
)

// Dish is an output entry with its bound driver.
type Dish struct {
	entry  manifest.Entry
	driver drivers.Driver
	logger *log.Logger
}

func (d Dish) Name() string {
	return d.entry.Name
}

func (d Dish) Entry() manifest.Entry {
	return d.entry.Clone()
}

func (d Dish) Spec() drivers.Spec {
	return d.driver.Spec()
}

func (d Dish) Location() storage.Location {
	return d.driver.Location()
}

// Save writes data to the destination of the dish.
func (d Dish) Save(ctx context.Context, data any) error {
	if err := d.driver.Save(ctx, data); err != nil {
		return xe.WithItem(err, d.entry.Name)
	}
	d.logger.Printf("saved %q (%s) to %s", d.entry.Name, d.driver.Spec(), d.driver.Location())
	return nil
}

// Exists tells the destination of the dish is present.
func (d Dish) Exists(ctx context.Context) (bool, error) {
	ok, err := d.driver.Exists(ctx)
	if err != nil {
		return false, xe.WithItem(err, d.entry.Name)
	}
	return ok, nil
}

// Load reads back the dish from its destination.
func (d Dish) Load(ctx context.Context) (any, error) {
	v, err := d.driver.Load(ctx)
	if err != nil {
		return nil, xe.WithItem(err, d.entry.Name)
	}
	return v, nil
}

// Provenance of the dish, cooked from ingredients.
//
// When the entry has no lineage, lineage is locations of ingredients_used
// which are found by ingredients, in order.
// Pass Ingredients for loaded ingredients, or Declared for a manifest.
func (d Dish) Provenance(ingredients Locator) manifest.Provenance {
	prov := d.entry.Provenance.Clone()
	if prov.Lineage != nil {
		return prov
	}
	lineage := []string{}
	for _, name := range prov.IngredientsUsed {
		if loc, ok := ingredients.Locate(name); ok {
			lineage = append(lineage, loc)
		}
	}
	prov.Lineage = lineage
	return prov
}

// FullCourse are dishes of an output manifest.
type FullCourse struct {
	names  []string
	dishes map[string]Dish
}

// Names of dishes, in manifest order.
func (fc FullCourse) Names() []string {
	return slices.Clone(fc.names)
}

func (fc FullCourse) Dish(name string) (Dish, bool) {
	d, ok := fc.dishes[name]
	return d, ok
}

// Dishes in manifest order.
func (fc FullCourse) Dishes() []Dish {
	ds := make([]Dish, len(fc.names))
	for i, n := range fc.names {
		ds[i] = fc.dishes[n]
	}
	return ds
}

func (fc FullCourse) Len() int {
	return len(fc.names)
}
