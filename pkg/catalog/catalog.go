// Package catalog binds manifest entries to drivers.
//
// Input manifests become Ingredients, materialized values loaded from their locations.
// Output manifests become FullCourse, dishes with drivers bound to their destinations.
package catalog

import (
	"context"
	"io"
	"log"

	"github.com/opst/datapod/pkg/drivers"
	xe "github.com/opst/datapod/pkg/errors"
	"github.com/opst/datapod/pkg/manifest"
	"github.com/opst/datapod/pkg/storage"
)

type Catalog struct {
	registry *drivers.Registry
	resolver *storage.Resolver
	logger   *log.Logger
}

type Option func(*Catalog) *Catalog

// WithRegistry sets driver registry. Default is drivers.Default().
func WithRegistry(r *drivers.Registry) Option {
	return func(c *Catalog) *Catalog {
		c.registry = r
		return c
	}
}

// WithResolver sets storage resolver. Default is storage.DefaultResolver().
func WithResolver(r *storage.Resolver) Option {
	return func(c *Catalog) *Catalog {
		c.resolver = r
		return c
	}
}

// WithLogger sets logger. By default, logs are discarded.
func WithLogger(l *log.Logger) Option {
	return func(c *Catalog) *Catalog {
		c.logger = l
		return c
	}
}

func New(options ...Option) *Catalog {
	c := &Catalog{}
	for _, o := range options {
		c = o(c)
	}
	if c.registry == nil {
		c.registry = drivers.Default()
	}
	if c.resolver == nil {
		c.resolver = storage.DefaultResolver()
	}
	if c.logger == nil {
		c.logger = log.New(io.Discard, "", log.LstdFlags)
	}
	return c
}

// bind resolves the driver of the entry and binds it to the entry's location.
//
// unavailable is the error kind for locations which cannot be reached,
// ErrSourceUnavailable for inputs and ErrDestinationUnwritable for outputs.
func (c *Catalog) bind(e manifest.Entry, unavailable error) (drivers.Driver, error) {
	ctor, err := c.registry.Resolve(e.Spec())
	if err != nil {
		return nil, xe.WithItem(err, e.Name)
	}

	loc, err := storage.Parse(e.Location)
	if err != nil {
		return nil, xe.Item(xe.ErrManifestValidation, e.Name, e.Location, err)
	}

	fs, err := c.resolver.Filesystem(loc.Protocol, storage.Options(e.StorageOptions))
	if err != nil {
		return nil, xe.Item(unavailable, e.Name, e.Location, err)
	}
	return ctor(loc, fs), nil
}

// PrepareIngredients loads every entry of m, in declaration order.
//
// When any of them fails, it returns zero Ingredients and the error.
func (c *Catalog) PrepareIngredients(ctx context.Context, m manifest.Manifest) (Ingredients, error) {
	ing := Ingredients{items: map[string]ingredient{}}

	for _, e := range m.Entries() {
		d, err := c.bind(e, xe.ErrSourceUnavailable)
		if err != nil {
			return Ingredients{}, err
		}
		v, err := d.Load(ctx)
		if err != nil {
			return Ingredients{}, xe.WithItem(err, e.Name)
		}
		c.logger.Printf("prepared %q (%s) from %s", e.Name, d.Spec(), d.Location())

		ing.names = append(ing.names, e.Name)
		ing.items[e.Name] = ingredient{entry: e, location: d.Location(), value: v}
	}
	return ing, nil
}

// PlanCourse binds every entry of m to its driver, without any I/O.
//
// When any of them fails, it returns zero FullCourse and the error.
func (c *Catalog) PlanCourse(m manifest.Manifest) (FullCourse, error) {
	fc := FullCourse{dishes: map[string]Dish{}}

	for _, e := range m.Entries() {
		d, err := c.bind(e, xe.ErrDestinationUnwritable)
		if err != nil {
			return FullCourse{}, err
		}
		fc.names = append(fc.names, e.Name)
		fc.dishes[e.Name] = Dish{entry: e, driver: d, logger: c.logger}
	}
	return fc, nil
}
