package drivers

import (
	"bytes"
	"context"
	"fmt"
	"io"

	xe "github.com/opst/datapod/pkg/errors"
	"github.com/opst/datapod/pkg/storage"
)

// fileDriver is a driver which reads and writes whole content of the location at once.
type fileDriver[T any] struct {
	spec Spec
	loc  storage.Location
	fs   storage.Filesystem

	decode func(context.Context, io.Reader) (T, error)
	encode func(io.Writer, T) error
}

func newFileDriver[T any](
	spec Spec,
	decode func(context.Context, io.Reader) (T, error),
	encode func(io.Writer, T) error,
) Constructor {
	return func(loc storage.Location, fs storage.Filesystem) Driver {
		return &fileDriver[T]{spec: spec, loc: loc, fs: fs, decode: decode, encode: encode}
	}
}

func (d *fileDriver[T]) Spec() Spec {
	return d.spec
}

func (d *fileDriver[T]) Location() storage.Location {
	return d.loc
}

func (d *fileDriver[T]) Load(ctx context.Context) (any, error) {
	r, err := d.fs.Open(ctx, d.loc.Path)
	if err != nil {
		return nil, xe.Item(xe.ErrSourceUnavailable, "", d.loc.String(), err)
	}
	defer r.Close()

	v, err := d.decode(ctx, r)
	if err != nil {
		return nil, xe.Item(xe.ErrDeserialization, "", d.loc.String(), fmt.Errorf("%s: %w", d.spec, err))
	}
	return v, nil
}

func (d *fileDriver[T]) Save(ctx context.Context, data any) error {
	v, ok := data.(T)
	if !ok {
		return xe.Itemf(
			xe.ErrSerialization, "", d.loc.String(),
			"%s driver accepts %T, but got %T", d.spec, *new(T), data,
		)
	}

	buf := new(bytes.Buffer)
	if err := d.encode(buf, v); err != nil {
		return xe.Item(xe.ErrSerialization, "", d.loc.String(), fmt.Errorf("%s: %w", d.spec, err))
	}

	w, err := d.fs.Create(ctx, d.loc.Path)
	if err != nil {
		return xe.Item(xe.ErrDestinationUnwritable, "", d.loc.String(), err)
	}
	if _, err := io.Copy(w, buf); err != nil {
		w.Close()
		return xe.Item(xe.ErrDestinationUnwritable, "", d.loc.String(), err)
	}
	if err := w.Close(); err != nil {
		return xe.Item(xe.ErrDestinationUnwritable, "", d.loc.String(), err)
	}
	return nil
}

func (d *fileDriver[T]) Exists(ctx context.Context) (bool, error) {
	ok, err := d.fs.Exists(ctx, d.loc.Path)
	if err != nil {
		return false, xe.Item(xe.ErrSourceUnavailable, "", d.loc.String(), err)
	}
	return ok, nil
}
