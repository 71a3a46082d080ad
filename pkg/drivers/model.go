package drivers

import (
	"context"
	"fmt"
	"os"

	xe "github.com/opst/datapod/pkg/errors"
	"github.com/opst/datapod/pkg/storage"
	"github.com/vmihailenco/msgpack/v5"
)

// Model is a serialized model with its metadata.
type Model struct {
	// Kind of the model, like "RandomForestClassifier".
	Kind string `msgpack:"kind" json:"kind"`

	Version string `msgpack:"version" json:"version"`

	Hyperparameters map[string]string `msgpack:"hyperparameters" json:"hyperparameters,omitempty"`

	// Features are names of input columns, in order.
	Features []string `msgpack:"features" json:"features,omitempty"`

	// Payload is the opaque trained state.
	Payload []byte `msgpack:"payload" json:"-"`
}

// MsgpackModel is the driver for model/msgpack.
//
// Save stages the encoded model in a local temporary file, and transfers it to the location.
func MsgpackModel(loc storage.Location, fs storage.Filesystem) Driver {
	return &modelDriver{loc: loc, fs: fs}
}

type modelDriver struct {
	loc storage.Location
	fs  storage.Filesystem
}

func (d *modelDriver) Spec() Spec {
	return NewSpec("model", "msgpack")
}

func (d *modelDriver) Location() storage.Location {
	return d.loc
}

func (d *modelDriver) Load(ctx context.Context) (any, error) {
	r, err := d.fs.Open(ctx, d.loc.Path)
	if err != nil {
		return nil, xe.Item(xe.ErrSourceUnavailable, "", d.loc.String(), err)
	}
	defer r.Close()

	m := Model{}
	if err := msgpack.NewDecoder(r).Decode(&m); err != nil {
		return nil, xe.Item(xe.ErrDeserialization, "", d.loc.String(), fmt.Errorf("%s: %w", d.Spec(), err))
	}
	return m, nil
}

func (d *modelDriver) Save(ctx context.Context, data any) error {
	var m Model
	switch v := data.(type) {
	case Model:
		m = v
	case *Model:
		if v == nil {
			return xe.Itemf(xe.ErrSerialization, "", d.loc.String(), "%s driver got nil", d.Spec())
		}
		m = *v
	default:
		return xe.Itemf(
			xe.ErrSerialization, "", d.loc.String(),
			"%s driver accepts %T, but got %T", d.Spec(), Model{}, data,
		)
	}

	blob, err := msgpack.Marshal(m)
	if err != nil {
		return xe.Item(xe.ErrSerialization, "", d.loc.String(), err)
	}

	staged, err := os.CreateTemp("", "datapod-model-*")
	if err != nil {
		return xe.Item(xe.ErrDestinationUnwritable, "", d.loc.String(), err)
	}
	defer os.Remove(staged.Name())

	if _, err := staged.Write(blob); err != nil {
		staged.Close()
		return xe.Item(xe.ErrDestinationUnwritable, "", d.loc.String(), err)
	}
	if err := staged.Close(); err != nil {
		return xe.Item(xe.ErrDestinationUnwritable, "", d.loc.String(), err)
	}

	if err := d.fs.Put(ctx, staged.Name(), d.loc.Path); err != nil {
		return xe.Item(xe.ErrDestinationUnwritable, "", d.loc.String(), err)
	}
	return nil
}

func (d *modelDriver) Exists(ctx context.Context) (bool, error) {
	ok, err := d.fs.Exists(ctx, d.loc.Path)
	if err != nil {
		return false, xe.Item(xe.ErrSourceUnavailable, "", d.loc.String(), err)
	}
	return ok, nil
}
