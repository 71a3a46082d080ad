package drivers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// JSON is the driver for dict/json.
//
// The document should be an object. Numbers are loaded as float64.
var JSON = newFileDriver(NewSpec("dict", "json"), decodeJSON, encodeJSON)

var errNotObject = errors.New("document is not an object")

func decodeJSON(_ context.Context, r io.Reader) (map[string]any, error) {
	dec := json.NewDecoder(r)

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %T", errNotObject, doc)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("document has trailing data")
	}
	return obj, nil
}

func encodeJSON(w io.Writer, v map[string]any) error {
	if v == nil {
		v = map[string]any{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
