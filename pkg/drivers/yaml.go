package drivers

import (
	"context"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// YAML is the driver for dict/yaml.
//
// The document should be a mapping. An empty document is an empty dict.
var YAML = newFileDriver(NewSpec("dict", "yaml"), decodeYAML, encodeYAML)

var errNotMapping = errors.New("document is not a mapping")

func decodeYAML(_ context.Context, r io.Reader) (map[string]any, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]any{}, nil
		}
		return nil, err
	}

	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) == 1 {
		root = root.Content[0]
	}
	if root.Kind == yaml.ScalarNode && root.Tag == "!!null" {
		return map[string]any{}, nil
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: line %d", errNotMapping, root.Line)
	}

	m := map[string]any{}
	if err := root.Decode(&m); err != nil {
		return nil, err
	}
	return m, nil
}

func encodeYAML(w io.Writer, v map[string]any) error {
	if v == nil {
		v = map[string]any{}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
