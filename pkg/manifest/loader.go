package manifest

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/opst/datapod/pkg/drivers"
	xe "github.com/opst/datapod/pkg/errors"
	"github.com/opst/datapod/pkg/storage"
	"gopkg.in/yaml.v3"
)

const (
	fieldLocation        = "location"
	fieldFileFormat      = "file_format"
	fieldLogicalFormat   = "logical_format"
	fieldStorageOptions  = "storage_options"
	fieldDateGenerated   = "date_generated"
	fieldGitHash         = "git_hash"
	fieldDvcHash         = "dvc_hash"
	fieldLineage         = "lineage"
	fieldIngredientsUsed = "ingredients_used"
)

// Load reads a manifest file on the local disk.
func Load(path string) (Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return Manifest{}, xe.Item(xe.ErrManifestParse, "", path, err)
	}
	defer f.Close()

	return Parse(f, path)
}

// Parse reads a manifest document from r.
//
// source is used in error messages and as Manifest.Source.
//
// Errors:
//
// - ErrManifestParse: r is not readable, is malformed YAML, or is not a mapping of mappings.
//
// - ErrManifestValidation: an entry misses required fields, has unknown or invalid fields,
// or names are duplicated. Validation errors of all entries are joined.
//
// On error, no Manifest is returned.
func Parse(r io.Reader, source string) (Manifest, error) {
	doc := yaml.Node{}
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return Manifest{source: source, entries: []Entry{}}, nil
		}
		return Manifest{}, xe.Item(xe.ErrManifestParse, "", source, err)
	}

	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) == 1 {
		root = root.Content[0]
	}
	if root.Kind == yaml.ScalarNode && root.Tag == "!!null" {
		return Manifest{source: source, entries: []Entry{}}, nil
	}
	if root.Kind != yaml.MappingNode {
		return Manifest{}, xe.Itemf(
			xe.ErrManifestParse, "", at(source, root),
			"manifest should be a mapping from name to record",
		)
	}

	entries := []Entry{}
	seen := map[string]int{}
	var errs []error

	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		if key.Kind != yaml.ScalarNode {
			return Manifest{}, xe.Itemf(xe.ErrManifestParse, "", at(source, key), "name should be a scalar")
		}
		name := key.Value
		if value.Kind != yaml.MappingNode {
			return Manifest{}, xe.Itemf(xe.ErrManifestParse, name, at(source, value), "record should be a mapping")
		}

		if line, ok := seen[name]; ok {
			errs = append(errs, xe.Itemf(
				xe.ErrManifestValidation, name, at(source, key), "duplicated name (first at line %d)", line,
			))
			continue
		}
		seen[name] = key.Line

		e, err := parseEntry(name, value, source)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		entries = append(entries, e)
	}

	if err := errors.Join(errs...); err != nil {
		return Manifest{}, err
	}
	return Manifest{source: source, entries: entries}, nil
}

func at(source string, node *yaml.Node) string {
	return fmt.Sprintf("%s:%d", source, node.Line)
}

func isNull(node *yaml.Node) bool {
	return node.Kind == yaml.ScalarNode && node.Tag == "!!null"
}

func parseEntry(name string, record *yaml.Node, source string) (Entry, error) {
	e := Entry{Name: name}
	var errs []error
	invalid := func(node *yaml.Node, format string, args ...any) {
		errs = append(errs, xe.Item(xe.ErrManifestValidation, name, at(source, node), fmt.Errorf(format, args...)))
	}

	scalar := func(field string, node *yaml.Node) string {
		if isNull(node) {
			return ""
		}
		if node.Kind != yaml.ScalarNode {
			invalid(node, "%s should be a string", field)
			return ""
		}
		return node.Value
	}

	for i := 0; i+1 < len(record.Content); i += 2 {
		key, value := record.Content[i], record.Content[i+1]

		switch key.Value {
		case fieldLocation:
			e.Location = strings.TrimSpace(scalar(key.Value, value))
		case fieldFileFormat:
			e.FileFormat = strings.TrimSpace(scalar(key.Value, value))
		case fieldLogicalFormat:
			e.LogicalFormat = strings.TrimSpace(scalar(key.Value, value))
		case fieldGitHash:
			e.Provenance.GitHash = scalar(key.Value, value)
		case fieldDvcHash:
			e.Provenance.DvcHash = scalar(key.Value, value)
		case fieldDateGenerated:
			if isNull(value) {
				continue
			}
			d, err := parseDate(value)
			if err != nil {
				invalid(value, "%s: %w", key.Value, err)
				continue
			}
			e.Provenance.DateGenerated = &d
		case fieldLineage:
			var lineage any
			if err := value.Decode(&lineage); err != nil {
				invalid(value, "%s: %w", key.Value, err)
				continue
			}
			e.Provenance.Lineage = lineage
		case fieldIngredientsUsed:
			if isNull(value) {
				continue
			}
			used, ok := stringList(value)
			if !ok {
				invalid(value, "%s should be a list of strings", key.Value)
				continue
			}
			e.Provenance.IngredientsUsed = used
		case fieldStorageOptions:
			if isNull(value) {
				continue
			}
			opts, ok := stringMap(value)
			if !ok {
				invalid(value, "%s should be a mapping from string to string", key.Value)
				continue
			}
			e.StorageOptions = opts
		default:
			invalid(key, "unknown field %q", key.Value)
		}
	}

	for _, required := range []struct{ field, value string }{
		{fieldLocation, e.Location},
		{fieldFileFormat, e.FileFormat},
		{fieldLogicalFormat, e.LogicalFormat},
	} {
		if required.value == "" {
			invalid(record, "%s is required", required.field)
		}
	}

	if err := errors.Join(errs...); err != nil {
		return Entry{}, err
	}
	return e, nil
}

// parseDate accepts RFC3339 and YAML timestamps.
func parseDate(node *yaml.Node) (time.Time, error) {
	if node.Kind != yaml.ScalarNode {
		return time.Time{}, errors.New("should be a timestamp")
	}
	t := time.Time{}
	if err := node.Decode(&t); err == nil {
		return t, nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05", time.DateOnly} {
		if t, err := time.Parse(layout, node.Value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%q is not a timestamp", node.Value)
}

func stringList(node *yaml.Node) ([]string, bool) {
	if node.Kind != yaml.SequenceNode {
		return nil, false
	}
	list := make([]string, 0, len(node.Content))
	for _, item := range node.Content {
		if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
			return nil, false
		}
		list = append(list, item.Value)
	}
	return list, true
}

func stringMap(node *yaml.Node) (map[string]string, bool) {
	if node.Kind != yaml.MappingNode {
		return nil, false
	}
	m := map[string]string{}
	for i := 0; i+1 < len(node.Content); i += 2 {
		k, v := node.Content[i], node.Content[i+1]
		if k.Kind != yaml.ScalarNode || v.Kind != yaml.ScalarNode || isNull(v) {
			return nil, false
		}
		m[k.Value] = v.Value
	}
	return m, true
}

// ValidateAgainst checks the manifest can be served without any I/O:
// each entry has a valid location and a driver registered in registry.
//
// When inputs are given, each name in ingredients_used should be an entry of one of them.
func ValidateAgainst(m Manifest, registry *drivers.Registry, inputs ...Manifest) error {
	var errs []error
	for _, e := range m.entries {
		if _, err := storage.Parse(e.Location); err != nil {
			errs = append(errs, xe.Item(xe.ErrManifestValidation, e.Name, e.Location, err))
		}
		if _, err := registry.Resolve(e.Spec()); err != nil {
			errs = append(errs, xe.WithItem(err, e.Name))
		}
		if len(inputs) == 0 {
			continue
		}
		for _, used := range e.Provenance.IngredientsUsed {
			found := false
			for _, in := range inputs {
				if _, ok := in.Get(used); ok {
					found = true
					break
				}
			}
			if !found {
				errs = append(errs, xe.Itemf(
					xe.ErrManifestValidation, e.Name, m.source, "ingredient %q is not declared", used,
				))
			}
		}
	}
	return errors.Join(errs...)
}
