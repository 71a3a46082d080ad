package drivers_test

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/opst/datapod/pkg/cmp"
	"github.com/opst/datapod/pkg/drivers"
	xe "github.com/opst/datapod/pkg/errors"
	"github.com/opst/datapod/pkg/storage"
	"github.com/opst/datapod/pkg/table"
	"github.com/opst/datapod/pkg/utils/try"
)

func modelEq(a, b drivers.Model) bool {
	return a.Kind == b.Kind &&
		a.Version == b.Version &&
		cmp.MapEq(a.Hyperparameters, b.Hyperparameters) &&
		cmp.SliceEq(a.Features, b.Features) &&
		bytes.Equal(a.Payload, b.Payload)
}

// valueEq compares values of logical formats.
func valueEq(a, b any) bool {
	switch x := a.(type) {
	case table.Table:
		y, ok := b.(table.Table)
		return ok && x.Equal(y)
	case []string:
		y, ok := b.([]string)
		return ok && cmp.SliceEq(x, y)
	case drivers.Model:
		y, ok := b.(drivers.Model)
		return ok && modelEq(x, y)
	default:
		return reflect.DeepEqual(a, b)
	}
}

func TestDrivers_RoundTrip(t *testing.T) {
	type When struct {
		ctor     drivers.Constructor
		location string
		value    any
	}
	type Then struct {
		value any
	}

	theory := func(when When, then Then) func(*testing.T) {
		return func(t *testing.T) {
			ctx := context.Background()
			store := storage.NewMemoryStore()
			testee := when.ctor(storage.MustParse(when.location), store.Filesystem())

			if exists := try.To(testee.Exists(ctx)).OrFatal(t); exists {
				t.Fatal("it exists before save")
			}
			if err := testee.Save(ctx, when.value); err != nil {
				t.Fatal(err)
			}
			if exists := try.To(testee.Exists(ctx)).OrFatal(t); !exists {
				t.Fatal("it does not exist after save")
			}

			got := try.To(testee.Load(ctx)).OrFatal(t)
			if !valueEq(then.value, got) {
				t.Errorf("round trip:\n- want: %#v\n-  got: %#v", then.value, got)
			}
		}
	}

	passengers := table.Must(table.New(
		table.Column{Name: "PassengerId", Kind: table.Int, Values: []any{int64(1), int64(2), int64(3)}},
		table.Column{Name: "Survived", Kind: table.Bool, Values: []any{false, true, nil}},
		table.Column{Name: "Name", Kind: table.String, Values: []any{"Braund, Mr. Owen", "Cumings, Mrs. John", "Heikkinen, Miss. Laina"}},
		table.Column{Name: "Age", Kind: table.Float, Values: []any{22.0, 38.0, nil}},
		table.Column{Name: "Fare", Kind: table.Float, Values: []any{7.25, 71.2833, 7.925}},
		table.Column{Name: "Cabin", Kind: table.String, Values: []any{nil, "C85", nil}},
	))
	unicode := table.Must(table.New(
		table.Column{Name: "名前", Kind: table.String, Values: []any{"Σπύρος", "日本語, \"quoted\"", "line\nbreak"}},
	))
	headerOnly := table.Must(table.New(
		table.Column{Name: "Name", Kind: table.String, Values: []any{}},
		table.Column{Name: "Cabin", Kind: table.String, Values: []any{}},
	))
	singleMissing := table.Must(table.New(
		table.Column{Name: "Cabin", Kind: table.Float, Values: []any{nil, 1.5}},
	))

	for _, tc := range []struct {
		name  string
		ctor  drivers.Constructor
		ext   string
		value table.Table
	}{
		{name: "passengers", value: passengers},
		{name: "unicode", value: unicode},
		{name: "header only", value: headerOnly},
		{name: "single column with missing", value: singleMissing},
	} {
		t.Run("csv "+tc.name, theory(
			When{ctor: drivers.CSV, location: "memory://data/" + tc.name + ".csv", value: tc.value},
			Then{value: tc.value},
		))
		t.Run("parquet "+tc.name, theory(
			When{ctor: drivers.Parquet, location: "memory://data/" + tc.name + ".parquet", value: tc.value},
			Then{value: tc.value},
		))
	}

	t.Run("csv empty table", theory(
		When{ctor: drivers.CSV, location: "memory://empty.csv", value: table.Must(table.New())},
		Then{value: table.Must(table.New())},
	))

	t.Run("json", theory(
		When{ctor: drivers.JSON, location: "memory://params.json", value: map[string]any{
			"n_estimators": 100.0,
			"criterion":    "gini",
			"features":     []any{"Age", "Fare"},
			"nested":       map[string]any{"bootstrap": true, "max_depth": nil},
		}},
		Then{value: map[string]any{
			"n_estimators": 100.0,
			"criterion":    "gini",
			"features":     []any{"Age", "Fare"},
			"nested":       map[string]any{"bootstrap": true, "max_depth": nil},
		}},
	))
	t.Run("json empty", theory(
		When{ctor: drivers.JSON, location: "memory://empty.json", value: map[string]any{}},
		Then{value: map[string]any{}},
	))

	t.Run("yaml", theory(
		When{ctor: drivers.YAML, location: "memory://params.yaml", value: map[string]any{
			"n_estimators": 100,
			"criterion":    "gini",
			"ratio":        0.25,
			"features":     []any{"Age", "Fare"},
			"nested":       map[string]any{"bootstrap": true},
		}},
		Then{value: map[string]any{
			"n_estimators": 100,
			"criterion":    "gini",
			"ratio":        0.25,
			"features":     []any{"Age", "Fare"},
			"nested":       map[string]any{"bootstrap": true},
		}},
	))
	t.Run("yaml empty", theory(
		When{ctor: drivers.YAML, location: "memory://empty.yaml", value: map[string]any{}},
		Then{value: map[string]any{}},
	))

	t.Run("text", theory(
		When{ctor: drivers.Text, location: "memory://names.txt", value: []string{"Braund", "Cumings", "日本語"}},
		Then{value: []string{"Braund", "Cumings", "日本語"}},
	))
	t.Run("text empty", theory(
		When{ctor: drivers.Text, location: "memory://empty.txt", value: []string{}},
		Then{value: []string{}},
	))

	model := drivers.Model{
		Kind:            "RandomForestClassifier",
		Version:         "1.0",
		Hyperparameters: map[string]string{"n_estimators": "100"},
		Features:        []string{"Pclass", "Sex", "Age"},
		Payload:         []byte{0x00, 0x01, 0xfe, 0xff},
	}
	t.Run("model", theory(
		When{ctor: drivers.MsgpackModel, location: "memory://model.bin", value: model},
		Then{value: model},
	))
	t.Run("model pointer", theory(
		When{ctor: drivers.MsgpackModel, location: "memory://model.bin", value: &model},
		Then{value: model},
	))
}

func TestDrivers_Errors(t *testing.T) {
	type When struct {
		ctor    drivers.Constructor
		content *string // nil means missing location.
		save    any
	}
	type Then struct {
		err error
	}

	ptr := func(s string) *string { return &s }

	theory := func(when When, then Then) func(*testing.T) {
		return func(t *testing.T) {
			ctx := context.Background()
			store := storage.NewMemoryStore()
			if when.content != nil {
				store.Set("item", []byte(*when.content))
			}
			testee := when.ctor(storage.MustParse("memory://item"), store.Filesystem())

			var err error
			if when.save != nil {
				err = testee.Save(ctx, when.save)
			} else {
				_, err = testee.Load(ctx)
			}
			if !errors.Is(err, then.err) {
				t.Fatalf("unexpected error: want %v, got %v", then.err, err)
			}

			ie := new(xe.ItemError)
			if !errors.As(err, &ie) {
				t.Fatalf("not an ItemError: %v", err)
			}
			if ie.Location() != "memory://item" {
				t.Errorf("location is not told: %s", err)
			}
		}
	}

	for name, ctor := range map[string]drivers.Constructor{
		"csv": drivers.CSV, "parquet": drivers.Parquet, "json": drivers.JSON,
		"yaml": drivers.YAML, "text": drivers.Text, "model": drivers.MsgpackModel,
	} {
		t.Run(name+" missing", theory(When{ctor: ctor}, Then{err: xe.ErrSourceUnavailable}))
		t.Run(name+" wrong type", theory(When{ctor: ctor, save: 42}, Then{err: xe.ErrSerialization}))
	}

	t.Run("csv ragged rows", theory(
		When{ctor: drivers.CSV, content: ptr("Age,Fare\n22,7.25\n38\n")},
		Then{err: xe.ErrDeserialization},
	))
	t.Run("csv duplicated header", theory(
		When{ctor: drivers.CSV, content: ptr("Age,Age\n22,38\n")},
		Then{err: xe.ErrDeserialization},
	))
	t.Run("parquet not parquet", theory(
		When{ctor: drivers.Parquet, content: ptr("Age,Fare\n22,7.25\n")},
		Then{err: xe.ErrDeserialization},
	))
	t.Run("parquet no columns", theory(
		When{ctor: drivers.Parquet, save: table.Must(table.New())},
		Then{err: xe.ErrSerialization},
	))
	t.Run("json array", theory(
		When{ctor: drivers.JSON, content: ptr(`["a", "b"]`)},
		Then{err: xe.ErrDeserialization},
	))
	t.Run("json broken", theory(
		When{ctor: drivers.JSON, content: ptr(`{"a": `)},
		Then{err: xe.ErrDeserialization},
	))
	t.Run("json trailing", theory(
		When{ctor: drivers.JSON, content: ptr(`{"a": 1} {"b": 2}`)},
		Then{err: xe.ErrDeserialization},
	))
	t.Run("json unencodable", theory(
		When{ctor: drivers.JSON, save: map[string]any{"f": func() {}}},
		Then{err: xe.ErrSerialization},
	))
	t.Run("yaml sequence", theory(
		When{ctor: drivers.YAML, content: ptr("- a\n- b\n")},
		Then{err: xe.ErrDeserialization},
	))
	t.Run("yaml broken", theory(
		When{ctor: drivers.YAML, content: ptr("a: [b\n")},
		Then{err: xe.ErrDeserialization},
	))
	t.Run("text with newline in item", theory(
		When{ctor: drivers.Text, save: []string{"a\nb"}},
		Then{err: xe.ErrSerialization},
	))
	t.Run("text with empty item", theory(
		When{ctor: drivers.Text, save: []string{"a", "", "b"}},
		Then{err: xe.ErrSerialization},
	))
	t.Run("text with item ending with carriage return", theory(
		When{ctor: drivers.Text, save: []string{"a", "b\r"}},
		Then{err: xe.ErrSerialization},
	))
	t.Run("model broken", theory(
		When{ctor: drivers.MsgpackModel, content: ptr("not a msgpack")},
		Then{err: xe.ErrDeserialization},
	))
	t.Run("model nil pointer", theory(
		When{ctor: drivers.MsgpackModel, save: (*drivers.Model)(nil)},
		Then{err: xe.ErrSerialization},
	))
}

func TestDrivers_LocalDestination(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	t.Run("save creates parent directories", func(t *testing.T) {
		loc := storage.MustParse(root + "/out/nested/names.txt")
		testee := drivers.Text(loc, storage.Local())
		if err := testee.Save(ctx, []string{"a"}); err != nil {
			t.Fatal(err)
		}
		if exists := try.To(testee.Exists(ctx)).OrFatal(t); !exists {
			t.Error("not saved")
		}
	})

	t.Run("model is put via local staging", func(t *testing.T) {
		loc := storage.MustParse("file://" + root + "/models/model.bin")
		testee := drivers.MsgpackModel(loc, storage.Local())
		if err := testee.Save(ctx, drivers.Model{Kind: "k"}); err != nil {
			t.Fatal(err)
		}
		got := try.To(testee.Load(ctx)).OrFatal(t)
		if m := got.(drivers.Model); m.Kind != "k" {
			t.Errorf("unexpected model: %#v", m)
		}
	})

	t.Run("destination under a file is unwritable", func(t *testing.T) {
		blocker := drivers.Text(storage.MustParse(root+"/blocker"), storage.Local())
		if err := blocker.Save(ctx, []string{"x"}); err != nil {
			t.Fatal(err)
		}
		testee := drivers.Text(storage.MustParse(root+"/blocker/names.txt"), storage.Local())
		err := testee.Save(ctx, []string{"a"})
		if !errors.Is(err, xe.ErrDestinationUnwritable) {
			t.Errorf("unexpected error: %v", err)
		}
		if !strings.Contains(err.Error(), "blocker/names.txt") {
			t.Errorf("location is not told: %v", err)
		}
	})
}

func TestText_Load(t *testing.T) {
	theory := func(content string, want []string) func(*testing.T) {
		return func(t *testing.T) {
			store := storage.NewMemoryStore()
			store.Set("names.txt", []byte(content))
			testee := drivers.Text(storage.MustParse("memory://names.txt"), store.Filesystem())

			got := try.To(testee.Load(context.Background())).OrFatal(t).([]string)
			if !cmp.SliceEq(got, want) {
				t.Errorf("want %q, got %q", want, got)
			}
		}
	}

	t.Run("it drops empty lines", theory("a\n\nb\n", []string{"a", "b"}))
	t.Run("it reads CRLF", theory("a\r\nb\r\n", []string{"a", "b"}))
	t.Run("it reads last line without newline", theory("a\nb", []string{"a", "b"}))
}
