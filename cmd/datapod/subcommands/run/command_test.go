package run_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/opst/datapod/cmd/datapod/subcommands/common"
	"github.com/opst/datapod/cmd/datapod/subcommands/internal/commandline"
	"github.com/opst/datapod/cmd/datapod/subcommands/logger"
	"github.com/opst/datapod/cmd/datapod/subcommands/run"
	"github.com/opst/datapod/pkg/cmp"
	"github.com/opst/datapod/pkg/configs/pod"
	"github.com/opst/datapod/pkg/pipeline"
	"github.com/opst/datapod/pkg/storage"
	"github.com/opst/datapod/pkg/table"
	"github.com/opst/datapod/pkg/utils/try"
)

const ingredients = `
passengers:
  location: memory://run/train.csv
  file_format: csv
  logical_format: tabular
`

const passengers = "PassengerId,Age,Fare\n1,22,7.25\n2,38,71.2833\n"

func setup(t *testing.T, fullCourse string) (common.Env, *storage.MemoryStore) {
	t.Helper()
	dir := t.TempDir()
	in := filepath.Join(dir, "ingredients.yaml")
	out := filepath.Join(dir, "full_course.yaml")
	for p, c := range map[string]string{in: ingredients, out: fullCourse} {
		if err := os.WriteFile(p, []byte(c), 0644); err != nil {
			t.Fatal(err)
		}
	}
	store := storage.NewMemoryStore()
	store.Set("run/train.csv", []byte(passengers))
	env := common.NewEnv(
		pod.Config{Ingredients: in, FullCourse: out}, logger.Null(), storage.WithMemoryStore(store),
	)
	return env, store
}

func TestRun(t *testing.T) {
	t.Run("it converts csv ingredient into parquet dish", func(t *testing.T) {
		env, _ := setup(t, `
cleaned:
  location: memory://run/cleaned.parquet
  file_format: parquet
  logical_format: tabular
  ingredients_used: [passengers]
`)
		cl := commandline.New("datapod run", run.Flag{})
		if err := run.Task()(context.Background(), logger.Null(), env, cl, nil); err != nil {
			t.Fatal(err)
		}

		fc := try.To(env.Catalog.PlanCourse(try.To(env.FullCourse()).OrFatal(t))).OrFatal(t)
		dish, ok := fc.Dish("cleaned")
		if !ok {
			t.Fatal("dish not found")
		}
		got, ok := try.To(dish.Load(context.Background())).OrFatal(t).(table.Table)
		if !ok {
			t.Fatal("dish is not a table")
		}
		want := table.Must(table.New(
			table.Column{Name: "PassengerId", Kind: table.Int, Values: []any{int64(1), int64(2)}},
			table.Column{Name: "Age", Kind: table.Int, Values: []any{int64(22), int64(38)}},
			table.Column{Name: "Fare", Kind: table.Float, Values: []any{7.25, 71.2833}},
		))
		if !got.Equal(want) {
			t.Errorf("unexpected dish: %v", got)
		}
	})

	t.Run("it serves nothing in dry run", func(t *testing.T) {
		env, store := setup(t, `
cleaned:
  location: memory://run/cleaned.parquet
  file_format: parquet
  logical_format: tabular
  ingredients_used: [passengers]
`)
		cl := commandline.New("datapod run", run.Flag{DryRun: true})
		if err := run.Task()(context.Background(), logger.Null(), env, cl, nil); err != nil {
			t.Fatal(err)
		}
		if !cmp.SliceEq(store.Keys(), []string{"run/train.csv"}) {
			t.Errorf("something is served: %v", store.Keys())
		}
		if out := cl.Out.String(); !strings.Contains(out, "memory://run/cleaned.parquet") {
			t.Errorf("plan is not shown: %s", out)
		}
	})

	t.Run("it serves nothing when a dish uses two ingredients", func(t *testing.T) {
		env, store := setup(t, `
cleaned:
  location: memory://run/cleaned.parquet
  file_format: parquet
  logical_format: tabular
  ingredients_used: [passengers]
joined:
  location: memory://run/joined.csv
  file_format: csv
  logical_format: tabular
  ingredients_used: [passengers, passengers]
`)
		cl := commandline.New("datapod run", run.Flag{})
		err := run.Task()(context.Background(), logger.Null(), env, cl, nil)
		if !errors.Is(err, pipeline.ErrAmbiguousIngredients) {
			t.Fatalf("unexpected error: %v", err)
		}
		if !cmp.SliceEq(store.Keys(), []string{"run/train.csv"}) {
			t.Errorf("something is served: %v", store.Keys())
		}
	})
}
