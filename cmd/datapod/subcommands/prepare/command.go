package prepare

import (
	"context"
	"encoding/json"
	"log"
	"maps"
	"slices"

	"github.com/opst/datapod/cmd/datapod/subcommands/common"
	"github.com/opst/datapod/pkg/catalog"
	"github.com/opst/datapod/pkg/drivers"
	"github.com/opst/datapod/pkg/table"
	"github.com/youta-t/flarc"
)

// Prepared is a report of an ingredient.
type Prepared struct {
	Name          string         `json:"name"`
	Location      string         `json:"location"`
	LogicalFormat string         `json:"logical_format"`
	FileFormat    string         `json:"file_format"`
	Summary       map[string]any `json:"summary"`
}

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Load every ingredient in the input manifest and show summaries of them.",
		struct{}{},
		flarc.Args{},
		common.NewTask(Task()),
	)
}

func Task() common.Task[struct{}] {
	return func(
		ctx context.Context,
		logger *log.Logger,
		env common.Env,
		cl flarc.Commandline[struct{}],
		params []any,
	) error {
		m, err := env.Ingredients()
		if err != nil {
			return err
		}
		ing, err := env.Catalog.PrepareIngredients(ctx, m)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cl.Stdout())
		enc.SetIndent("", "    ")
		return enc.Encode(Report(ing))
	}
}

// Report summarizes ingredients, in manifest order.
func Report(ing catalog.Ingredients) []Prepared {
	report := make([]Prepared, 0, ing.Len())
	for _, name := range ing.Names() {
		e, _ := ing.Entry(name)
		src, _ := ing.Source(name)
		v, _ := ing.Get(name)
		report = append(report, Prepared{
			Name:          name,
			Location:      src.Location.String(),
			LogicalFormat: e.LogicalFormat,
			FileFormat:    e.FileFormat,
			Summary:       Summarize(v),
		})
	}
	return report
}

// Summarize describes the shape of a loaded value.
//
//   - table: rows and columns
//   - dict: keys, sorted
//   - list: number of lines
//   - model: kind, version and number of features
func Summarize(v any) map[string]any {
	switch v := v.(type) {
	case table.Table:
		return map[string]any{"rows": v.NumRows(), "columns": v.Columns()}
	case map[string]any:
		return map[string]any{"keys": slices.Sorted(maps.Keys(v))}
	case []string:
		return map[string]any{"lines": len(v)}
	case drivers.Model:
		return map[string]any{"kind": v.Kind, "version": v.Version, "features": len(v.Features)}
	default:
		return map[string]any{}
	}
}
