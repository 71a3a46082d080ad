package course

import (
	"context"
	"encoding/json"
	"log"

	"github.com/opst/datapod/cmd/datapod/subcommands/common"
	"github.com/opst/datapod/pkg/catalog"
	"github.com/youta-t/flarc"
)

type Planned struct {
	Name     string `json:"name"`
	Location string `json:"location"`
	Exists   bool   `json:"exists"`
}

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Show dishes in the output manifest and whether they have been served.",
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
		m, err := env.FullCourse()
		if err != nil {
			return err
		}
		fc, err := env.Catalog.PlanCourse(m)
		if err != nil {
			return err
		}
		report, err := Report(ctx, fc)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cl.Stdout())
		enc.SetIndent("", "    ")
		return enc.Encode(report)
	}
}

// Report checks existence of each dish, in manifest order.
func Report(ctx context.Context, fc catalog.FullCourse) ([]Planned, error) {
	report := make([]Planned, 0, fc.Len())
	for _, d := range fc.Dishes() {
		exists, err := d.Exists(ctx)
		if err != nil {
			return nil, err
		}
		report = append(report, Planned{Name: d.Name(), Location: d.Location().String(), Exists: exists})
	}
	return report, nil
}
