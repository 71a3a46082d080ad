package run

import (
	"context"
	"fmt"
	"log"

	"github.com/opst/datapod/cmd/datapod/subcommands/common"
	"github.com/opst/datapod/pkg/pipeline"
	"github.com/youta-t/flarc"
)

type Flag struct {
	DryRun bool `flag:"dry-run" help:"prepare ingredients and plan the course, but do not serve dishes"`
}

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		`Serve every dish in the output manifest from the ingredient named in its "ingredients_used".

Dishes are written in their own formats, so this converts formats of ingredients (e.g. csv to parquet).
`,
		Flag{},
		flarc.Args{},
		common.NewTask(Task()),
	)
}

func Task() common.Task[Flag] {
	return func(
		ctx context.Context,
		logger *log.Logger,
		env common.Env,
		cl flarc.Commandline[Flag],
		params []any,
	) error {
		in, err := env.Ingredients()
		if err != nil {
			return err
		}
		out, err := env.FullCourse()
		if err != nil {
			return err
		}

		fc, err := env.Catalog.PlanCourse(out)
		if err != nil {
			return err
		}
		ing, err := env.Catalog.PrepareIngredients(ctx, in)
		if err != nil {
			return err
		}

		stage := pipeline.Passthrough(fc)
		if cl.Flags().DryRun {
			if _, err := stage.Cook(ctx, ing); err != nil {
				return err
			}
			for _, d := range fc.Dishes() {
				fmt.Fprintf(
					cl.Stdout(), "%s (%s) <- %v\n",
					d.Location(), d.Spec(), d.Entry().Provenance.IngredientsUsed,
				)
			}
			return nil
		}

		if err := pipeline.Run(ctx, stage, ing, fc, logger); err != nil {
			return err
		}
		logger.Printf("%d dishes are served", fc.Len())
		return nil
	}
}
