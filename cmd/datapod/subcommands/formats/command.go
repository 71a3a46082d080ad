package formats

import (
	"context"
	"fmt"

	"github.com/opst/datapod/pkg/drivers"
	"github.com/youta-t/flarc"
)

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Show pairs of logical format and file format which can be used in manifests.",
		struct{}{},
		flarc.Args{},
		Task(drivers.Default()),
	)
}

func Task(registry *drivers.Registry) flarc.Task[struct{}] {
	return func(ctx context.Context, cl flarc.Commandline[struct{}], _ []any) error {
		for _, s := range registry.Specs() {
			if _, err := fmt.Fprintln(cl.Stdout(), s); err != nil {
				return err
			}
		}
		return nil
	}
}
