package version

import (
	"context"

	"github.com/opst/datapod/pkg/buildtime"
	"github.com/youta-t/flarc"
)

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Show version of this command.",
		struct{}{},
		flarc.Args{},
		Task(),
	)
}

func Task() flarc.Task[struct{}] {
	return func(ctx context.Context, c flarc.Commandline[struct{}], a []any) error {
		_, err := c.Stdout().Write([]byte(buildtime.VersionString()))
		return err
	}
}
