package serve

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/opst/datapod/cmd/datapod/server"
	"github.com/opst/datapod/cmd/datapod/subcommands/common"
	"github.com/opst/datapod/pkg/utils/filewatch"
	"github.com/youta-t/flarc"
)

type Flag struct {
	Port int `flag:"port" help:"port number where datapod serves on. Defaults to server.port in configuration"`
}

type Option struct {
	start func(ctx context.Context, s *server.Server, address string) error
}

// WithStart replaces how the server starts.
func WithStart(start func(ctx context.Context, s *server.Server, address string) error) func(*Option) *Option {
	return func(o *Option) *Option {
		o.start = start
		return o
	}
}

func New(options ...func(*Option) *Option) (flarc.Command, error) {
	option := &Option{
		start: func(ctx context.Context, s *server.Server, address string) error {
			return s.Start(ctx, address)
		},
	}
	for _, opt := range options {
		option = opt(option)
	}

	return flarc.NewCommand(
		`Serve the catalog of this pod over HTTP, read-only.

It stops when the configuration file or one of manifests is modified.
`,
		Flag{},
		flarc.Args{},
		common.NewTask(Task(option.start)),
	)
}

func Task(
	start func(ctx context.Context, s *server.Server, address string) error,
) common.Task[Flag] {
	return func(
		ctx context.Context,
		logger *log.Logger,
		env common.Env,
		cl flarc.Commandline[Flag],
		params []any,
	) error {
		port := env.Config.Server.Port
		if p := cl.Flags().Port; p != 0 {
			if p < 0 || 65535 < p {
				return fmt.Errorf("%w: --port should be in 1-65535, but %d", flarc.ErrUsage, p)
			}
			port = p
		}

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

		watched := env.Config.Files()
		if env.ConfigFile != "" {
			watched = append(watched, env.ConfigFile)
		}
		wctx, cancel, err := filewatch.UntilModifyContext(ctx, watched...)
		if err != nil {
			return fmt.Errorf("failed to watch %v: %w", watched, err)
		}
		defer cancel()

		s := server.New(fc, in, server.WithLogLevel(env.Config.Server.LogLevel))
		logger.Printf("serving %d dishes and %d ingredients on port %d", fc.Len(), in.Len(), port)
		if err := start(wctx, s, fmt.Sprintf(":%d", port)); err != nil {
			return err
		}

		if cause := context.Cause(wctx); errors.Is(cause, filewatch.ErrModified) {
			logger.Printf("stopped: %s", cause)
		}
		return nil
	}
}
