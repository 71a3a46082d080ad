package common

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/opst/datapod/pkg/catalog"
	"github.com/opst/datapod/pkg/configs/pod"
	"github.com/opst/datapod/pkg/drivers"
	"github.com/opst/datapod/pkg/manifest"
	"github.com/opst/datapod/pkg/storage"
	"github.com/youta-t/flarc"
)

// Env is what subcommands work with: the pod configuration and the catalog built from it.
type Env struct {
	// ConfigFile is the path of the configuration file. Empty when Config is not loaded from a file.
	ConfigFile string

	Config   pod.Config
	Registry *drivers.Registry
	Catalog  *catalog.Catalog
}

// NewEnv builds Env from the configuration.
//
// Options of the storage resolver are appended after s3 defaults from the configuration.
func NewEnv(cfg pod.Config, logger *log.Logger, options ...storage.ResolverOption) Env {
	registry := drivers.Default()
	resolver := storage.DefaultResolver(
		append([]storage.ResolverOption{storage.WithS3Defaults(cfg.Storage.S3.Options())}, options...)...,
	)
	return Env{
		Config:   cfg,
		Registry: registry,
		Catalog: catalog.New(
			catalog.WithRegistry(registry),
			catalog.WithResolver(resolver),
			catalog.WithLogger(logger),
		),
	}
}

// Ingredients loads and validates the input manifest.
//
// When no input manifest is configured, it returns an empty manifest.
func (e Env) Ingredients() (manifest.Manifest, error) {
	if e.Config.Ingredients == "" {
		return manifest.From(""), nil
	}
	m, err := manifest.Load(e.Config.Ingredients)
	if err != nil {
		return manifest.Manifest{}, err
	}
	if err := manifest.ValidateAgainst(m, e.Registry); err != nil {
		return manifest.Manifest{}, err
	}
	return m, nil
}

// FullCourse loads and validates the output manifest.
//
// When the input manifest is configured, ingredients_used of each dish are checked against it.
// When no output manifest is configured, it returns an empty manifest.
func (e Env) FullCourse() (manifest.Manifest, error) {
	if e.Config.FullCourse == "" {
		return manifest.From(""), nil
	}
	m, err := manifest.Load(e.Config.FullCourse)
	if err != nil {
		return manifest.Manifest{}, err
	}

	inputs := []manifest.Manifest{}
	if e.Config.Ingredients != "" {
		in, err := manifest.Load(e.Config.Ingredients)
		if err != nil {
			return manifest.Manifest{}, err
		}
		inputs = append(inputs, in)
	}
	if err := manifest.ValidateAgainst(m, e.Registry, inputs...); err != nil {
		return manifest.Manifest{}, err
	}
	return m, nil
}

type TaskWithCommonFlag[T any] func(
	ctx context.Context,
	logger *log.Logger,
	commonFlag CommonFlags,
	cl flarc.Commandline[T],
	params []any,
) error

func NewTaskWithCommonFlag[T any](task TaskWithCommonFlag[T]) flarc.Task[T] {
	return func(ctx context.Context, cl flarc.Commandline[T], pos []any) error {
		var commonFlag CommonFlags
		found := false
		newpos := make([]any, 0, len(pos))
		for _, p := range pos {
			switch v := p.(type) {
			case CommonFlags:
				found = true
				commonFlag = v
			default:
				newpos = append(newpos, p)
			}
		}
		if !found {
			return errors.New("programming error: common flags not found")
		}

		logger := log.New(cl.Stderr(), "", log.LstdFlags)
		logger.SetPrefix(fmt.Sprintf("[%s] ", cl.Fullname()))

		return task(ctx, logger, commonFlag, cl, newpos)
	}
}

type Task[T any] func(
	ctx context.Context,
	logger *log.Logger,
	env Env,
	cl flarc.Commandline[T],
	params []any,
) error

func NewTask[T any](task Task[T]) flarc.Task[T] {
	return NewTaskWithCommonFlag(func(
		ctx context.Context,
		logger *log.Logger,
		commonFlag CommonFlags,
		cl flarc.Commandline[T],
		params []any,
	) error {
		cfg, err := pod.Load(commonFlag.Config)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf(
					"%w: configuration file (%s) is not found. Pass --config or set $%s",
					err, commonFlag.Config, EnvConfig,
				)
			}
			return fmt.Errorf("%w: failed to load configuration (%s)", err, commonFlag.Config)
		}
		env := NewEnv(cfg, logger)
		env.ConfigFile = commonFlag.Config
		return task(ctx, logger, env, cl, params)
	})
}
