package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path"

	"github.com/opst/datapod/cmd/datapod/subcommands/common"
	subcourse "github.com/opst/datapod/cmd/datapod/subcommands/course"
	subformats "github.com/opst/datapod/cmd/datapod/subcommands/formats"
	"github.com/opst/datapod/cmd/datapod/subcommands/logger"
	subprepare "github.com/opst/datapod/cmd/datapod/subcommands/prepare"
	subrun "github.com/opst/datapod/cmd/datapod/subcommands/run"
	subserve "github.com/opst/datapod/cmd/datapod/subcommands/serve"
	subver "github.com/opst/datapod/cmd/datapod/subcommands/version"
	"github.com/opst/datapod/pkg/utils/try"
	"github.com/youta-t/flarc"
)

func main() {
	name := path.Base(os.Args[0])
	logger := logger.Default()
	logger.SetPrefix(fmt.Sprintf("[%s] ", name))

	ctx, cancel := signal.NotifyContext(
		context.Background(), os.Interrupt, os.Kill,
	)
	defer cancel()

	prepare := try.To(subprepare.New()).OrFatal(logger)
	course := try.To(subcourse.New()).OrFatal(logger)
	run := try.To(subrun.New()).OrFatal(logger)
	formats := try.To(subformats.New()).OrFatal(logger)
	serve := try.To(subserve.New()).OrFatal(logger)
	version := try.To(subver.New()).OrFatal(logger)

	datapod := try.To(
		flarc.NewCommandGroup(
			"datapod: data access layer of ETL pods",
			common.Flags(),
			flarc.WithSubcommand("prepare", prepare),
			flarc.WithSubcommand("course", course),
			flarc.WithSubcommand("run", run),
			flarc.WithSubcommand("formats", formats),
			flarc.WithSubcommand("serve", serve),
			flarc.WithSubcommand("version", version),
		),
	).OrFatal(logger)

	os.Exit(flarc.Run(ctx, datapod, flarc.WithHelp(true)))
}
