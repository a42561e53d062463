package main

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"

	"github.com/meigma/arc"
)

func runUnpack(ctx context.Context, a *app, args []string) error {
	var (
		output          string
		continueOnError bool
		strictSize      bool
		direct          bool
	)
	flagSet := pflag.NewFlagSet("unpack", pflag.ContinueOnError)
	flagSet.StringVarP(&output, "output", "o", a.cfg.Output, "existing destination directory")
	flagSet.BoolVar(&continueOnError, "continue-on-error", false, "keep extracting after an entry fails")
	flagSet.BoolVar(&strictSize, "strict-size", false, "fail entries whose inflated size differs from the record")
	flagSet.BoolVar(&direct, "direct", false, "write files in place instead of via temporary files")

	targets, err := parseCommand(a, flagSet, args, true)
	if err != nil {
		return err
	}
	archives, err := a.openAll(ctx, targets)
	if err != nil {
		return err
	}

	failed := 0
	for _, ar := range archives {
		stats, err := ar.Unpack(output,
			arc.UnpackWithContinueOnError(continueOnError),
			arc.UnpackWithStrictSize(strictSize),
			arc.UnpackWithDirectWrites(direct))
		if stats != nil {
			fmt.Fprintf(a.stdout, "%s: wrote %d of %d files (%s) to %s\n",
				ar.Name(), stats.Written, ar.Len(), humanize.IBytes(stats.TotalBytes), output)
			for _, f := range stats.Failed {
				fmt.Fprintf(a.stderr, "  failed: %v\n", f)
			}
			failed += len(stats.Failed)
		}
		if err != nil && (!continueOnError || stats == nil) {
			return fmt.Errorf("%s: %w", ar.Name(), err)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d entries failed", failed)
	}
	return nil
}
