package main

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"
)

func runInfo(ctx context.Context, a *app, args []string) error {
	flagSet := pflag.NewFlagSet("info", pflag.ContinueOnError)
	targets, err := parseCommand(a, flagSet, args, true)
	if err != nil {
		return err
	}
	archives, err := a.openAll(ctx, targets)
	if err != nil {
		return err
	}

	for _, ar := range archives {
		var compressed, stored int
		var payload uint64
		var decompressed int64
		for _, e := range ar.Entries() {
			if e.Compressed() {
				compressed++
			} else {
				stored++
			}
			payload += uint64(e.CompressedSize)
			decompressed += e.DecompressedSize
		}
		h := ar.Header()
		fmt.Fprintf(a.stdout, "name:         %s\n", ar.Name())
		fmt.Fprintf(a.stdout, "magic:        %q\n", h.Magic)
		fmt.Fprintf(a.stdout, "version:      %d\n", h.Version)
		fmt.Fprintf(a.stdout, "entries:      %d (%d compressed, %d stored)\n", h.EntryCount, compressed, stored)
		fmt.Fprintf(a.stdout, "payload:      %s\n", humanize.IBytes(payload))
		fmt.Fprintf(a.stdout, "decompressed: %s\n", formatSize(decompressed))
	}
	return nil
}
