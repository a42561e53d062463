package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/pflag"
)

func runTags(_ context.Context, a *app, args []string) error {
	flagSet := pflag.NewFlagSet("tags", pflag.ContinueOnError)
	if _, err := parseCommand(a, flagSet, args, false); err != nil {
		return err
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Tag", "Hex", "Extension").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, tag := range a.registry.Tags() {
		ext, _ := a.registry.Lookup(tag)
		t.Row(strconv.FormatUint(uint64(tag), 10), fmt.Sprintf("0x%08x", tag), ext)
	}
	fmt.Fprintln(a.stdout, t.Render())
	return nil
}
