package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/lipgloss/tree"
	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"

	"github.com/meigma/arc"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	numberStyle = cellStyle.Align(lipgloss.Right)
	folderStyle = lipgloss.NewStyle().Bold(true)
)

func runList(ctx context.Context, a *app, args []string) error {
	var asTree, human bool
	flagSet := pflag.NewFlagSet("list", pflag.ContinueOnError)
	flagSet.BoolVar(&asTree, "tree", false, "render a tree instead of a table")
	flagSet.BoolVarP(&human, "human", "H", false, "print sizes in human-readable units")

	targets, err := parseCommand(a, flagSet, args, true)
	if err != nil {
		return err
	}
	archives, err := a.openAll(ctx, targets)
	if err != nil {
		return err
	}

	for _, ar := range archives {
		root := ar.Listing()
		if asTree {
			fmt.Fprintln(a.stdout, renderTree(root, human).String())
			continue
		}
		fmt.Fprintln(a.stdout, renderTable(root, human).Render())
	}
	return nil
}

// renderTable flattens the listing into the seven listing columns, indenting
// labels by depth.
func renderTable(root *arc.Node, human bool) *table.Table {
	var rows [][]string
	root.Walk(func(n *arc.Node, depth int) bool {
		cols := n.Columns()
		cols[0] = strings.Repeat("  ", depth) + cols[0]
		if human {
			cols[2] = formatSize(n.CompressedSize)
			cols[3] = formatSize(n.DecompressedSize)
		}
		rows = append(rows, cols)
		return true
	})

	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(arc.ColumnHeaders...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col >= 2:
				return numberStyle
			default:
				return cellStyle
			}
		})
}

func renderTree(n *arc.Node, human bool) *tree.Tree {
	t := tree.Root(nodeLabel(n, human)).Enumerator(tree.RoundedEnumerator)
	for _, c := range n.Children {
		if c.Kind == arc.KindFile {
			t.Child(nodeLabel(c, human))
			continue
		}
		t.Child(renderTree(c, human))
	}
	return t
}

func nodeLabel(n *arc.Node, human bool) string {
	sizes := formatSizes(n, human)
	if n.Kind == arc.KindFile {
		return fmt.Sprintf("%s.%s  %s", n.Label, n.Type(), sizes)
	}
	return fmt.Sprintf("%s  %s, %d files", folderStyle.Render(n.Label+"/"), sizes, n.FileCount)
}

func formatSizes(n *arc.Node, human bool) string {
	if !human {
		return fmt.Sprintf("%d → %d", n.CompressedSize, n.DecompressedSize)
	}
	return fmt.Sprintf("%s → %s", formatSize(n.CompressedSize), formatSize(n.DecompressedSize))
}

// formatSize renders a size with binary prefixes. Negative sizes, which a
// record below the size bias produces, are printed as is.
func formatSize(n int64) string {
	if n < 0 {
		return strconv.FormatInt(n, 10)
	}
	return humanize.IBytes(uint64(n))
}
