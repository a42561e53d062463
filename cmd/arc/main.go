// arc lists and extracts ARC game archives.
//
// Usage:
//
//	arc [global flags] <command> [flags] <archive|url>...
//
// Commands:
//
//	list    print the entries of each archive as a table or tree
//	unpack  extract every entry below a destination directory
//	info    print header fields and totals
//	tags    print the type tag registry
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/meigma/arc"
	archttp "github.com/meigma/arc/http"
	"github.com/meigma/arc/typetag"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// app carries the state shared by every command.
type app struct {
	stdout   io.Writer
	stderr   io.Writer
	logger   *slog.Logger
	cfg      *Config
	registry *typetag.Registry
	fallback string
}

type command struct {
	name    string
	summary string
	run     func(ctx context.Context, a *app, args []string) error
}

var commands = []command{
	{"list", "print the entries of each archive", runList},
	{"unpack", "extract archives to a directory", runUnpack},
	{"info", "print archive headers and totals", runInfo},
	{"tags", "print the type tag registry", runTags},
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var (
		configPath string
		tagFiles   []string
		fallback   string
		verbose    bool
	)
	flagSet := pflag.NewFlagSet("arc", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.SetInterspersed(false)
	flagSet.StringVar(&configPath, "config", "", "YAML configuration file")
	flagSet.StringArrayVar(&tagFiles, "tags", nil, "additional YAML tag file (repeatable)")
	flagSet.StringVar(&fallback, "unknown-tag-fallback", "", "extension for unknown type tags instead of failing")
	flagSet.BoolVarP(&verbose, "verbose", "v", false, "log every loaded and written entry")
	flagSet.Usage = func() { printUsage(stderr, flagSet) }

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	rest := flagSet.Args()
	if len(rest) == 0 {
		printUsage(stderr, flagSet)
		return errors.New("missing command")
	}

	cfg := DefaultConfig()
	if configPath != "" {
		loaded, err := LoadConfig(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	registry, err := cfg.Registry(tagFiles...)
	if err != nil {
		return err
	}
	if fallback == "" {
		fallback = cfg.UnknownTagFallback
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	a := &app{
		stdout:   stdout,
		stderr:   stderr,
		logger:   slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})),
		cfg:      cfg,
		registry: registry,
		fallback: strings.TrimPrefix(fallback, "."),
	}

	for _, cmd := range commands {
		if cmd.name != rest[0] {
			continue
		}
		if err := cmd.run(ctx, a, rest[1:]); err != nil && !errors.Is(err, pflag.ErrHelp) {
			return err
		}
		return nil
	}
	printUsage(stderr, flagSet)
	return fmt.Errorf("unknown command %q", rest[0])
}

func printUsage(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintf(w, "Usage:\n  arc [global flags] <command> [flags] <archive|url>...\n\nCommands:\n")
	for _, cmd := range commands {
		fmt.Fprintf(w, "  %-8s %s\n", cmd.name, cmd.summary)
	}
	fmt.Fprintf(w, "\nGlobal flags:\n")
	flagSet.SetOutput(w)
	flagSet.PrintDefaults()
}

// options returns the archive options derived from flags and config.
func (a *app) options() []arc.Option {
	return []arc.Option{
		arc.WithLogger(a.logger),
		arc.WithRegistry(a.registry),
		arc.WithUnknownTagFallback(a.fallback),
	}
}

// open loads an archive from a local path or an http(s) URL.
func (a *app) open(ctx context.Context, target string) (*arc.Archive, error) {
	if !archttp.IsURL(target) {
		return arc.Open(target, a.options()...)
	}
	src, err := archttp.NewSource(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", target, err)
	}
	return arc.OpenSource(arc.BaseName(archttp.FileName(target)), src, a.options()...)
}

// openAll loads every target. Local paths are opened concurrently.
func (a *app) openAll(ctx context.Context, targets []string) ([]*arc.Archive, error) {
	var local []string
	for _, t := range targets {
		if !archttp.IsURL(t) {
			local = append(local, t)
		}
	}
	opened, err := arc.OpenAll(ctx, local, a.options()...)
	if err != nil {
		return nil, err
	}

	archives := make([]*arc.Archive, 0, len(targets))
	for _, t := range targets {
		if !archttp.IsURL(t) {
			archives = append(archives, opened[0])
			opened = opened[1:]
			continue
		}
		ar, err := a.open(ctx, t)
		if err != nil {
			return nil, err
		}
		archives = append(archives, ar)
	}
	return archives, nil
}

// parseCommand parses a subcommand's flags and requires at least one archive.
func parseCommand(a *app, flagSet *pflag.FlagSet, args []string, needArchives bool) ([]string, error) {
	flagSet.SetOutput(a.stderr)
	if err := flagSet.Parse(args); err != nil {
		return nil, err
	}
	rest := flagSet.Args()
	if needArchives && len(rest) == 0 {
		return nil, fmt.Errorf("%s: at least one archive is required", flagSet.Name())
	}
	return rest, nil
}
