// Package main is the entry point for the stormlight demo viewer: it opens
// a file through a live styling session and renders it in the terminal.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/dshills/stormlight/internal/config"
	"github.com/dshills/stormlight/internal/scheme"
	"github.com/dshills/stormlight/internal/session"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
)

type cliOptions struct {
	FilePath   string
	Language   string
	SchemePath string
	ConfigPath string
	Debug      bool
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if opts.Debug {
		cfg.Log.Level = "debug"
		cfg.Log.Development = true
	}

	log, err := cfg.Log.BuildLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	zap.ReplaceGlobals(log)
	defer log.Sync() //nolint:errcheck

	schemePath := opts.SchemePath
	if schemePath == "" {
		schemePath = cfg.Scheme.Path
	}
	sch := scheme.Default()
	if schemePath != "" {
		if sch, err = scheme.Load(schemePath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}

	text, err := os.ReadFile(opts.FilePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: reading %s: %v\n", opts.FilePath, err)
		return 1
	}

	manager := session.NewManager(cfg,
		session.WithManagerLogger(log),
		session.WithManagerScheme(sch))
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := manager.CloseAll(ctx); err != nil {
			log.Warn("session shutdown", zap.Error(err))
		}
	}()

	var sessOpts []session.Option
	if opts.Language != "" {
		sessOpts = append(sessOpts, session.WithLanguage(opts.Language))
	}
	sess, err := manager.Open(opts.FilePath, text, sessOpts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	v, err := newViewer(sess, log, opts.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if schemePath != "" && cfg.Scheme.Watch {
		watcher, err := scheme.Watch(schemePath, func(s *scheme.Scheme) {
			if err := sess.SetScheme(s); err != nil {
				log.Warn("scheme swap", zap.Error(err))
			}
			v.redraw()
		}, scheme.WithLogger(log))
		if err != nil {
			log.Warn("scheme watch", zap.String("path", schemePath), zap.Error(err))
		} else {
			defer watcher.Close() //nolint:errcheck
		}
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signals
		v.interrupt()
	}()

	if err := v.run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func parseFlags() cliOptions {
	var opts cliOptions
	var showVersion bool

	flag.StringVar(&opts.FilePath, "file", "", "File to view")
	flag.StringVar(&opts.FilePath, "f", "", "File to view (shorthand)")
	flag.StringVar(&opts.Language, "lang", "", "Force language instead of detecting from the path")
	flag.StringVar(&opts.SchemePath, "scheme", "", "Color scheme YAML file")
	flag.StringVar(&opts.ConfigPath, "config", "", "Path to configuration file")
	flag.StringVar(&opts.ConfigPath, "c", "", "Path to configuration file (shorthand)")
	flag.BoolVar(&opts.Debug, "debug", false, "Enable debug logging and the stats line")
	flag.BoolVar(&opts.Debug, "d", false, "Enable debug logging (shorthand)")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Stormlight - live syntax styling viewer\n\n")
		fmt.Fprintf(os.Stderr, "Usage: stormlight [options] [file]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nKeys:\n")
		fmt.Fprintf(os.Stderr, "  j/k, arrows, PgUp/PgDn   scroll\n")
		fmt.Fprintf(os.Stderr, "  g/G                      top/bottom\n")
		fmt.Fprintf(os.Stderr, "  m                        mark visible lines with demo semantic tokens\n")
		fmt.Fprintf(os.Stderr, "  s                        toggle color scheme\n")
		fmt.Fprintf(os.Stderr, "  q, Esc, Ctrl-C           quit\n")
	}

	flag.Parse()

	if showVersion {
		fmt.Printf("stormlight %s (%s)\n", version, commit)
		os.Exit(0)
	}
	if opts.FilePath == "" {
		opts.FilePath = flag.Arg(0)
	}
	if opts.FilePath == "" {
		flag.Usage()
		os.Exit(2)
	}
	return opts
}
