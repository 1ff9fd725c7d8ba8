// Command mdkit renders Markdown documents, serves a documentation site and browses documents in
// the terminal.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ragxuary/docs-kit/highlight"
	"github.com/ragxuary/docs-kit/internal/config"
	"github.com/ragxuary/docs-kit/internal/source"
	"github.com/ragxuary/docs-kit/markdown"
	"github.com/urfave/cli/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := newCommand().Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type app struct {
	cfg *config.Config
	log *slog.Logger
}

func newCommand() *cli.Command {
	a := &app{}
	return &cli.Command{
		Name:  "mdkit",
		Usage: "render, serve and browse Markdown documentation",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to a TOML configuration file",
				Sources: cli.EnvVars("MDKIT_CONFIG"),
			},
		},
		Before: a.before,
		Commands: []*cli.Command{
			a.renderCommand(),
			a.headingsCommand(),
			a.highlightCommand(),
			a.cssCommand(),
			a.serveCommand(),
			a.browseCommand(),
		},
	}
}

func (a *app) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return ctx, err
	}
	level, err := cfg.Level()
	if err != nil {
		return ctx, err
	}

	a.cfg = cfg
	a.log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(a.log)
	return ctx, nil
}

// highlighter creates the code highlighter for the configured themes.
func (a *app) highlighter() (*highlight.Highlighter, error) {
	h, err := highlight.New(highlight.WithThemes(a.cfg.Render.LightTheme, a.cfg.Render.DarkTheme))
	if err != nil {
		return nil, fmt.Errorf("creating highlighter: %w", err)
	}
	return h, nil
}

func (a *app) markdownOptions() ([]markdown.Option, error) {
	h, err := a.highlighter()
	if err != nil {
		return nil, err
	}
	options := []markdown.Option{
		markdown.WithHighlighter(h),
		markdown.WithAnchorLinks(a.cfg.Render.AnchorLinks),
		markdown.WithRawHTML(a.cfg.Render.RawHTML),
		markdown.WithLogger(a.log),
	}
	if a.cfg.Render.Notation {
		options = append(options, markdown.WithTransformers(highlight.EditorTransformers()...))
	}
	return options, nil
}

// source returns the document source: the backend API when one is configured, otherwise the
// documentation directory.
func (a *app) source() source.Source {
	if a.cfg.Source.APIURL != "" {
		return source.NewClient(a.cfg.Source.APIURL, a.cfg.Source.Token)
	}
	return source.NewDir(a.cfg.Source.Dir)
}

// readInput reads the file named by the first argument, or standard input when the argument is
// missing or "-".
func readInput(cmd *cli.Command) (string, error) {
	path := cmd.Args().First()
	if path == "" || path == "-" {
		b, err := io.ReadAll(cmd.Root().Reader)
		if err != nil {
			return "", fmt.Errorf("reading standard input: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
