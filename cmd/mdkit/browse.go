package main

import (
	"context"
	"log/slog"
	"os"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/glamour/styles"
	"github.com/ragxuary/docs-kit/enhance"
	"github.com/ragxuary/docs-kit/tui"
	"github.com/urfave/cli/v3"
)

func (a *app) browseCommand() *cli.Command {
	return &cli.Command{
		Name:      "browse",
		Usage:     "read a project's documents in the terminal",
		ArgsUsage: "[PATH]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "project", Aliases: []string{"p"}, Usage: "project to browse; overrides source.project"},
			&cli.StringFlag{Name: "style", Usage: "glamour style: dark, light or auto", Value: styles.AutoStyle},
		},
		Action: a.browse,
	}
}

func (a *app) browse(ctx context.Context, cmd *cli.Command) error {
	project := a.cfg.Source.Project
	if cmd.IsSet("project") {
		project = cmd.String("project")
	}

	// The reader owns the terminal.
	a.log = slog.New(slog.DiscardHandler)
	slog.SetDefault(a.log)

	// Resolve the background before the program starts reading input.
	style := cmd.String("style")
	if style == styles.AutoStyle {
		style = styles.LightStyle
		if lipgloss.HasDarkBackground(os.Stdin, os.Stdout) {
			style = styles.DarkStyle
		}
	}

	options := []tui.Option{
		tui.WithStyle(style),
		tui.WithCopyOptions(
			enhance.WithFailurePolicy(a.cfg.FailurePolicy()),
			enhance.WithAcknowledgment(a.cfg.Clipboard.Ack)),
	}
	if path := cmd.Args().First(); path != "" {
		options = append(options, tui.WithCurrentPath(path))
	}
	return tui.Run(ctx, a.source(), project, options...)
}
