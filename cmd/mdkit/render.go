package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/ragxuary/docs-kit/enhance"
	"github.com/ragxuary/docs-kit/highlight"
	"github.com/ragxuary/docs-kit/indexer"
	"github.com/ragxuary/docs-kit/markdown"
	"github.com/ragxuary/docs-kit/mermaid"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

const defaultWidth = 80

func (a *app) renderCommand() *cli.Command {
	return &cli.Command{
		Name:      "render",
		Usage:     "render a Markdown document",
		ArgsUsage: "[FILE]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "format",
				Usage: "output format: auto, html or ansi. auto renders for the terminal when standard output is one",
				Value: "auto",
				Validator: func(s string) error {
					switch s {
					case "auto", "html", "ansi":
						return nil
					}
					return fmt.Errorf("unknown format %q", s)
				},
			},
			&cli.BoolFlag{Name: "no-anchors", Usage: "omit heading anchor links"},
			&cli.BoolFlag{Name: "enhance", Usage: "add code block headers and render mermaid diagrams"},
			&cli.BoolFlag{Name: "dark", Usage: "render diagrams with the dark theme"},
			&cli.IntFlag{Name: "width", Aliases: []string{"w"}, Usage: "wrap width for terminal output"},
		},
		Action: a.render,
	}
}

func (a *app) render(ctx context.Context, cmd *cli.Command) error {
	src, err := readInput(cmd)
	if err != nil {
		return err
	}
	w := cmd.Root().Writer

	format := cmd.String("format")
	if format == "auto" {
		format = "html"
		if term.IsTerminal(int(os.Stdout.Fd())) {
			format = "ansi"
		}
	}
	if format == "ansi" {
		return renderTerminal(w, src, cmd.Int("width"))
	}

	options, err := a.markdownOptions()
	if err != nil {
		return err
	}
	if cmd.Bool("no-anchors") {
		options = append(options, markdown.WithAnchorLinks(false))
	}
	out := markdown.New(options...).Process(src)

	if cmd.Bool("enhance") {
		if out, err = a.enhance(ctx, out, cmd.Bool("dark")); err != nil {
			return err
		}
	}
	_, err = io.WriteString(w, out)
	return err
}

// enhance adds code block headers to rendered HTML and, when diagrams are enabled, replaces mermaid
// definitions with SVG. Diagrams that fail to render keep their definition.
func (a *app) enhance(ctx context.Context, fragment string, dark bool) (string, error) {
	doc, err := enhance.Parse(fragment)
	if err != nil {
		return "", err
	}
	doc.CodeBlocks()

	if a.cfg.Mermaid.Enabled {
		engine, err := mermaid.NewCLI(mermaid.ThemeFor(dark),
			mermaid.WithCommand(a.cfg.Mermaid.Command),
			mermaid.WithTimeout(a.cfg.Mermaid.Timeout))
		if err != nil {
			a.log.Warn("diagrams disabled", "err", err)
			return doc.String(), nil
		}
		for _, res := range doc.RenderDiagrams(ctx, engine, enhance.WithConcurrency(a.cfg.Mermaid.Concurrency)) {
			if res.Err != nil {
				a.log.Warn("rendering diagram", "err", res.Err)
			}
		}
	}
	return doc.String(), nil
}

// renderTerminal renders src for display in a terminal. A zero width wraps to the terminal's width.
func renderTerminal(w io.Writer, src string, width int) error {
	if width <= 0 {
		width = defaultWidth
		if cols, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && cols > 0 {
			width = cols
		}
	}
	r, err := glamour.NewTermRenderer(glamour.WithStandardStyle(styles.AutoStyle), glamour.WithWordWrap(width))
	if err != nil {
		return err
	}
	out, err := r.Render(src)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

func (a *app) headingsCommand() *cli.Command {
	return &cli.Command{
		Name:      "headings",
		Usage:     "list the headings of a Markdown document as JSON",
		ArgsUsage: "[FILE]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			src, err := readInput(cmd)
			if err != nil {
				return err
			}
			headings := indexer.ExtractHeadings(src)
			if headings == nil {
				headings = []indexer.Heading{}
			}
			enc := json.NewEncoder(cmd.Root().Writer)
			enc.SetIndent("", "  ")
			return enc.Encode(headings)
		},
	}
}

func (a *app) highlightCommand() *cli.Command {
	return &cli.Command{
		Name:      "highlight",
		Usage:     "highlight a source file as HTML",
		ArgsUsage: "[FILE]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "lang", Aliases: []string{"l"}, Usage: "language of the code; defaults to the file extension"},
			&cli.BoolFlag{Name: "notation", Usage: "apply diff and highlight notation comments"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			code, err := readInput(cmd)
			if err != nil {
				return err
			}
			lang := cmd.String("lang")
			if lang == "" {
				lang = strings.TrimPrefix(filepath.Ext(cmd.Args().First()), ".")
			}

			h, err := a.highlighter()
			if err != nil {
				return err
			}
			var transformers []highlight.Transformer
			if cmd.Bool("notation") {
				transformers = highlight.EditorTransformers()
			}
			_, err = io.WriteString(cmd.Root().Writer, h.Code(code, lang, transformers...))
			return err
		},
	}
}

func (a *app) cssCommand() *cli.Command {
	return &cli.Command{
		Name:  "css",
		Usage: "print the stylesheet for highlighted code",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			h, err := a.highlighter()
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.Root().Writer, h.Stylesheet())
			return err
		},
	}
}
