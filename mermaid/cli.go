package mermaid

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// DefaultCommand is the name of the mermaid CLI executable.
const DefaultCommand = "mmdc"

// DefaultTimeout bounds a single diagram render.
const DefaultTimeout = 30 * time.Second

// ErrEmptyDefinition is returned for blank diagram definitions.
var ErrEmptyDefinition = errors.New("empty diagram definition")

// A CLIOption configures a CLI engine.
type CLIOption func(c *CLI)

// WithCommand sets the mermaid CLI executable name or path.
func WithCommand(command string) CLIOption {
	return func(c *CLI) {
		c.command = command
	}
}

// WithTimeout sets the per-diagram render timeout.
func WithTimeout(timeout time.Duration) CLIOption {
	return func(c *CLI) {
		c.timeout = timeout
	}
}

// CLI renders diagrams with the mermaid command line interface. Diagrams are rendered with the
// strict security level, so scripts and click handlers in definitions are disabled.
type CLI struct {
	command string
	timeout time.Duration
	theme   Theme

	path string
}

// NewCLI resolves the mermaid CLI executable and returns an engine for theme.
func NewCLI(theme Theme, options ...CLIOption) (*CLI, error) {
	c := &CLI{command: DefaultCommand, timeout: DefaultTimeout, theme: theme}
	for _, o := range options {
		o(c)
	}

	path, err := exec.LookPath(c.command)
	if err != nil {
		return nil, fmt.Errorf("locating mermaid CLI: %w", err)
	}
	c.path = path
	return c, nil
}

// CLILoader returns a Loader that creates CLI engines.
func CLILoader(options ...CLIOption) Loader {
	return func(_ context.Context, theme Theme) (Engine, error) {
		return NewCLI(theme, options...)
	}
}

type cliConfig struct {
	Theme         Theme  `json:"theme"`
	SecurityLevel string `json:"securityLevel"`
	StartOnLoad   bool   `json:"startOnLoad"`
}

func (c *CLI) config() ([]byte, error) {
	return json.Marshal(cliConfig{Theme: c.theme, SecurityLevel: "strict"})
}

// Render implements Engine.
func (c *CLI) Render(ctx context.Context, definition string) (string, error) {
	if strings.TrimSpace(definition) == "" {
		return "", ErrEmptyDefinition
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	dir, err := os.MkdirTemp("", "mermaid-")
	if err != nil {
		return "", fmt.Errorf("creating work directory: %w", err)
	}
	defer os.RemoveAll(dir)

	config, err := c.config()
	if err != nil {
		return "", err
	}
	input, output, configPath := filepath.Join(dir, "diagram.mmd"), filepath.Join(dir, "diagram.svg"), filepath.Join(dir, "config.json")
	if err := os.WriteFile(input, []byte(definition), 0o600); err != nil {
		return "", fmt.Errorf("writing diagram: %w", err)
	}
	if err := os.WriteFile(configPath, config, 0o600); err != nil {
		return "", fmt.Errorf("writing config: %w", err)
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.path, "-q", "-i", input, "-o", output, "-t", string(c.theme), "-c", configPath)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("rendering diagram: %w", ctx.Err())
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("rendering diagram: %w: %s", err, msg)
		}
		return "", fmt.Errorf("rendering diagram: %w", err)
	}

	svg, err := os.ReadFile(output)
	if err != nil {
		return "", fmt.Errorf("reading diagram: %w", err)
	}
	return string(svg), nil
}
