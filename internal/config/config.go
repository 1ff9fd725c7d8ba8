package config

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/ragxuary/docs-kit/enhance"
	"github.com/ragxuary/docs-kit/highlight"
	"github.com/ragxuary/docs-kit/mermaid"
)

type Config struct {
	Server    ServerConfig    `toml:"server"`
	Source    SourceConfig    `toml:"source"`
	Render    RenderConfig    `toml:"render"`
	Mermaid   MermaidConfig   `toml:"mermaid"`
	Clipboard ClipboardConfig `toml:"clipboard"`
}

type ServerConfig struct {
	Addr        string `toml:"addr"`
	LogLevel    string `toml:"log_level"`
	CachePath   string `toml:"cache_path"`
	OpenBrowser bool   `toml:"open_browser"`
}

// SourceConfig selects where documents come from: the backend API when APIURL is set, otherwise
// the directory Dir.
type SourceConfig struct {
	Dir     string `toml:"dir"`
	APIURL  string `toml:"api_url"`
	Token   string `toml:"token"`
	Project string `toml:"project"`
}

type RenderConfig struct {
	AnchorLinks bool   `toml:"anchor_links"`
	RawHTML     bool   `toml:"raw_html"`
	LightTheme  string `toml:"light_theme"`
	DarkTheme   string `toml:"dark_theme"`
	Notation    bool   `toml:"notation"`
}

type MermaidConfig struct {
	Enabled     bool          `toml:"enabled"`
	Command     string        `toml:"command"`
	Timeout     time.Duration `toml:"timeout"`
	Concurrency int           `toml:"concurrency"`
}

type ClipboardConfig struct {
	FailurePolicy string        `toml:"failure_policy"`
	Ack           time.Duration `toml:"ack"`
}

// Load reads the configuration file at path. An empty path yields the configuration defined by
// the environment and the defaults.
func Load(path string) (*Config, error) {
	var cfg Config
	var md toml.MetaData
	var err error
	if path == "" {
		md, err = toml.Decode("", &cfg)
	} else {
		md, err = toml.DecodeFile(path, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	for _, key := range md.Undecoded() {
		slog.Warn("ignoring unknown config key", "key", key.String(), "file", path)
	}

	// The file wins over the environment, which wins over the built-in values.
	d := &defaults{md: md}
	d.text(&cfg.Server.Addr, "MDKIT_ADDR", "127.0.0.1:8080")
	d.text(&cfg.Server.LogLevel, "MDKIT_LOG_LEVEL", "info")
	d.text(&cfg.Server.CachePath, "MDKIT_CACHE_PATH", "")
	d.text(&cfg.Source.APIURL, "MDKIT_API_URL", "")
	d.text(&cfg.Source.Dir, "MDKIT_DIR", ".")
	d.text(&cfg.Source.Token, "MDKIT_TOKEN", "")
	d.text(&cfg.Source.Project, "MDKIT_PROJECT", "docs")
	d.text(&cfg.Render.LightTheme, "MDKIT_LIGHT_THEME", highlight.DefaultLightTheme)
	d.text(&cfg.Render.DarkTheme, "MDKIT_DARK_THEME", highlight.DefaultDarkTheme)
	d.text(&cfg.Mermaid.Command, "MDKIT_MERMAID_COMMAND", mermaid.DefaultCommand)
	d.text(&cfg.Clipboard.FailurePolicy, "MDKIT_CLIPBOARD_FAILURE_POLICY", "silent")

	setting(d, &cfg.Server.OpenBrowser, "server.open_browser", "MDKIT_OPEN_BROWSER", false, strconv.ParseBool)
	setting(d, &cfg.Render.AnchorLinks, "render.anchor_links", "MDKIT_ANCHOR_LINKS", true, strconv.ParseBool)
	setting(d, &cfg.Render.RawHTML, "render.raw_html", "MDKIT_RAW_HTML", false, strconv.ParseBool)
	setting(d, &cfg.Render.Notation, "render.notation", "MDKIT_NOTATION", false, strconv.ParseBool)
	setting(d, &cfg.Mermaid.Enabled, "mermaid.enabled", "MDKIT_MERMAID", false, strconv.ParseBool)
	setting(d, &cfg.Mermaid.Concurrency, "mermaid.concurrency", "MDKIT_MERMAID_CONCURRENCY", enhance.DefaultDiagramConcurrency, strconv.Atoi)
	setting(d, &cfg.Mermaid.Timeout, "mermaid.timeout", "MDKIT_MERMAID_TIMEOUT", mermaid.DefaultTimeout, time.ParseDuration)
	setting(d, &cfg.Clipboard.Ack, "clipboard.ack", "MDKIT_CLIPBOARD_ACK", enhance.DefaultAcknowledgment, time.ParseDuration)
	if err := errors.Join(d.errs...); err != nil {
		return nil, err
	}

	if cfg.Mermaid.Concurrency < 1 {
		return nil, fmt.Errorf("mermaid.concurrency must be positive, got %d", cfg.Mermaid.Concurrency)
	}
	if cfg.Mermaid.Timeout <= 0 {
		return nil, fmt.Errorf("mermaid.timeout must be positive, got %s", cfg.Mermaid.Timeout)
	}
	if cfg.Clipboard.Ack <= 0 {
		return nil, fmt.Errorf("clipboard.ack must be positive, got %s", cfg.Clipboard.Ack)
	}
	if _, err := enhance.ParseFailurePolicy(cfg.Clipboard.FailurePolicy); err != nil {
		return nil, fmt.Errorf("clipboard.failure_policy: %w", err)
	}
	if _, err := cfg.Level(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Level returns the configured log level.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Server.LogLevel)); err != nil {
		return 0, fmt.Errorf("server.log_level: %w", err)
	}
	return level, nil
}

// FailurePolicy returns the configured clipboard failure policy.
func (c *Config) FailurePolicy() enhance.FailurePolicy {
	policy, _ := enhance.ParseFailurePolicy(c.Clipboard.FailurePolicy)
	return policy
}

// defaults fills in what the configuration file leaves out.
type defaults struct {
	md   toml.MetaData
	errs []error
}

// text sets an empty string from env, or to fallback when env is unset too. An empty string in
// the file counts as unset.
func (d *defaults) text(dst *string, env, fallback string) {
	if *dst == "" {
		*dst = cmp.Or(os.Getenv(env), fallback)
	}
}

// setting sets a value the file does not define at the dotted key. A malformed env value is
// recorded as an error and leaves dst alone.
func setting[T any](d *defaults, dst *T, key, env string, fallback T, parse func(string) (T, error)) {
	if d.md.IsDefined(strings.Split(key, ".")...) {
		return
	}
	raw := os.Getenv(env)
	if raw == "" {
		*dst = fallback
		return
	}
	v, err := parse(raw)
	if err != nil {
		d.errs = append(d.errs, fmt.Errorf("%s: %w", env, err))
		return
	}
	*dst = v
}
