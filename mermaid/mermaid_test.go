package mermaid

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThemeFor(t *testing.T) {
	assert.Equal(t, ThemeDark, ThemeFor(true))
	assert.Equal(t, ThemeDefault, ThemeFor(false))
}

func TestRegistry_LoadsOncePerTheme(t *testing.T) {
	var loads atomic.Int32
	release := make(chan struct{})
	r := NewRegistry(func(ctx context.Context, theme Theme) (Engine, error) {
		loads.Add(1)
		<-release
		return EngineFunc(func(ctx context.Context, definition string) (string, error) {
			return "<svg>" + string(theme) + "</svg>", nil
		}), nil
	})

	var wg sync.WaitGroup
	engines := make([]Engine, 8)
	for i := range engines {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			e, err := r.Engine(context.Background(), ThemeDark)
			assert.NoError(t, err)
			engines[i] = e
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), loads.Load())
	svg, err := engines[0].Render(context.Background(), "graph TD")
	require.NoError(t, err)
	assert.Equal(t, "<svg>dark</svg>", svg)

	_, err = r.Engine(context.Background(), ThemeDark)
	require.NoError(t, err)
	assert.Equal(t, int32(1), loads.Load())

	_, err = r.Engine(context.Background(), ThemeDefault)
	require.NoError(t, err)
	assert.Equal(t, int32(2), loads.Load())
}

func TestRegistry_RetriesFailedLoads(t *testing.T) {
	var loads int
	r := NewRegistry(func(ctx context.Context, theme Theme) (Engine, error) {
		loads++
		if loads == 1 {
			return nil, errors.New("boom")
		}
		return EngineFunc(func(ctx context.Context, definition string) (string, error) { return "", nil }), nil
	})

	_, err := r.Engine(context.Background(), ThemeDefault)
	assert.ErrorContains(t, err, "boom")

	_, err = r.Engine(context.Background(), ThemeDefault)
	assert.NoError(t, err)
	assert.Equal(t, 2, loads)
}

const fakeCLI = `#!/bin/sh
out=""
theme=""
config=""
while [ $# -gt 0 ]; do
  case "$1" in
    -o) out="$2"; shift 2;;
    -t) theme="$2"; shift 2;;
    -c) config="$2"; shift 2;;
    *) shift;;
  esac
done
printf '<svg data-theme="%s">' "$theme" > "$out"
cat "$config" >> "$out"
printf '</svg>' >> "$out"
`

const failingCLI = `#!/bin/sh
echo "Parse error on line 1" >&2
exit 1
`

func writeScript(t *testing.T, body string) string {
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not supported")
	}
	path := filepath.Join(t.TempDir(), "mmdc")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o755))
	return path
}

func TestCLI_Render(t *testing.T) {
	engine, err := NewCLI(ThemeDark, WithCommand(writeScript(t, fakeCLI)))
	require.NoError(t, err)

	svg, err := engine.Render(context.Background(), "graph TD\n  A-->B\n")
	require.NoError(t, err)
	assert.Contains(t, svg, `<svg data-theme="dark">`)
	assert.Contains(t, svg, `"securityLevel":"strict"`)
	assert.Contains(t, svg, `"theme":"dark"`)
}

func TestCLI_RenderFailure(t *testing.T) {
	engine, err := NewCLI(ThemeDefault, WithCommand(writeScript(t, failingCLI)))
	require.NoError(t, err)

	_, err = engine.Render(context.Background(), "not a diagram")
	assert.ErrorContains(t, err, "Parse error on line 1")
}

func TestCLI_EmptyDefinition(t *testing.T) {
	engine, err := NewCLI(ThemeDefault, WithCommand(writeScript(t, fakeCLI)))
	require.NoError(t, err)

	_, err = engine.Render(context.Background(), "  \n")
	assert.ErrorIs(t, err, ErrEmptyDefinition)
}

func TestCLI_MissingExecutable(t *testing.T) {
	_, err := NewCLI(ThemeDefault, WithCommand(filepath.Join(t.TempDir(), "no-such-mmdc")))
	assert.Error(t, err)

	r := NewRegistry(CLILoader(WithCommand(filepath.Join(t.TempDir(), "no-such-mmdc"))))
	_, err = r.Engine(context.Background(), ThemeDefault)
	assert.Error(t, err)
}

func TestCLI_Config(t *testing.T) {
	c := &CLI{theme: ThemeDefault}
	data, err := c.config()
	require.NoError(t, err)

	var config map[string]any
	require.NoError(t, json.Unmarshal(data, &config))
	assert.Equal(t, "strict", config["securityLevel"])
	assert.Equal(t, "default", config["theme"])
}
