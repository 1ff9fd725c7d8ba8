package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/ragxuary/docs-kit/internal/cache"
	"github.com/ragxuary/docs-kit/internal/server"
	"github.com/ragxuary/docs-kit/mermaid"
	"github.com/skratchdot/open-golang/open"
	"github.com/urfave/cli/v3"
)

// Rendered documents older than this are pruned from the cache at startup.
const cacheMaxAge = 30 * 24 * time.Hour

func (a *app) serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "serve the documentation site",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "listen address; overrides server.addr"},
			&cli.StringFlag{Name: "project", Aliases: []string{"p"}, Usage: "project to serve; overrides source.project"},
			&cli.BoolFlag{Name: "open", Usage: "open the site in a browser"},
		},
		Action: a.serve,
	}
}

func (a *app) serve(ctx context.Context, cmd *cli.Command) error {
	addr := a.cfg.Server.Addr
	if cmd.IsSet("addr") {
		addr = cmd.String("addr")
	}
	project := a.cfg.Source.Project
	if cmd.IsSet("project") {
		project = cmd.String("project")
	}

	mdOptions, err := a.markdownOptions()
	if err != nil {
		return err
	}
	options := []server.Option{
		server.WithProject(project),
		server.WithMarkdown(mdOptions...),
		server.WithLogger(a.log),
	}

	if path := a.cfg.Server.CachePath; path != "" {
		c, err := cache.Open(path)
		if err != nil {
			return err
		}
		defer c.Close()
		if n, err := c.Prune(ctx, time.Now().Add(-cacheMaxAge)); err != nil {
			a.log.Warn("pruning cache", "err", err)
		} else if n > 0 {
			a.log.Info("pruned cache", "entries", n)
		}
		options = append(options, server.WithCache(c))
	}

	if a.cfg.Mermaid.Enabled {
		registry := mermaid.NewRegistry(mermaid.CLILoader(
			mermaid.WithCommand(a.cfg.Mermaid.Command),
			mermaid.WithTimeout(a.cfg.Mermaid.Timeout)))
		options = append(options, server.WithDiagrams(registry, a.cfg.Mermaid.Concurrency))
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	httpSrv := &http.Server{
		Handler:           server.New(a.source(), options...),
		ReadHeaderTimeout: 10 * time.Second,
	}

	listenErr := make(chan error, 1)
	go func() {
		if err := httpSrv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			listenErr <- fmt.Errorf("serve: %w", err)
		}
	}()

	url := "http://" + browserAddr(ln.Addr()) + "/docs/"
	a.log.Info("serving documentation", "url", url, "project", project)
	if cmd.Bool("open") || a.cfg.Server.OpenBrowser {
		if err := open.Start(url); err != nil {
			a.log.Warn("opening browser", "err", err)
		}
	}

	select {
	case <-ctx.Done():
	case err := <-listenErr:
		return err
	}
	a.log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

// browserAddr returns a host:port for addr that a browser can connect to. Unspecified hosts are
// replaced with localhost.
func browserAddr(addr net.Addr) string {
	tcp, ok := addr.(*net.TCPAddr)
	if !ok {
		return addr.String()
	}
	host := "localhost"
	if !tcp.IP.IsUnspecified() {
		host = tcp.IP.String()
	}
	return net.JoinHostPort(host, fmt.Sprint(tcp.Port))
}
