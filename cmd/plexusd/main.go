// Command plexusd builds a Plexus hub, registers the demo activations,
// and serves MCP over a newline-delimited JSON-RPC transport on
// stdin/stdout. It is demonstration wiring for the library in
// internal/router and internal/mcpserver, not the specified product.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"plexus/internal/config"
	"plexus/internal/demoactivations"
	"plexus/internal/mcpserver"
	"plexus/internal/router"
	"plexus/internal/subscription"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags, the way the teacher's
// cmd/brum embeds its own version string.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "plexusd",
	Short: "plexus streaming RPC hub, served over MCP stdio",
	Long: `plexusd wires a Plexus hub with the health and interactive demo
activations and serves it to an MCP client over newline-delimited
JSON-RPC on stdin/stdout.`,
	RunE: run,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("plexusd: load config: %w", err)
	}
	if cfg.ServerVersion == "" || cfg.ServerVersion == "0.1.0-dev" {
		cfg.ServerVersion = Version
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.JSONFormatter{})

	dispatcher := subscription.NewDispatcher(cfg.SubscriptionWorkers, 256)
	defer dispatcher.Stop()

	plexus := router.New(cfg.ServerName, cfg.ServerVersion, dispatcher)
	plexus.Register(demoactivations.Health{})
	plexus.Register(demoactivations.Interactive{})
	plexus.Finalize()

	srv := mcpserver.New(plexus, mcpserver.ServerInfo{Name: cfg.ServerName, Version: cfg.ServerVersion}, cfg.BidirDefaultTimeout)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return serveStdio(ctx, srv)
}

// serveStdio implements the read-a-line, dispatch, write-a-line loop
// MCP stdio clients expect, adapted from the framing pattern in
// ulucaydin-mcp-server-newrelic's transport_stdio.go (there:
// length-prefixed; here: newline-delimited, the wire shape standard MCP
// stdio clients actually speak).
func serveStdio(ctx context.Context, srv *mcpserver.Server) error {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	writer := bufio.NewWriter(os.Stdout)

	lines := make(chan string)
	go func() {
		defer close(lines)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return scanner.Err()
			}
			if line == "" {
				continue
			}
			resp, err := srv.Dispatch(ctx, []byte(line))
			if err != nil {
				logrus.WithError(err).Error("plexusd: dispatch failed")
				continue
			}
			if resp == nil {
				continue
			}
			if err := writeResponse(writer, resp); err != nil {
				logrus.WithError(err).Error("plexusd: write response failed")
			}
		}
	}
}

func writeResponse(w *bufio.Writer, resp *mcpserver.Response) error {
	raw, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	if _, err := w.Write(raw); err != nil {
		return err
	}
	if err := w.WriteByte('\n'); err != nil {
		return err
	}
	return w.Flush()
}
