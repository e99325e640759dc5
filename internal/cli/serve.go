package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ppiankov/clauseguard/internal/pipeline"
	"github.com/ppiankov/clauseguard/internal/server"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analysis engine over HTTP",
	Long: `Serve starts an HTTP API around one shared engine.

Endpoints:
  POST /v1/analyze         {"text": "...", "language": "en"}
  POST /v1/analyze?format=markdown
  GET  /v1/rules
  POST /v1/rules/reload    re-read the rule catalog without a restart
  GET  /healthz

Example:
  clauseguard serve --addr :8088 --rules ./catalog.yaml`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default: server.addr)")
	addEngineFlags(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	// Request logs are useful by default here
	if !verbose {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))
	}

	engine, err := pipeline.NewEngine(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = engine.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := engine.Store().Current()
	fmt.Fprintf(os.Stderr, "✓ Catalog %s (%s)\n", c.Version, c.Hash)
	fmt.Fprintf(os.Stderr, "✓ Listening on %s\n", cfg.Server.Addr)

	return server.New(engine, cfg.Server, cfg.Output.IncludeFooter, slog.Default()).ListenAndServe(ctx)
}
