package commands

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/driftaudio/driftpad/pkg/server"
)

var (
	flagServeConfig string
	flagListen      string
	flagPolicyFile  string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the websocket streaming server",
	Long: `Serve generated audio over websocket.

Clients connect to /ws/music and receive binary PCM frames (mono
float32 little-endian). They steer the generator with JSON text frames:

  {"type": "focus",  "value": 72.5}
  {"type": "volume", "value": 0.6}
  {"type": "skip"}
  {"type": "stop"}

Examples:
  driftpad serve --listen :8977
  driftpad serve -f serve.yaml`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&flagServeConfig, "config", "f", "", "yaml config file")
	serveCmd.Flags().StringVar(&flagListen, "listen", "", "listen address (overrides config)")
	serveCmd.Flags().StringVar(&flagPolicyFile, "policy", "", "policy snapshot file (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	level := slog.LevelInfo
	if IsVerbose() {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	var cfg server.Config
	if flagServeConfig != "" {
		var err error
		cfg, err = server.LoadConfig(flagServeConfig)
		if err != nil {
			return err
		}
	}
	if flagListen != "" {
		cfg.Listen = flagListen
	}
	if flagPolicyFile != "" {
		cfg.PolicyFile = flagPolicyFile
	}
	if cfg.PolicyFile == "" {
		if path, err := defaultPolicyPath(); err == nil {
			cfg.PolicyFile = path
		}
	}

	srv := server.New(cfg)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}()

	return srv.ListenAndServe()
}
