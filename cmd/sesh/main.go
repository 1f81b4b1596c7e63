package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	clientcmd "github.com/rvale/sesh/internal/cmd/client"
	serverrun "github.com/rvale/sesh/internal/cmd/server"
	cfgpkg "github.com/rvale/sesh/internal/config"
	pebblestore "github.com/rvale/sesh/internal/storage/pebble"
	logpkg "github.com/rvale/sesh/pkg/log"
	"github.com/spf13/cobra"
)

func main() {
	// Respect SESH_LOG_LEVEL for both CLI and server start output
	level := os.Getenv("SESH_LOG_LEVEL")
	parsed, err := logpkg.ParseLevel(level)
	if err != nil || level == "" {
		parsed = logpkg.InfoLevel
	}
	logger := logpkg.NewLogger(
		logpkg.WithLevel(parsed),
		logpkg.WithFormatter(&logpkg.TextFormatter{}),
		logpkg.WithOutput(logpkg.NewConsoleOutput()),
	)

	// Redirect standard library logs (used by Pebble) to our logger
	logpkg.RedirectStdLog(logger)

	rootCmd := &cobra.Command{
		Use:   "sesh",
		Short: "sesh session event hub CLI",
		Long:  "sesh is a single-binary event hub for monitoring long-running agent sessions. This CLI manages the server and basic operations.",
	}

	serverCmd := &cobra.Command{Use: "server", Short: "Server commands"}
	serverStartCmd := &cobra.Command{
		Use:     "start",
		Short:   "Start sesh server",
		Aliases: []string{"run"},
		RunE: func(cmd *cobra.Command, args []string) error {
			dataDir, _ := cmd.Flags().GetString("data-dir")
			httpAddr, _ := cmd.Flags().GetString("http")
			configPath, _ := cmd.Flags().GetString("config")
			fsyncMode, _ := cmd.Flags().GetString("fsync")
			fsyncIntervalMs, _ := cmd.Flags().GetInt("fsync-interval-ms")
			logLevel, _ := cmd.Flags().GetString("log-level")
			logFormat, _ := cmd.Flags().GetString("log-format")
			subBuf, _ := cmd.Flags().GetInt("sub-buf")
			keepaliveMs, _ := cmd.Flags().GetInt64("keepalive-ms")
			retentionAgeMs, _ := cmd.Flags().GetInt64("retention-age-ms")

			mode := pebblestore.FsyncModeAlways
			switch fsyncMode {
			case "never":
				mode = pebblestore.FsyncModeNever
			case "interval":
				mode = pebblestore.FsyncModeInterval
			case "always":
				mode = pebblestore.FsyncModeAlways
			default:
				return fmt.Errorf("invalid --fsync; use always|interval|never")
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			cfg, err := cfgpkg.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			cfgpkg.FromEnv(&cfg)
			if httpAddr != "" {
				cfg.HTTPAddr = httpAddr
			}
			if subBuf > 0 {
				cfg.SubscriberBuffer = subBuf
			}
			if keepaliveMs >= 0 {
				cfg.KeepaliveMs = keepaliveMs
			}
			if retentionAgeMs > 0 {
				cfg.RetentionAgeMs = retentionAgeMs
			}
			if logLevel != "" {
				_ = os.Setenv("SESH_LOG_LEVEL", logLevel)
			}
			if logFormat != "" {
				_ = os.Setenv("SESH_LOG_FORMAT", logFormat)
			}

			if err := serverrun.Run(ctx, serverrun.Options{
				DataDir:       dataDir,
				HTTPAddr:      cfg.HTTPAddr,
				Fsync:         mode,
				FsyncInterval: time.Duration(fsyncIntervalMs) * time.Millisecond,
				Config:        cfg,
			}); err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			// brief delay to allow logs flush
			time.Sleep(100 * time.Millisecond)
			return nil
		},
	}
	serverStartCmd.Flags().String("data-dir", "", "Data directory (if not specified, uses OS-specific application data directory)")
	serverStartCmd.Flags().String("http", "", "HTTP listen address (default :8080)")
	serverStartCmd.Flags().String("config", os.Getenv("SESH_CONFIG"), "Path to JSON config file")
	serverStartCmd.Flags().String("fsync", "always", "Fsync mode: always|interval|never")
	serverStartCmd.Flags().Int("fsync-interval-ms", 5, "When --fsync=interval, group-commit window in ms (default 5)")
	serverStartCmd.Flags().String("log-level", os.Getenv("SESH_LOG_LEVEL"), "Log level: debug|info|warn|error")
	serverStartCmd.Flags().String("log-format", os.Getenv("SESH_LOG_FORMAT"), "Log format: text|json (default text)")
	serverStartCmd.Flags().Int("sub-buf", func() int {
		v, _ := strconv.Atoi(os.Getenv("SESH_SUB_BUF"))
		return v
	}(), "Subscribe buffer size per subscription (default 1024)")
	serverStartCmd.Flags().Int64("keepalive-ms", -1, "SSE keepalive interval in ms (0 disables)")
	serverStartCmd.Flags().Int64("retention-age-ms", 0, "Prune finished sessions older than this (0 disables)")
	serverCmd.AddCommand(serverStartCmd)
	rootCmd.AddCommand(serverCmd)

	rootCmd.AddCommand(clientcmd.NewSessionsCommand(apiURL))
	rootCmd.AddCommand(clientcmd.NewPublishCommand(apiURL))
	rootCmd.AddCommand(clientcmd.NewWatchCommand(apiURL))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func apiURL() string {
	if v := os.Getenv("SESH_HTTP"); v != "" {
		return v
	}
	return "http://127.0.0.1:8080"
}
