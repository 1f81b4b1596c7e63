package serverrun

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	cfgpkg "github.com/rvale/sesh/internal/config"
	"github.com/rvale/sesh/internal/runtime"
	httpserver "github.com/rvale/sesh/internal/server/http"
	directorysvc "github.com/rvale/sesh/internal/services/directory"
	hubsvc "github.com/rvale/sesh/internal/services/hub"
	pebblestore "github.com/rvale/sesh/internal/storage/pebble"
	logpkg "github.com/rvale/sesh/pkg/log"
	"golang.org/x/sync/errgroup"
)

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

type Options struct {
	DataDir       string
	HTTPAddr      string
	Fsync         pebblestore.FsyncMode
	FsyncInterval time.Duration
	Config        cfgpkg.Config
}

// Run starts the HTTP server and retention sweep and blocks until ctx is
// cancelled.
func Run(ctx context.Context, opts Options) error {
	sctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if opts.DataDir == "" {
		opts.DataDir = cfgpkg.DefaultDataDir()
	}
	storeDir := filepath.Join(opts.DataDir, "store")
	rt, err := runtime.Open(runtime.Options{DataDir: storeDir, Fsync: opts.Fsync, FsyncInterval: opts.FsyncInterval, Config: opts.Config})
	if err != nil {
		return err
	}
	defer rt.Close()

	cfg := &logpkg.Config{
		Level:  getenvDefault("SESH_LOG_LEVEL", "info"),
		Format: getenvDefault("SESH_LOG_FORMAT", "text"),
	}
	procLogger, err := logpkg.ApplyConfig(cfg)
	if err != nil {
		procLogger = logpkg.NewLogger(logpkg.WithLevel(logpkg.InfoLevel), logpkg.WithFormatter(&logpkg.TextFormatter{}))
	}

	// Redirect stdlib logs (e.g., Pebble) to our logger
	logpkg.RedirectStdLog(procLogger)

	procLogger.Info("Starting sesh server",
		logpkg.Str("http", opts.HTTPAddr),
		logpkg.Str("data_dir", opts.DataDir),
		logpkg.Str("level", cfg.Level),
		logpkg.Str("format", cfg.Format),
		logpkg.Int("sub_buf", opts.Config.SubscriberBuffer),
		logpkg.Int64("keepalive_ms", opts.Config.KeepaliveMs),
		logpkg.Int64("retention_age_ms", opts.Config.RetentionAgeMs),
	)

	hub := hubsvc.New(rt, procLogger)
	dir := directorysvc.New(rt, procLogger)
	hsrv := httpserver.New(rt, hub, dir, procLogger)

	g, gctx := errgroup.WithContext(sctx)
	g.Go(func() error {
		err := hsrv.ListenAndServe(gctx, opts.HTTPAddr)
		if gctx.Err() != nil {
			return nil
		}
		return err
	})
	g.Go(func() error {
		return retentionLoop(gctx, dir, opts.Config.RetentionAgeMs, procLogger)
	})

	err = g.Wait()
	hub.CloseAll()
	hsrv.Close()
	return err
}

// retentionLoop periodically prunes finished sessions past the retention
// age. Disabled when ageMs is zero.
func retentionLoop(ctx context.Context, dir *directorysvc.Service, ageMs int64, logger logpkg.Logger) error {
	if ageMs <= 0 {
		<-ctx.Done()
		return nil
	}
	age := time.Duration(ageMs) * time.Millisecond
	interval := age / 10
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := dir.Prune(ctx, age); err != nil {
				logger.Warn("retention sweep failed", logpkg.Err(err))
			}
		}
	}
}
