package serverrun

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	cfgpkg "github.com/rvale/sesh/internal/config"
	pebblestore "github.com/rvale/sesh/internal/storage/pebble"
)

func TestGetenvDefault(t *testing.T) {
	t.Setenv("SESH_TEST_VAR", "from-env")
	if got := getenvDefault("SESH_TEST_VAR", "fallback"); got != "from-env" {
		t.Errorf("got %q", got)
	}
	_ = os.Unsetenv("SESH_TEST_VAR_UNSET")
	if got := getenvDefault("SESH_TEST_VAR_UNSET", "fallback"); got != "fallback" {
		t.Errorf("got %q", got)
	}
}

func TestDataDirFallback(t *testing.T) {
	opts := Options{DataDir: ""}
	if opts.DataDir == "" {
		opts.DataDir = cfgpkg.DefaultDataDir()
	}
	if opts.DataDir == "" {
		t.Fatal("expected a default data dir")
	}

	opts = Options{DataDir: "/custom/data"}
	if opts.DataDir != "/custom/data" {
		t.Fatalf("provided data dir not preserved: %s", opts.DataDir)
	}
	if got := filepath.Join(opts.DataDir, "store"); got != "/custom/data/store" {
		t.Fatalf("store dir = %s", got)
	}
}

// TestRunShutsDownOnCancel starts the full server and verifies Run returns
// cleanly when the context is cancelled.
func TestRunShutsDownOnCancel(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping server startup in short mode")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	err := Run(ctx, Options{
		DataDir:  t.TempDir(),
		HTTPAddr: "127.0.0.1:0",
		Fsync:    pebblestore.FsyncModeNever,
		Config:   cfgpkg.Default(),
	})
	if err != nil && err != context.DeadlineExceeded && err != context.Canceled {
		t.Fatalf("unexpected error: %v", err)
	}
}
