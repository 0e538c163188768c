package worker

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/qbank-backend/internal/logger"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("{}\n"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLogArchiveWorkerSweep(t *testing.T) {
	dir := t.TempDir()
	active := filepath.Join(dir, "api-errors.log")
	writeFile(t, active)
	writeFile(t, filepath.Join(dir, "other.log"))
	writeFile(t, filepath.Join(dir, "api-errors-backup.log"))
	writeFile(t, filepath.Join(dir, "api-errors-2026-01-01.log"))

	start := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	var archives []string
	for i := 0; i < 5; i++ {
		p := logger.RotatedName(active, start.Add(time.Duration(i)*24*time.Hour))
		writeFile(t, p)
		archives = append(archives, p)
	}

	w := NewLogArchiveWorker(active, 2, zerolog.Nop())
	removed, err := w.Sweep()
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if removed != 3 {
		t.Errorf("removed = %d, want 3", removed)
	}

	for i, p := range archives {
		_, err := os.Stat(p)
		if i < 3 && !os.IsNotExist(err) {
			t.Errorf("old archive %s still present", filepath.Base(p))
		}
		if i >= 3 && err != nil {
			t.Errorf("recent archive %s missing: %v", filepath.Base(p), err)
		}
	}
	for _, name := range []string{"api-errors.log", "other.log", "api-errors-backup.log", "api-errors-2026-01-01.log"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s should be untouched: %v", name, err)
		}
	}

	if removed, err := w.Sweep(); err != nil || removed != 0 {
		t.Errorf("second sweep = %d, %v", removed, err)
	}
}

func TestLogArchiveWorkerStartStops(t *testing.T) {
	dir := t.TempDir()
	w := NewLogArchiveWorker(filepath.Join(dir, "api-errors.log"), 1, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop")
	}
}
