package worker

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const ArchiveSweepInterval = time.Hour

// LogArchiveWorker deletes the oldest rotated error log archives so that at
// most Keep of them remain next to the active file.
type LogArchiveWorker struct {
	activePath string
	keep       int
	interval   time.Duration
	log        zerolog.Logger
}

func NewLogArchiveWorker(activePath string, keep int, log zerolog.Logger) *LogArchiveWorker {
	return &LogArchiveWorker{
		activePath: activePath,
		keep:       keep,
		interval:   ArchiveSweepInterval,
		log:        log.With().Str("component", "log_archive_worker").Logger(),
	}
}

// ----------------------------------------------------------------
// Worker loop
// ----------------------------------------------------------------

func (w *LogArchiveWorker) Start(ctx context.Context) {
	if w.keep <= 0 {
		w.log.Info().Msg("Archive retention disabled")
		return
	}
	w.log.Info().Int("keep", w.keep).Msg("LogArchiveWorker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		w.sweepSafe()

		select {
		case <-ctx.Done():
			w.log.Info().Msg("LogArchiveWorker stopped")
			return
		case <-ticker.C:
		}
	}
}

func (w *LogArchiveWorker) sweepSafe() {
	removed, err := w.Sweep()
	if err != nil {
		w.log.Error().Err(err).Msg("Archive sweep failed")
		return
	}
	if removed > 0 {
		w.log.Info().Int("removed", removed).Msg("Old log archives removed")
	}
}

// Sweep removes archives beyond the newest keep and returns how many were
// deleted. Archive names embed their rotation time, so lexical order is
// chronological.
func (w *LogArchiveWorker) Sweep() (int, error) {
	archives, err := w.archives()
	if err != nil {
		return 0, err
	}
	if len(archives) <= w.keep {
		return 0, nil
	}

	removed := 0
	for _, path := range archives[:len(archives)-w.keep] {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			w.log.Warn().Err(err).Str("path", path).Msg("Failed to remove archive")
			continue
		}
		removed++
	}
	return removed, nil
}

func (w *LogArchiveWorker) archives() ([]string, error) {
	ext := filepath.Ext(w.activePath)
	base := strings.TrimSuffix(w.activePath, ext)

	matches, err := filepath.Glob(base + "-*" + ext)
	if err != nil {
		return nil, err
	}

	layout := archiveName(filepath.Base(base), ext)
	archives := matches[:0]
	for _, m := range matches {
		if layout.MatchString(filepath.Base(m)) {
			archives = append(archives, m)
		}
	}
	sort.Strings(archives)
	return archives, nil
}

// archiveName matches logger.RotatedName output: the base name, a UTC
// millisecond timestamp with ':' and '.' replaced by '-', then the extension.
func archiveName(base, ext string) *regexp.Regexp {
	return regexp.MustCompile(`^` + regexp.QuoteMeta(base) +
		`-\d{4}-\d{2}-\d{2}T\d{2}-\d{2}-\d{2}-\d{3}Z` + regexp.QuoteMeta(ext) + `$`)
}
