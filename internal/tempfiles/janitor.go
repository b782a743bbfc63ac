/*
 * Package tempfiles removes stale upload spool files from the temp folder.
 * Only files whose names match the spool pattern are considered, so the
 * janitor is safe to point at a shared directory such as os.TempDir().
 */
package tempfiles

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/neurondb/NeuronFlow/internal/logging"
)

// Janitor periodically deletes spool files older than MaxAge
type Janitor struct {
	dir      string
	pattern  string
	interval time.Duration
	maxAge   time.Duration
	logger   *logging.Logger
	now      func() time.Time
}

// NewJanitor creates a janitor over dir for files matching the glob pattern
func NewJanitor(dir, pattern string, interval, maxAge time.Duration, logger *logging.Logger) *Janitor {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &Janitor{
		dir:      dir,
		pattern:  pattern,
		interval: interval,
		maxAge:   maxAge,
		logger:   logger,
		now:      time.Now,
	}
}

// Run sweeps once immediately, then on every tick until ctx is done
func (j *Janitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.Sweep()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.Sweep()
		}
	}
}

// Sweep deletes matching files older than maxAge and returns how many were removed
func (j *Janitor) Sweep() int {
	matches, err := filepath.Glob(filepath.Join(j.dir, j.pattern))
	if err != nil {
		j.logger.Warn("Temp folder glob failed", map[string]interface{}{"dir": j.dir, "error": err.Error()})
		return 0
	}

	cutoff := j.now().Add(-j.maxAge)
	removed := 0
	for _, path := range matches {
		info, err := os.Lstat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			j.logger.Warn("Failed to remove stale upload", map[string]interface{}{"path": path, "error": err.Error()})
			continue
		}
		removed++
	}

	if removed > 0 {
		j.logger.Info("Removed stale uploads", map[string]interface{}{"dir": j.dir, "count": removed})
	}
	return removed
}
