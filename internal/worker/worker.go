package worker

import (
	"context"
	"strings"
	"sync"
	"time"

	"autorepair/internal/backup"
	"autorepair/internal/util"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

// BackupManager is the part of the backup manager the worker drives
type BackupManager interface {
	Backup(name string) (string, error)
	List() ([]backup.File, error)
	Delete(path string) error
}

// BackupWorker takes scheduled backups of the sqlite file and prunes old ones
type BackupWorker struct {
	manager  BackupManager
	interval time.Duration
	keep     int
	done     chan struct{}
	stopOnce sync.Once
	logger   *zap.Logger
}

// NewBackupWorker creates a new backup worker. keep <= 0 keeps every backup.
func NewBackupWorker(manager BackupManager, interval time.Duration, keep int) *BackupWorker {
	return &BackupWorker{
		manager:  manager,
		interval: interval,
		keep:     keep,
		done:     make(chan struct{}),
		logger:   util.GetLogger(),
	}
}

// Start runs until ctx is cancelled or Stop is called
func (w *BackupWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting backup worker", zap.Duration("interval", w.interval), zap.Int("keep", w.keep))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.done:
			return nil
		case <-ticker.C:
			w.RunOnce()
		}
	}
}

// Stop stops the worker
func (w *BackupWorker) Stop() {
	w.logger.Info("Stopping backup worker")
	w.stopOnce.Do(func() { close(w.done) })
}

// RunOnce takes one backup and prunes the oldest timestamped backups beyond
// keep. Named backups are never pruned.
func (w *BackupWorker) RunOnce() {
	path, err := w.manager.Backup("")
	if err != nil {
		w.logger.Error("Scheduled backup failed", zap.Error(err))
		return
	}
	w.logger.Info("Scheduled backup written", zap.String("path", path))

	if w.keep <= 0 {
		return
	}

	files, err := w.manager.List()
	if err != nil {
		w.logger.Error("Failed to list backups", zap.Error(err))
		return
	}
	scheduled := lo.Filter(files, func(f backup.File, _ int) bool {
		return strings.HasPrefix(f.Name, backup.FilePrefix)
	})
	if len(scheduled) <= w.keep {
		return
	}

	for _, f := range scheduled[w.keep:] {
		if err := w.manager.Delete(f.Path); err != nil {
			w.logger.Warn("Failed to prune backup", zap.String("path", f.Path), zap.Error(err))
		}
	}
}
