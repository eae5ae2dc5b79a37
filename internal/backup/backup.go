package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"autorepair/internal/util"

	"github.com/jmoiron/sqlx"
	"github.com/samber/lo"
	"go.uber.org/zap"

	_ "modernc.org/sqlite"
)

// FilePrefix starts the name of every timestamped backup
const FilePrefix = "auto_repair_backup_"

const (
	fileSuffix     = ".db"
	timeLayout     = "20060102_150405"
	safetyCopyName = "current_backup_before_restore.db"
)

var ErrNotSQLite = errors.New("not a sqlite database")

// File is a backup found in the backup directory
type File struct {
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	SizeBytes int64     `json:"size_bytes"`
	ModTime   time.Time `json:"modified_at"`
}

// Manager copies the live SQLite file in and out of the backup directory
type Manager struct {
	dbPath string
	dir    string
	logger *zap.Logger
}

// NewManager creates a backup manager for the database file at dbPath
func NewManager(dbPath, dir string) *Manager {
	return &Manager{
		dbPath: dbPath,
		dir:    dir,
		logger: util.GetLogger(),
	}
}

// Dir returns the backup directory
func (m *Manager) Dir() string {
	return m.dir
}

// Backup copies the database file into the backup directory. An empty name
// gets a timestamped one.
func (m *Manager) Backup(name string) (string, error) {
	if name == "" {
		name = FilePrefix + time.Now().Format(timeLayout) + fileSuffix
	}
	if filepath.Base(name) != name {
		util.BackupsTotal.WithLabelValues("failed").Inc()
		return "", fmt.Errorf("invalid backup name %q", name)
	}

	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		util.BackupsTotal.WithLabelValues("failed").Inc()
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	dst := filepath.Join(m.dir, name)
	if err := copyFile(m.dbPath, dst); err != nil {
		util.BackupsTotal.WithLabelValues("failed").Inc()
		return "", fmt.Errorf("failed to back up database: %w", err)
	}

	util.BackupsTotal.WithLabelValues("created").Inc()
	m.logger.Info("Database backed up", zap.String("path", dst))
	return dst, nil
}

// Restore replaces the live database with the backup at path. The current file
// is first saved next to the backups. The database must not be open.
func (m *Manager) Restore(ctx context.Context, path string) error {
	if _, err := os.Stat(path); err != nil {
		util.BackupsTotal.WithLabelValues("restore_failed").Inc()
		return fmt.Errorf("failed to open backup: %w", err)
	}
	if err := Validate(ctx, path); err != nil {
		util.BackupsTotal.WithLabelValues("restore_failed").Inc()
		return err
	}

	if _, err := os.Stat(m.dbPath); err == nil {
		if _, err := m.Backup(safetyCopyName); err != nil {
			util.BackupsTotal.WithLabelValues("restore_failed").Inc()
			return fmt.Errorf("failed to save current database: %w", err)
		}
	}

	if err := copyFile(path, m.dbPath); err != nil {
		util.BackupsTotal.WithLabelValues("restore_failed").Inc()
		return fmt.Errorf("failed to restore database: %w", err)
	}

	util.BackupsTotal.WithLabelValues("restored").Inc()
	m.logger.Info("Database restored", zap.String("from", path), zap.String("to", m.dbPath))
	return nil
}

// List returns the backups in the backup directory, newest first
func (m *Manager) List() ([]File, error) {
	entries, err := os.ReadDir(m.dir)
	if errors.Is(err, os.ErrNotExist) {
		return []File{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	files := lo.FilterMap(entries, func(e os.DirEntry, _ int) (File, bool) {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fileSuffix) {
			return File{}, false
		}
		info, err := e.Info()
		if err != nil {
			return File{}, false
		}
		return File{
			Name:      e.Name(),
			Path:      filepath.Join(m.dir, e.Name()),
			SizeBytes: info.Size(),
			ModTime:   info.ModTime(),
		}, true
	})

	sort.SliceStable(files, func(i, j int) bool {
		return files[i].ModTime.After(files[j].ModTime)
	})
	return files, nil
}

// Delete removes a backup. Bare names are resolved inside the backup directory.
func (m *Manager) Delete(path string) error {
	if filepath.Base(path) == path {
		path = filepath.Join(m.dir, path)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to delete backup: %w", err)
	}
	m.logger.Info("Backup deleted", zap.String("path", path))
	return nil
}

// Validate opens path and runs a quick integrity check
func Validate(ctx context.Context, path string) error {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotSQLite, err)
	}
	defer db.Close()

	var result string
	if err := db.GetContext(ctx, &result, "PRAGMA quick_check"); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNotSQLite, path, err)
	}
	if !strings.EqualFold(result, "ok") {
		return fmt.Errorf("%w: %s: %s", ErrNotSQLite, path, result)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Sync(); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
