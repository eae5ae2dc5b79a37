package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"autorepair/internal/backup"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockManager struct {
	mock.Mock
}

func (m *mockManager) Backup(name string) (string, error) {
	args := m.Called(name)
	return args.String(0), args.Error(1)
}

func (m *mockManager) List() ([]backup.File, error) {
	args := m.Called()
	files, _ := args.Get(0).([]backup.File)
	return files, args.Error(1)
}

func (m *mockManager) Delete(path string) error {
	return m.Called(path).Error(0)
}

func TestRunOncePrunesOldScheduledBackups(t *testing.T) {
	m := &mockManager{}
	m.On("Backup", "").Return("backups/auto_repair_backup_20240503_010000.db", nil)
	m.On("List").Return([]backup.File{
		{Name: "auto_repair_backup_20240503_010000.db", Path: "backups/auto_repair_backup_20240503_010000.db"},
		{Name: "before-upgrade.db", Path: "backups/before-upgrade.db"},
		{Name: "auto_repair_backup_20240502_010000.db", Path: "backups/auto_repair_backup_20240502_010000.db"},
		{Name: "auto_repair_backup_20240501_010000.db", Path: "backups/auto_repair_backup_20240501_010000.db"},
	}, nil)
	m.On("Delete", "backups/auto_repair_backup_20240501_010000.db").Return(nil)

	NewBackupWorker(m, time.Hour, 2).RunOnce()

	m.AssertExpectations(t)
	m.AssertNumberOfCalls(t, "Delete", 1)
}

func TestRunOnceKeepsEverythingWhenUnlimited(t *testing.T) {
	m := &mockManager{}
	m.On("Backup", "").Return("backups/x.db", nil)

	NewBackupWorker(m, time.Hour, 0).RunOnce()

	m.AssertNotCalled(t, "List")
}

func TestRunOnceStopsOnBackupFailure(t *testing.T) {
	m := &mockManager{}
	m.On("Backup", "").Return("", errors.New("disk full"))

	NewBackupWorker(m, time.Hour, 3).RunOnce()

	m.AssertNotCalled(t, "List")
}

func TestStartBacksUpOnEveryTick(t *testing.T) {
	ticks := make(chan struct{}, 1)
	m := &mockManager{}
	m.On("Backup", "").Return("backups/x.db", nil).Run(func(mock.Arguments) {
		select {
		case ticks <- struct{}{}:
		default:
		}
	})

	w := NewBackupWorker(m, 10*time.Millisecond, 0)
	done := make(chan error, 1)
	go func() { done <- w.Start(context.Background()) }()

	select {
	case <-ticks:
	case <-time.After(time.Second):
		t.Fatal("no backup taken")
	}

	w.Stop()
	w.Stop()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestStartReturnsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	w := NewBackupWorker(&mockManager{}, time.Hour, 0)

	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}
