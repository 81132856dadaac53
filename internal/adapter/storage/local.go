package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/hermeslink/hlink-backup/internal/domain"
)

// LocalStorage is the backup directory on the host. Only file names accepted
// by match are listed or considered for retention.
type LocalStorage struct {
	basePath string
	match    func(name string) bool
}

func NewLocal(basePath string, match func(name string) bool) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}
	if match == nil {
		match = func(string) bool { return true }
	}
	return &LocalStorage{basePath: basePath, match: match}, nil
}

// Create opens a new file for writing. It never truncates an existing backup.
func (l *LocalStorage) Create(name string) (*os.File, error) {
	if err := os.MkdirAll(l.basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}

	file, err := os.OpenFile(l.GetPath(name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0640)
	if errors.Is(err, fs.ErrExist) {
		return nil, fmt.Errorf("%w: %s", domain.ErrBackupExists, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create backup file: %w", err)
	}
	return file, nil
}

func (l *LocalStorage) Upload(ctx context.Context, localPath string, remoteName string) error {
	destPath := l.GetPath(remoteName)
	if filepath.Clean(localPath) == filepath.Clean(destPath) {
		return nil
	}

	source, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer source.Close()

	dest, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create dest: %w", err)
	}
	defer dest.Close()

	if _, err := dest.ReadFrom(source); err != nil {
		return fmt.Errorf("failed to copy: %w", err)
	}

	return nil
}

// List returns matching backup names, oldest name first.
func (l *LocalStorage) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(l.basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.Type().IsRegular() && l.match(entry.Name()) {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	return files, nil
}

func (l *LocalStorage) Delete(ctx context.Context, remoteName string) error {
	if err := os.Remove(l.GetPath(remoteName)); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// GetOldFiles returns matching files whose modification time is before
// cutoffTime.
func (l *LocalStorage) GetOldFiles(ctx context.Context, cutoffTime time.Time) ([]string, error) {
	names, err := l.List(ctx)
	if err != nil {
		return nil, err
	}

	var oldFiles []string
	for _, name := range names {
		info, err := os.Stat(l.GetPath(name))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get file info for %s: %w", name, err)
		}
		if info.ModTime().Before(cutoffTime) {
			oldFiles = append(oldFiles, name)
		}
	}

	return oldFiles, nil
}

func (l *LocalStorage) GetPath(filename string) string {
	return filepath.Join(l.basePath, filename)
}
