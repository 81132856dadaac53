package lock

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/hermeslink/hlink-backup/internal/domain"
)

// Acquire takes an exclusive advisory lock on path without blocking and
// returns the release function.
func Acquire(path string) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	fileLock := flock.New(path)

	locked, err := fileLock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to attempt lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("%w (lock file %s)", domain.ErrLocked, path)
	}

	return func() {
		_ = fileLock.Unlock()
	}, nil
}
