package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hermeslink/hlink-backup/internal/domain"
)

type Cleanup struct {
	local         domain.Storage
	uploadTargets []UploadTarget
	naming        Naming
	logger        Logger
	retention     time.Duration
	now           func() time.Time
}

func NewCleanup(
	local domain.Storage,
	uploadTargets []UploadTarget,
	naming Naming,
	logger Logger,
	retention time.Duration,
) *Cleanup {
	return &Cleanup{
		local:         local,
		uploadTargets: uploadTargets,
		naming:        naming,
		logger:        logger,
		retention:     retention,
		now:           time.Now,
	}
}

// Execute deletes local backups older than the retention window, then does
// the same on every remote target. Only local failures are returned.
func (uc *Cleanup) Execute(ctx context.Context) error {
	cutoff := uc.now().Add(-uc.retention)
	uc.logger.Infof("Pruning backups modified before %s", cutoff.Format(time.RFC3339))

	deleted, err := uc.cleanupTarget(ctx, UploadTarget{Name: "local", Storage: uc.local}, cutoff)
	if err != nil {
		return fmt.Errorf("local cleanup: %w", err)
	}
	uc.logger.Infof("Deleted %d old backup(s) from local", deleted)

	if len(uc.uploadTargets) > 0 {
		uc.cleanupTargets(ctx, cutoff)
	}

	return nil
}

func (uc *Cleanup) cleanupTargets(ctx context.Context, cutoff time.Time) {
	var wg sync.WaitGroup

	for _, target := range uc.uploadTargets {
		wg.Add(1)
		go func(t UploadTarget) {
			defer wg.Done()

			deleted, err := uc.cleanupTarget(ctx, t, cutoff)
			if err != nil {
				uc.logger.Errorf("Cleanup failed for %s: %v", t.Name, err)
				return
			}
			uc.logger.Infof("Deleted %d old backup(s) from %s", deleted, t.Name)
		}(target)
	}

	wg.Wait()
}

func (uc *Cleanup) cleanupTarget(ctx context.Context, target UploadTarget, cutoff time.Time) (int, error) {
	files, err := target.Storage.GetOldFiles(ctx, cutoff)
	if err != nil {
		files, err = uc.fallbackListFiles(ctx, target, cutoff)
		if err != nil {
			return 0, err
		}
	}

	deleted := 0
	for _, filename := range files {
		if !uc.naming.Match(filename) {
			continue
		}

		uc.logger.Infof("Deleting old backup from %s: %s", target.Name, filename)
		if err := target.Storage.Delete(ctx, filename); err != nil {
			uc.logger.Errorf("Failed to delete %s from %s: %v", filename, target.Name, err)
			continue
		}
		deleted++
	}

	return deleted, nil
}

// fallbackListFiles is used when a target cannot filter by age itself; the
// timestamp in the file name stands in for the modification time.
func (uc *Cleanup) fallbackListFiles(ctx context.Context, target UploadTarget, cutoff time.Time) ([]string, error) {
	files, err := target.Storage.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}

	var oldFiles []string
	for _, filename := range files {
		timestamp, err := uc.naming.Parse(filename)
		if err != nil {
			uc.logger.Warnf("Could not parse timestamp from %s: %v", filename, err)
			continue
		}
		if timestamp.Before(cutoff) {
			oldFiles = append(oldFiles, filename)
		}
	}

	return oldFiles, nil
}
