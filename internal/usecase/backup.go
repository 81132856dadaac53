package usecase

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/hermeslink/hlink-backup/internal/domain"
)

type Backup struct {
	db             domain.Database
	resolver       domain.ContainerResolver
	localStorage   LocalStorage
	uploadTargets  []UploadTarget
	compressor     domain.Compressor
	cleanup        domain.BackupExecutor
	naming         Naming
	logger         Logger
	service        string
	requireRunning bool
	now            func() time.Time
}

type UploadTarget struct {
	Name    string
	Storage domain.Storage
}

type LocalStorage interface {
	domain.Storage
	Create(name string) (*os.File, error)
	GetPath(filename string) string
}

type Logger interface {
	Infof(template string, args ...interface{})
	Errorf(template string, args ...interface{})
	Warnf(template string, args ...interface{})
}

type BackupOptions struct {
	Service        string
	RequireRunning bool
}

func NewBackup(
	db domain.Database,
	resolver domain.ContainerResolver,
	localStorage LocalStorage,
	uploadTargets []UploadTarget,
	compressor domain.Compressor,
	cleanup domain.BackupExecutor,
	naming Naming,
	logger Logger,
	opts BackupOptions,
) *Backup {
	return &Backup{
		db:             db,
		resolver:       resolver,
		localStorage:   localStorage,
		uploadTargets:  uploadTargets,
		compressor:     compressor,
		cleanup:        cleanup,
		naming:         naming,
		logger:         logger,
		service:        opts.Service,
		requireRunning: opts.RequireRunning,
		now:            time.Now,
	}
}

func (uc *Backup) Execute(ctx context.Context) error {
	_, err := uc.Run(ctx)
	return err
}

// Run produces one compressed dump, prunes expired ones and copies the new
// file to the remote targets. Any failure up to the dump being on disk aborts
// the run. A failed local prune does not stop the uploads and is returned
// along with the backup; remote problems are only logged.
func (uc *Backup) Run(ctx context.Context) (*domain.Backup, error) {
	start := uc.now()
	runID := uuid.NewString()
	dbName := uc.db.GetName()
	uc.logger.Infof("[%s] Starting backup run %s", dbName, runID)

	res, err := uc.resolver.Resolve(ctx, uc.service)
	if err != nil {
		return nil, fmt.Errorf("resolve container: %w", err)
	}
	switch res.Status {
	case domain.ContainerFound:
	case domain.ContainerNotRunning:
		if uc.requireRunning {
			return nil, res.Err()
		}
		uc.logger.Warnf("[%s] Container %s is not running, attempting dump anyway", dbName, res.Container.ShortID())
	default:
		return nil, res.Err()
	}
	uc.logger.Infof("[%s] Using container %s (%s)", dbName, res.Container.ShortID(), res.Container.Service)

	backup := &domain.Backup{
		RunID:      runID,
		Filename:   uc.naming.Format(start),
		Compressed: true,
		CreatedAt:  start,
		Database:   dbName,
	}
	backup.FilePath = uc.localStorage.GetPath(backup.Filename)

	uc.logger.Infof("[%s] Dumping to %s", dbName, backup.FilePath)
	if err := uc.dump(ctx, res.Container, backup); err != nil {
		return nil, err
	}

	uc.logger.Infof("[%s] Backup written, %s SQL compressed to %s",
		dbName, humanize.IBytes(uint64(backup.RawSize)), humanize.IBytes(uint64(backup.Size)))

	cleanupErr := uc.cleanup.Execute(ctx)
	if cleanupErr != nil {
		uc.logger.Errorf("[%s] Cleanup failed: %v", dbName, cleanupErr)
	}

	if len(uc.uploadTargets) > 0 {
		uc.uploadToTargets(ctx, backup.FilePath, backup.Filename)
	}

	if cleanupErr != nil {
		return backup, fmt.Errorf("cleanup: %w", cleanupErr)
	}

	uc.logger.Infof("[%s] Backup completed in %s: %s",
		dbName, uc.now().Sub(start).Round(time.Second), backup.Filename)

	return backup, nil
}

// dump streams pg_dump output through the compressor into a new file. The
// file is removed again if anything goes wrong, including an empty dump.
func (uc *Backup) dump(ctx context.Context, c domain.Container, backup *domain.Backup) (err error) {
	file, err := uc.localStorage.Create(backup.Filename)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			file.Close()
			if rmErr := os.Remove(backup.FilePath); rmErr != nil && !os.IsNotExist(rmErr) {
				uc.logger.Errorf("Failed to remove incomplete backup %s: %v", backup.FilePath, rmErr)
			}
		}
	}()

	zw, err := uc.compressor.NewWriter(file)
	if err != nil {
		return fmt.Errorf("compression: %w", err)
	}

	raw := &countingWriter{w: zw}
	if err = uc.db.Dump(ctx, c, raw); err != nil {
		zw.Close()
		return fmt.Errorf("backup: %w", err)
	}
	if err = zw.Close(); err != nil {
		return fmt.Errorf("compression: %w", err)
	}
	if err = file.Sync(); err != nil {
		return fmt.Errorf("sync backup file: %w", err)
	}
	if err = file.Close(); err != nil {
		return fmt.Errorf("close backup file: %w", err)
	}

	info, err := os.Stat(backup.FilePath)
	if err != nil {
		return fmt.Errorf("stat backup file: %w", err)
	}
	if raw.n == 0 || info.Size() == 0 {
		return fmt.Errorf("%w: %s (check credentials and container state)", domain.ErrEmptyBackup, backup.Filename)
	}

	backup.RawSize = raw.n
	backup.Size = info.Size()
	return nil
}

func (uc *Backup) uploadToTargets(ctx context.Context, filePath, filename string) {
	var wg sync.WaitGroup
	dbName := uc.db.GetName()

	for _, target := range uc.uploadTargets {
		wg.Add(1)
		go func(t UploadTarget) {
			defer wg.Done()

			uc.logger.Infof("[%s] Uploading to %s...", dbName, t.Name)
			if err := t.Storage.Upload(ctx, filePath, filename); err != nil {
				uc.logger.Errorf("[%s] Failed to upload to %s: %v", dbName, t.Name, err)
			} else {
				uc.logger.Infof("[%s] Successfully uploaded to %s", dbName, t.Name)
			}
		}(target)
	}

	wg.Wait()
}
