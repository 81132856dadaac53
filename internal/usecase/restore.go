package usecase

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/hermeslink/hlink-backup/internal/domain"
)

type Restore struct {
	db             domain.Database
	resolver       domain.ContainerResolver
	compressor     domain.Compressor
	verifier       domain.Verifier
	logger         Logger
	service        string
	requireRunning bool
}

// NewRestore builds the restore usecase. verifier may be nil.
func NewRestore(
	db domain.Database,
	resolver domain.ContainerResolver,
	compressor domain.Compressor,
	verifier domain.Verifier,
	logger Logger,
	opts BackupOptions,
) *Restore {
	return &Restore{
		db:             db,
		resolver:       resolver,
		compressor:     compressor,
		verifier:       verifier,
		logger:         logger,
		service:        opts.Service,
		requireRunning: opts.RequireRunning,
	}
}

// Execute replays the compressed dump at path into the database container,
// overwriting what is there. Decompression errors and a failing client both
// fail the restore.
func (uc *Restore) Execute(ctx context.Context, path string) error {
	start := time.Now()
	dbName := uc.db.GetName()

	if err := uc.compressor.Check(path); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidBackupFile, err)
	}

	res, err := uc.resolver.Resolve(ctx, uc.service)
	if err != nil {
		return fmt.Errorf("resolve container: %w", err)
	}
	if res.Status == domain.ContainerNotFound || (res.Status == domain.ContainerNotRunning && uc.requireRunning) {
		return res.Err()
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open backup file: %w", err)
	}
	defer file.Close()

	zr, err := uc.compressor.NewReader(file)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidBackupFile, err)
	}
	defer zr.Close()

	uc.logger.Infof("[%s] Restoring %s into container %s", dbName, path, res.Container.ShortID())

	sql := &errReader{r: zr}
	counted := &countingReader{r: sql}
	restoreErr := uc.db.Restore(ctx, res.Container, counted)
	if sql.err != nil {
		return fmt.Errorf("decompress %s: %w", path, sql.err)
	}
	if restoreErr != nil {
		return fmt.Errorf("restore: %w", restoreErr)
	}

	uc.logger.Infof("[%s] Replayed %s of SQL in %s",
		dbName, humanize.IBytes(uint64(counted.n)), time.Since(start).Round(time.Second))

	if uc.verifier != nil {
		tables, err := uc.verifier.CountTables(ctx)
		if err != nil {
			uc.logger.Warnf("[%s] Could not verify restore: %v", dbName, err)
		} else {
			uc.logger.Infof("[%s] Database now has %d table(s) in schema public", dbName, tables)
		}
	}

	uc.logger.Infof("[%s] Restore completed", dbName)
	return nil
}
