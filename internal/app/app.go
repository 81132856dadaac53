package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/hermeslink/hlink-backup/internal/adapter/compressor"
	"github.com/hermeslink/hlink-backup/internal/adapter/container"
	"github.com/hermeslink/hlink-backup/internal/adapter/database"
	"github.com/hermeslink/hlink-backup/internal/adapter/storage"
	"github.com/hermeslink/hlink-backup/internal/config"
	"github.com/hermeslink/hlink-backup/internal/domain"
	"github.com/hermeslink/hlink-backup/internal/infrastructure/lock"
	"github.com/hermeslink/hlink-backup/internal/infrastructure/logger"
	"github.com/hermeslink/hlink-backup/internal/infrastructure/scheduler"
	"github.com/hermeslink/hlink-backup/internal/infrastructure/shell"
	"github.com/hermeslink/hlink-backup/internal/usecase"
)

type restorer interface {
	Execute(ctx context.Context, path string) error
}

type App struct {
	config        *config.Config
	logger        *logger.Logger
	uploadTargets []usecase.UploadTarget
	notifiers     []domain.Notifier
	backupUC      domain.BackupExecutor
	cleanupUC     domain.BackupExecutor
	newRestore    func(log usecase.Logger) restorer
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	log, err := logger.New(cfg.App.LogLevel, cfg.App.LogFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := shell.CheckTools("docker"); err != nil {
		return nil, err
	}

	log.Infof("Starting %s for compose service %q (database %s)", cfg.App.Name, cfg.Database.Service, cfg.Database.Name)

	runner := shell.NewExecRunner()
	resolver := container.NewComposeResolver(runner, cfg.Database.ComposeFile, cfg.Database.ComposeProject)
	db := database.NewPostgreSQL(runner, &cfg.Database, cfg.Restore.StopOnError)
	comp := compressor.NewGzip()
	naming := usecase.NewNaming(cfg.Backup.FilePrefix, comp.Extension())

	localStorage, err := storage.NewLocal(cfg.Backup.LocalPath, naming.Match)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize local storage: %w", err)
	}

	uploadTargets, notifiers := initializeUploadTargets(ctx, cfg, log)

	opts := usecase.BackupOptions{
		Service:        cfg.Database.Service,
		RequireRunning: cfg.Database.RequireRunning,
	}

	cleanupUC := usecase.NewCleanup(localStorage, uploadTargets, naming, log, cfg.Retention())
	backupUC := usecase.NewBackup(db, resolver, localStorage, uploadTargets, comp, cleanupUC, naming, log, opts)

	var verifier domain.Verifier
	if cfg.Database.DSN != "" {
		verifier = database.NewProbe(cfg.Database.DSN)
	}

	return &App{
		config:        cfg,
		logger:        log,
		uploadTargets: uploadTargets,
		notifiers:     notifiers,
		backupUC:      backupUC,
		cleanupUC:     cleanupUC,
		newRestore: func(l usecase.Logger) restorer {
			return usecase.NewRestore(db, resolver, comp, verifier, l, opts)
		},
	}, nil
}

// initializeUploadTargets builds the enabled remote targets. A target that
// fails to initialize is logged and skipped so the local backup still runs.
func initializeUploadTargets(ctx context.Context, cfg *config.Config, log *logger.Logger) ([]usecase.UploadTarget, []domain.Notifier) {
	var targets []usecase.UploadTarget
	var notifiers []domain.Notifier

	for _, targetCfg := range cfg.GetEnabledUploadTargets() {
		var stor domain.Storage
		var err error

		switch targetCfg.Type {
		case "gdrive":
			stor, err = storage.NewGDrive(ctx, &targetCfg)
			if err != nil {
				log.Errorf("Failed to initialize Google Drive: %v", err)
				continue
			}
			log.Infof("✓ Google Drive upload enabled")

		case "s3":
			stor, err = storage.NewS3(ctx, &targetCfg)
			if err != nil {
				log.Errorf("Failed to initialize S3: %v", err)
				continue
			}
			log.Infof("✓ S3 upload enabled (bucket: %s)", targetCfg.Bucket)

		case "minio":
			stor, err = storage.NewMinio(&targetCfg)
			if err != nil {
				log.Errorf("Failed to initialize MinIO: %v", err)
				continue
			}
			log.Infof("✓ MinIO upload enabled (bucket: %s)", targetCfg.Bucket)

		case "telegram":
			tg, err := storage.NewTelegram(&targetCfg)
			if err != nil {
				log.Errorf("Failed to initialize Telegram: %v", err)
				continue
			}
			stor = tg
			notifiers = append(notifiers, tg)
			log.Infof("✓ Telegram upload enabled")

		default:
			log.Warnf("Unknown upload target type: %s", targetCfg.Type)
			continue
		}

		targets = append(targets, usecase.UploadTarget{
			Name:    targetCfg.Type,
			Storage: stor,
		})
	}

	return targets, notifiers
}

// Backup runs one backup under the shared lock.
func (a *App) Backup(ctx context.Context) error {
	return a.exclusive(ctx, a.backupUC.Execute)
}

// Prune applies retention without taking a new backup.
func (a *App) Prune(ctx context.Context) error {
	return a.exclusive(ctx, a.cleanupUC.Execute)
}

// Restore replays the backup at path. It shares the lock with Backup so a
// restore never overlaps a dump.
func (a *App) Restore(ctx context.Context, path string) error {
	log := a.logger.WithRun(uuid.NewString())
	uc := a.newRestore(log)
	return a.exclusive(ctx, func(ctx context.Context) error {
		return uc.Execute(ctx, path)
	})
}

func (a *App) exclusive(ctx context.Context, fn func(context.Context) error) error {
	release, err := lock.Acquire(a.config.Backup.LockFile)
	if err != nil {
		return err
	}
	defer release()

	if a.config.Backup.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.config.Backup.Timeout)
		defer cancel()
	}

	return fn(ctx)
}

// Serve runs Backup on the configured schedule until ctx is cancelled.
// Failed runs are reported to every notifier.
func (a *App) Serve(ctx context.Context) error {
	sched := scheduler.New(ctx, a.notifyFailure)

	if err := sched.AddJob(a.config.Backup.Schedule, func(ctx context.Context) error {
		a.logger.Infof("=== Triggered scheduled backup ===")
		return a.Backup(ctx)
	}); err != nil {
		return fmt.Errorf("failed to schedule backup %q: %w", a.config.Backup.Schedule, err)
	}

	sched.Start()
	a.logger.Infof("Scheduler started: %s", a.config.Backup.Schedule)
	a.logger.Infof("Backup destinations: local + %d remote target(s)", len(a.uploadTargets))

	<-ctx.Done()
	sched.Stop()
	return nil
}

func (a *App) notifyFailure(err error) {
	a.logger.Errorf("Scheduled backup failed: %v", err)

	message := fmt.Sprintf("❌ %s: scheduled backup failed\n\n%v", a.config.App.Name, err)
	for _, n := range a.notifiers {
		if nErr := n.SendNotification(message); nErr != nil {
			a.logger.Errorf("Failed to send failure notification: %v", nErr)
		}
	}
}

func (a *App) Shutdown() {
	a.logger.Infof("Shutting down...")
	a.logger.Close()
}
