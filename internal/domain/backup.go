package domain

import (
	"context"
	"time"
)

type Backup struct {
	RunID      string
	Filename   string
	FilePath   string
	RawSize    int64
	Size       int64
	Compressed bool
	CreatedAt  time.Time
	Database   string
}

type BackupExecutor interface {
	Execute(ctx context.Context) error
}
