package domain

import "errors"

var (
	ErrContainerNotFound   = errors.New("database container not found")
	ErrContainerNotRunning = errors.New("database container is not running")
	ErrEmptyBackup         = errors.New("backup file is empty")
	ErrBackupExists        = errors.New("backup file already exists")
	ErrInvalidBackupFile   = errors.New("invalid backup file")
	ErrLocked              = errors.New("another backup or restore is in progress")
)
