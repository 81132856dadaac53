package domain

import (
	"context"
	"io"
)

// Database dumps and replays plain SQL inside a running container.
type Database interface {
	Dump(ctx context.Context, c Container, w io.Writer) error
	Restore(ctx context.Context, c Container, r io.Reader) error
	GetName() string
}

// Verifier inspects the database from the host after a restore.
type Verifier interface {
	CountTables(ctx context.Context) (int, error)
}
