package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Probe connects from the host to check what a restore left behind.
type Probe struct {
	dsn string
}

func NewProbe(dsn string) *Probe {
	return &Probe{dsn: dsn}
}

func (p *Probe) CountTables(ctx context.Context) (int, error) {
	conn, err := pgx.Connect(ctx, p.dsn)
	if err != nil {
		return 0, fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(ctx)

	var n int
	err = conn.QueryRow(ctx,
		"SELECT count(*) FROM information_schema.tables WHERE table_schema = 'public' AND table_type = 'BASE TABLE'",
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count tables: %w", err)
	}

	return n, nil
}
