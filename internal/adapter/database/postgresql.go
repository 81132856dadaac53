package database

import (
	"context"
	"fmt"
	"io"

	"github.com/hermeslink/hlink-backup/internal/config"
	"github.com/hermeslink/hlink-backup/internal/domain"
	"github.com/hermeslink/hlink-backup/internal/infrastructure/shell"
)

// PostgreSQLDatabase runs pg_dump and psql inside the database container, so
// the host needs nothing but the docker CLI.
type PostgreSQLDatabase struct {
	runner      shell.Runner
	user        string
	name        string
	password    string
	stopOnError bool
}

func NewPostgreSQL(runner shell.Runner, cfg *config.DatabaseConfig, stopOnError bool) *PostgreSQLDatabase {
	return &PostgreSQLDatabase{
		runner:      runner,
		user:        cfg.User,
		name:        cfg.Name,
		password:    cfg.Password,
		stopOnError: stopOnError,
	}
}

func (p *PostgreSQLDatabase) Dump(ctx context.Context, c domain.Container, w io.Writer) error {
	args := append(p.execArgs(c, false), "pg_dump", "--username="+p.user, p.name)

	if err := p.runner.Run(ctx, shell.Command{Name: "docker", Args: args, Stdout: w, Env: p.env()}); err != nil {
		return fmt.Errorf("pg_dump in %s: %w", c.ShortID(), err)
	}
	return nil
}

func (p *PostgreSQLDatabase) Restore(ctx context.Context, c domain.Container, r io.Reader) error {
	args := append(p.execArgs(c, true), "psql", "--username="+p.user, "--dbname="+p.name, "--quiet")
	if p.stopOnError {
		args = append(args, "--set=ON_ERROR_STOP=1")
	}

	if err := p.runner.Run(ctx, shell.Command{Name: "docker", Args: args, Stdin: r, Stdout: io.Discard, Env: p.env()}); err != nil {
		return fmt.Errorf("psql in %s: %w", c.ShortID(), err)
	}
	return nil
}

func (p *PostgreSQLDatabase) GetName() string {
	return p.name
}

func (p *PostgreSQLDatabase) execArgs(c domain.Container, interactive bool) []string {
	args := []string{"exec"}
	if interactive {
		args = append(args, "-i")
	}
	if p.password != "" {
		// Forwarded by name; the value comes from the docker CLI's environment.
		args = append(args, "-e", "PGPASSWORD")
	}
	return append(args, c.ID)
}

func (p *PostgreSQLDatabase) env() []string {
	if p.password == "" {
		return nil
	}
	return []string{"PGPASSWORD=" + p.password}
}
