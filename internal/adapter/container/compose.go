package container

import (
	"context"
	"fmt"
	"strings"

	"github.com/hermeslink/hlink-backup/internal/domain"
	"github.com/hermeslink/hlink-backup/internal/infrastructure/shell"
)

// ComposeResolver finds a service container through the docker compose CLI
// and checks it against the set of running containers.
type ComposeResolver struct {
	runner      shell.Runner
	composeFile string
	project     string
}

func NewComposeResolver(runner shell.Runner, composeFile, project string) *ComposeResolver {
	return &ComposeResolver{
		runner:      runner,
		composeFile: composeFile,
		project:     project,
	}
}

func (r *ComposeResolver) Resolve(ctx context.Context, service string) (domain.Resolution, error) {
	res := domain.Resolution{
		Status:    domain.ContainerNotFound,
		Container: domain.Container{Service: service},
	}

	out, err := r.runner.Output(ctx, shell.Command{Name: "docker", Args: r.psArgs(service)})
	if err != nil && strings.Contains(err.Error(), "no such service") {
		return res, nil
	}
	if err != nil {
		return res, fmt.Errorf("query compose service %s: %w", service, err)
	}

	id := firstLine(out)
	if id == "" {
		return res, nil
	}
	res.Container.ID = id

	running, err := r.runner.Output(ctx, shell.Command{Name: "docker", Args: []string{"ps", "-q", "--no-trunc"}})
	if err != nil {
		return res, fmt.Errorf("list running containers: %w", err)
	}

	res.Status = domain.ContainerNotRunning
	for _, line := range strings.Split(string(running), "\n") {
		line = strings.TrimSpace(line)
		if line != "" && (strings.HasPrefix(line, id) || strings.HasPrefix(id, line)) {
			res.Status = domain.ContainerFound
			break
		}
	}

	return res, nil
}

// psArgs lists stopped containers too, so a created-but-stopped service is
// reported as not running rather than missing.
func (r *ComposeResolver) psArgs(service string) []string {
	args := []string{"compose"}
	if r.composeFile != "" {
		args = append(args, "-f", r.composeFile)
	}
	if r.project != "" {
		args = append(args, "-p", r.project)
	}
	return append(args, "ps", "-a", "-q", service)
}

func firstLine(out []byte) string {
	for _, line := range strings.Split(string(out), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}
