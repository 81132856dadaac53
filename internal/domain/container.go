package domain

import (
	"context"
	"fmt"
)

// ResolveStatus tags the outcome of looking up a service container.
type ResolveStatus int

const (
	ContainerNotFound ResolveStatus = iota
	ContainerFound
	ContainerNotRunning
)

func (s ResolveStatus) String() string {
	switch s {
	case ContainerFound:
		return "found"
	case ContainerNotRunning:
		return "not running"
	default:
		return "not found"
	}
}

type Container struct {
	ID      string
	Service string
}

// ShortID returns the 12 character form docker prints by default.
func (c Container) ShortID() string {
	if len(c.ID) > 12 {
		return c.ID[:12]
	}
	return c.ID
}

// Resolution is the result of a container lookup. Container is only
// meaningful when Status is not ContainerNotFound.
type Resolution struct {
	Status    ResolveStatus
	Container Container
}

// Err maps a non-found resolution to its sentinel error.
func (r Resolution) Err() error {
	switch r.Status {
	case ContainerFound:
		return nil
	case ContainerNotRunning:
		return fmt.Errorf("%w: %s (%s), start it with 'docker compose up -d %s'",
			ErrContainerNotRunning, r.Container.Service, r.Container.ShortID(), r.Container.Service)
	default:
		return fmt.Errorf("%w: service %q is not defined or was never created", ErrContainerNotFound, r.Container.Service)
	}
}

type ContainerResolver interface {
	Resolve(ctx context.Context, service string) (Resolution, error)
}
