// Package shelltest provides a scripted shell.Runner for tests.
package shelltest

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/hermeslink/hlink-backup/internal/infrastructure/shell"
)

// Response is what the fake returns for a command whose string form starts
// with the registered prefix.
type Response struct {
	Stdout []byte
	Err    error
}

type Runner struct {
	mu        sync.Mutex
	responses []entry
	calls     []shell.Command
	stdin     map[int][]byte
}

type entry struct {
	prefix string
	resp   Response
}

func New() *Runner {
	return &Runner{stdin: make(map[int][]byte)}
}

// On registers a response. Later registrations win over earlier ones with
// the same prefix.
func (r *Runner) On(prefix string, resp Response) *Runner {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.responses = append([]entry{{prefix: prefix, resp: resp}}, r.responses...)
	return r
}

func (r *Runner) Run(ctx context.Context, c shell.Command) error {
	r.mu.Lock()
	idx := len(r.calls)
	r.calls = append(r.calls, c)
	resp, ok := r.match(c.String())
	r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	if c.Stdin != nil {
		data, err := io.ReadAll(c.Stdin)
		r.mu.Lock()
		r.stdin[idx] = data
		r.mu.Unlock()
		if err != nil {
			return fmt.Errorf("%s failed: %w", c.Name, err)
		}
	}

	if !ok {
		return fmt.Errorf("%s failed: unexpected command %q", c.Name, c.String())
	}
	if c.Stdout != nil && len(resp.Stdout) > 0 {
		if _, err := c.Stdout.Write(resp.Stdout); err != nil {
			return err
		}
	}
	return resp.Err
}

func (r *Runner) Output(ctx context.Context, c shell.Command) ([]byte, error) {
	var sb strings.Builder
	c.Stdout = &sb
	if err := r.Run(ctx, c); err != nil {
		return nil, err
	}
	return []byte(sb.String()), nil
}

func (r *Runner) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.calls))
	for i, c := range r.calls {
		out[i] = c.String()
	}
	return out
}

// Env returns the extra environment of the i-th call.
func (r *Runner) Env(i int) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i >= len(r.calls) {
		return nil
	}
	return r.calls[i].Env
}

// Stdin returns what the i-th call read from its stdin.
func (r *Runner) Stdin(i int) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stdin[i]
}

func (r *Runner) match(cmd string) (Response, bool) {
	for _, e := range r.responses {
		if strings.HasPrefix(cmd, e.prefix) {
			return e.resp, true
		}
	}
	return Response{}, false
}
