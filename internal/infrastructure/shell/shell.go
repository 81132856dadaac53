// Package shell runs external commands such as docker.
package shell

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// Command describes one external process invocation. Stdout and Stdin are
// optional; when Stdout is nil the output is returned by Output.
type Command struct {
	Name  string
	Args  []string
	Stdin io.Reader
	// Stdout receives the process output as it is produced.
	Stdout io.Writer
	// Env holds KEY=VALUE pairs added to the inherited environment. They are
	// not part of String, so secrets stay out of logs and the process table.
	Env []string
}

func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

type Runner interface {
	// Run executes the command, streaming through Stdin/Stdout.
	Run(ctx context.Context, cmd Command) error
	// Output executes the command and returns its stdout.
	Output(ctx context.Context, cmd Command) ([]byte, error)
}

type ExecRunner struct{}

func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

func (r *ExecRunner) Run(ctx context.Context, c Command) error {
	var stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Stdin = c.Stdin
	cmd.Stdout = c.Stdout
	cmd.Stderr = &stderr
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s failed: %w, output: %s", c.Name, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

func (r *ExecRunner) Output(ctx context.Context, c Command) ([]byte, error) {
	var stdout bytes.Buffer
	c.Stdout = &stdout

	if err := r.Run(ctx, c); err != nil {
		return nil, err
	}
	return stdout.Bytes(), nil
}

// CheckTools verifies that the given binaries are on PATH.
func CheckTools(tools ...string) error {
	var missing []string
	for _, tool := range tools {
		if _, err := exec.LookPath(tool); err != nil {
			missing = append(missing, tool)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("required tools missing: %s", strings.Join(missing, ", "))
	}
	return nil
}
