package app

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"
)

// ExitHandler prints cli.Exit diagnostics to the app's standard output
// writer and exits with their code. Other errors are left to the caller.
func ExitHandler(c *cli.Context, err error) {
	var coder cli.ExitCoder
	if !errors.As(err, &coder) {
		return
	}

	var w io.Writer = os.Stdout
	if c != nil && c.App != nil && c.App.Writer != nil {
		w = c.App.Writer
	}
	if msg := err.Error(); msg != "" {
		fmt.Fprintln(w, msg)
	}
	cli.OsExiter(coder.ExitCode())
}
