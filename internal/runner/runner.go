// Package runner executes external commands (package managers, ssh-keygen,
// python, pip) on behalf of the bootstrap steps. Commands block until the
// child process exits; a non-zero exit is returned as *ExitError.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	log "github.com/cantara/bragi/sbragi"
)

// Command describes one external process invocation.
type Command struct {
	Name string
	Args []string
	// Env holds extra KEY=VALUE pairs appended to the current environment
	Env []string
	Dir string
}

// String renders the command line for display and error messages.
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, c.Name)
	for _, arg := range c.Args {
		if arg == "" || strings.ContainsAny(arg, " \t\"'") {
			arg = fmt.Sprintf("%q", arg)
		}
		parts = append(parts, arg)
	}
	return strings.Join(parts, " ")
}

// Runner runs external commands.
type Runner interface {
	// Run executes cmd with output streamed to the operator's terminal.
	Run(ctx context.Context, cmd Command) error
	// Output executes cmd and returns its standard output.
	Output(ctx context.Context, cmd Command) ([]byte, error)
	// LookPath resolves a binary name on PATH.
	LookPath(name string) (string, error)
}

// ExitError reports a command that could not start or exited non-zero.
type ExitError struct {
	Command string
	Code    int
	// Stderr holds captured standard error for Output calls
	Stderr string
	Err    error
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("command %q exited with code %d", e.Command, e.Code)
	if e.Code < 0 {
		msg = fmt.Sprintf("command %q could not run: %v", e.Command, e.Err)
	}
	if e.Stderr != "" {
		msg += ": " + strings.TrimSpace(e.Stderr)
	}
	return msg
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// New returns an ExecRunner attached to the process's standard streams.
func New() *ExecRunner {
	return &ExecRunner{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// Run executes cmd, streaming its output.
func (r *ExecRunner) Run(ctx context.Context, cmd Command) error {
	c := r.build(ctx, cmd)
	c.Stdin = r.Stdin
	c.Stdout = r.Stdout
	c.Stderr = r.Stderr

	log.Debug("running command", "cmd", cmd.String())
	if err := c.Run(); err != nil {
		return newExitError(cmd, err, "")
	}
	return nil
}

// Output executes cmd and returns its standard output. Standard error is
// captured and attached to the returned error.
func (r *ExecRunner) Output(ctx context.Context, cmd Command) ([]byte, error) {
	c := r.build(ctx, cmd)
	var stderr bytes.Buffer
	c.Stderr = &stderr

	log.Debug("capturing command", "cmd", cmd.String())
	out, err := c.Output()
	if err != nil {
		return out, newExitError(cmd, err, stderr.String())
	}
	return out, nil
}

// LookPath resolves name on PATH.
func (r *ExecRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

func (r *ExecRunner) build(ctx context.Context, cmd Command) *exec.Cmd {
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}
	return c
}

func newExitError(cmd Command, err error, stderr string) *ExitError {
	code := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code = exitErr.ExitCode()
	}
	return &ExitError{
		Command: cmd.String(),
		Code:    code,
		Stderr:  stderr,
		Err:     err,
	}
}
