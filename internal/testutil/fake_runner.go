// Package testutil provides test utilities and helpers for ansible-bootstrap tests.
package testutil

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"testing"

	"github.com/ariel-frischer/ansible-bootstrap/internal/runner"
)

type rule struct {
	match  string
	output []byte
	err    error
	hook   func(cmd runner.Command) error
}

// FakeRunnerBuilder configures a FakeRunner with a fluent API.
// Rules match when the rendered command line contains the match string;
// the first matching rule wins.
type FakeRunnerBuilder struct {
	t     *testing.T
	rules []rule
	tools map[string]string
}

// NewFakeRunnerBuilder creates a builder for a FakeRunner.
func NewFakeRunnerBuilder(t *testing.T) *FakeRunnerBuilder {
	t.Helper()

	return &FakeRunnerBuilder{
		t:     t,
		tools: make(map[string]string),
	}
}

// WithOutput makes matching commands succeed and return output.
func (b *FakeRunnerBuilder) WithOutput(match, output string) *FakeRunnerBuilder {
	b.rules = append(b.rules, rule{match: match, output: []byte(output)})
	return b
}

// WithError makes matching commands fail with err.
func (b *FakeRunnerBuilder) WithError(match string, err error) *FakeRunnerBuilder {
	b.rules = append(b.rules, rule{match: match, err: err})
	return b
}

// WithExitCode makes matching commands fail with a runner.ExitError.
func (b *FakeRunnerBuilder) WithExitCode(match string, code int) *FakeRunnerBuilder {
	return b.WithError(match, &runner.ExitError{Command: match, Code: code})
}

// OnCommand runs hook when a matching command executes, for side effects such
// as writing the files a real tool would create.
func (b *FakeRunnerBuilder) OnCommand(match string, hook func(cmd runner.Command) error) *FakeRunnerBuilder {
	b.rules = append(b.rules, rule{match: match, hook: hook})
	return b
}

// WithTool makes LookPath resolve name to path.
func (b *FakeRunnerBuilder) WithTool(name, path string) *FakeRunnerBuilder {
	b.tools[name] = path
	return b
}

// Build returns the configured FakeRunner.
func (b *FakeRunnerBuilder) Build() *FakeRunner {
	return &FakeRunner{builder: b}
}

// FakeRunner records commands instead of executing them.
type FakeRunner struct {
	builder *FakeRunnerBuilder
	mu      sync.Mutex
	calls   []runner.Command
}

// Run records cmd and applies the first matching rule.
func (f *FakeRunner) Run(ctx context.Context, cmd runner.Command) error {
	_, err := f.respond(ctx, cmd)
	return err
}

// Output records cmd and returns the first matching rule's output.
func (f *FakeRunner) Output(ctx context.Context, cmd runner.Command) ([]byte, error) {
	return f.respond(ctx, cmd)
}

// LookPath resolves tools registered with WithTool.
func (f *FakeRunner) LookPath(name string) (string, error) {
	if path, ok := f.builder.tools[name]; ok {
		return path, nil
	}
	return "", &exec.Error{Name: name, Err: exec.ErrNotFound}
}

// Calls returns the rendered command lines in execution order.
func (f *FakeRunner) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	lines := make([]string, len(f.calls))
	for i, c := range f.calls {
		lines[i] = c.String()
	}
	return lines
}

// Commands returns the recorded commands in execution order.
func (f *FakeRunner) Commands() []runner.Command {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]runner.Command(nil), f.calls...)
}

// CallCount returns how many recorded commands contain match.
func (f *FakeRunner) CallCount(match string) int {
	count := 0
	for _, line := range f.Calls() {
		if strings.Contains(line, match) {
			count++
		}
	}
	return count
}

func (f *FakeRunner) respond(ctx context.Context, cmd runner.Command) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.calls = append(f.calls, cmd)
	f.mu.Unlock()

	line := cmd.String()
	for _, r := range f.builder.rules {
		if !strings.Contains(line, r.match) {
			continue
		}
		if r.hook != nil {
			if err := r.hook(cmd); err != nil {
				return nil, fmt.Errorf("fake hook for %q: %w", r.match, err)
			}
		}
		return r.output, r.err
	}
	return nil, nil
}
