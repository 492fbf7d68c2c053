package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ariel-frischer/ansible-bootstrap/internal/config"
	clierrors "github.com/ariel-frischer/ansible-bootstrap/internal/errors"
	"github.com/ariel-frischer/ansible-bootstrap/internal/history"
	"github.com/ariel-frischer/ansible-bootstrap/internal/platform"
	"github.com/ariel-frischer/ansible-bootstrap/internal/progress"
	"github.com/ariel-frischer/ansible-bootstrap/internal/runner"
	log "github.com/cantara/bragi/sbragi"
	"github.com/spf13/cobra"
)

// Overridden in tests.
var (
	newRunner = func() runner.Runner { return runner.New() }
	// gatherFacts reads OS identification; nil reads the host's os-release
	gatherFacts func() (platform.Facts, error)
)

// loadConfig resolves the configuration from the global flags.
func loadConfig(cmd *cobra.Command) (*config.Configuration, error) {
	configPath, _ := cmd.Flags().GetString("config")
	envFile, _ := cmd.Flags().GetString("env-file")

	cfg, err := config.Load(config.LoadOptions{
		ConfigPath: configPath,
		EnvFile:    envFile,
	})
	if err != nil {
		return nil, clierrors.InvalidConfig(err)
	}
	log.Debug("configuration loaded", "project_dir", cfg.ProjectDir, "venv_dir", cfg.VenvDir)
	return cfg, nil
}

// newDisplay builds the step display for out, detecting terminal support
// when out is a real file.
func newDisplay(out io.Writer, showProgress bool) *progress.Display {
	var caps progress.TerminalCapabilities
	if f, ok := out.(*os.File); ok {
		caps = progress.DetectTerminalCapabilities(f)
	}
	return progress.NewDisplay(out, caps, showProgress)
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}

// runStatus maps the result of a run to a history status.
func runStatus(ctx context.Context, runErr error) string {
	switch {
	case runErr == nil:
		return history.StatusCompleted
	case ctx.Err() != nil, errors.Is(runErr, context.Canceled):
		return history.StatusCancelled
	default:
		return history.StatusFailed
	}
}

// recordRun appends the run to history. Failures are reported and otherwise ignored.
func recordRun(ctx context.Context, cmd *cobra.Command, w *history.Writer, run *history.Run, failedStep string, runErr error) {
	entry, err := w.Finish(run, runStatus(ctx, runErr), failedStep, runErr)
	if err != nil {
		log.WithError(err).Warning("could not record run history", "state_dir", w.StateDir)
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: run history not saved: %v\n", err)
		return
	}
	log.Debug("run recorded", "id", entry.ID, "status", entry.Status)
}
