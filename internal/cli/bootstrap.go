package cli

import (
	"github.com/ariel-frischer/ansible-bootstrap/internal/cli/shared"
	"github.com/ariel-frischer/ansible-bootstrap/internal/history"
	"github.com/ariel-frischer/ansible-bootstrap/internal/platform"
	"github.com/ariel-frischer/ansible-bootstrap/internal/workflow"
	"github.com/spf13/cobra"
)

func newBootstrapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Run the full bootstrap sequence (default command)",
		Long: `Run every bootstrap step in order, stopping at the first failure:

  1. Detect the platform (macOS, Debian family)
  2. Install git, ssh and Python
  3. Ensure an SSH key exists
  4. Scaffold the Ansible project
  5. Provision a virtual environment with Ansible
  6. Ping the inventory

Steps that are already satisfied are skipped.`,
		Args: cobra.NoArgs,
		RunE: runBootstrap,
	}
	cmd.GroupID = shared.GroupBootstrap
	return cmd
}

func runBootstrap(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signalContext(cmd)
	defer stop()

	out := cmd.OutOrStdout()
	if cfg.ShowProgress {
		shared.PrintBanner(out, cmd.Root().Name())
	}

	bootstrap := workflow.NewBootstrap(cfg, workflow.Options{
		Runner:  newRunner(),
		Display: newDisplay(out, cfg.ShowProgress),
		Out:     out,
		ErrOut:  cmd.ErrOrStderr(),
		Gather:  gatherFacts,
	})

	writer := history.NewWriter(cfg.StateDir, cfg.MaxHistory)
	run := writer.Start("bootstrap")

	report, runErr := bootstrap.Run(ctx)
	if workflow.IsUnsupportedPlatform(runErr) {
		return runErr
	}

	if tag := bootstrap.Platform(); tag != platform.Unsupported {
		run.Platform = tag.String()
	}
	failedStep := ""
	if report != nil {
		failedStep = report.FailedStep
	}
	recordRun(ctx, cmd, writer, run, failedStep, runErr)
	return runErr
}
