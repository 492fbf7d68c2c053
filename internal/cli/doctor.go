package cli

import (
	"fmt"

	"github.com/ariel-frischer/ansible-bootstrap/internal/cli/shared"
	"github.com/ariel-frischer/ansible-bootstrap/internal/health"
	"github.com/spf13/cobra"
)

func newDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check what the bootstrap has already put in place",
		Long: `Run read-only checks for the platform, required tools, the SSH key,
the project inventory and playbook, and the Ansible installation.

Exits with status 1 when a required check fails. A missing SSH key is
reported but does not fail the run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			checker := health.NewChecker(newRunner(), cfg)
			if gatherFacts != nil {
				checker.Gather = gatherFacts
			}

			report := checker.RunHealthChecks(cmd.Context())
			fmt.Fprint(cmd.OutOrStdout(), health.FormatReport(report))
			if !report.Passed {
				return shared.NewExitError(shared.ExitFailure)
			}
			return nil
		},
	}
	cmd.GroupID = shared.GroupInspect
	return cmd
}
