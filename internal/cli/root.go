// ansible-bootstrap - Idempotent Ansible workstation bootstrap
// Author: Ariel Frischer
// Source: https://github.com/ariel-frischer/ansible-bootstrap

// Package cli provides the Cobra-based command tree for ansible-bootstrap.
// The root command runs the bootstrap sequence; subcommands inspect the
// machine (doctor, history), run the scaffolded playbook (play) and show the
// effective configuration (config, version).
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/ariel-frischer/ansible-bootstrap/internal/cli/shared"
	clierrors "github.com/ariel-frischer/ansible-bootstrap/internal/errors"
	log "github.com/cantara/bragi/sbragi"
	"github.com/spf13/cobra"
)

// NewRootCmd builds the full command tree.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ansible-bootstrap",
		Short: "Idempotent Ansible workstation bootstrap",
		Long: `ansible-bootstrap prepares this machine to run Ansible against itself.

It detects the operating system, installs git, ssh and Python, makes sure an
SSH key exists, scaffolds an Ansible project, provisions a virtual environment
with Ansible and pings the inventory. Every step is safe to re-run.

Source: https://github.com/ariel-frischer/ansible-bootstrap`,
		Example: `  # Bootstrap with defaults (~/ansible)
  ansible-bootstrap

  # Check what is already in place
  ansible-bootstrap doctor

  # Run the scaffolded playbook
  ansible-bootstrap play`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if debug, _ := cmd.Flags().GetBool("debug"); debug {
				enableDebugLogging()
			}
		},
		RunE: runBootstrap,
	}

	rootCmd.AddGroup(&cobra.Group{ID: shared.GroupBootstrap, Title: "Bootstrap:"})
	rootCmd.AddGroup(&cobra.Group{ID: shared.GroupInspect, Title: "Inspect:"})
	rootCmd.AddGroup(&cobra.Group{ID: shared.GroupConfiguration, Title: "Configuration:"})

	rootCmd.SetHelpCommandGroupID(shared.GroupConfiguration)
	rootCmd.SetCompletionCommandGroupID(shared.GroupConfiguration)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to a project config file (JSON)")
	rootCmd.PersistentFlags().String("env-file", ".env", "Dotenv file with ANSIBLE_BOOTSTRAP_* overrides")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")

	rootCmd.AddCommand(
		newBootstrapCmd(),
		newPlayCmd(),
		newDoctorCmd(),
		newHistoryCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

// Execute runs the root command and reports any error on stderr.
func Execute() error {
	rootCmd := NewRootCmd()
	err := rootCmd.Execute()
	reportError(rootCmd.ErrOrStderr(), err)
	return err
}

// reportError prints err unless it only carries an exit code for a failure
// the command has already described.
func reportError(w io.Writer, err error) {
	if err == nil || shared.IsExitError(err) {
		return
	}
	clierrors.FprintError(w, clierrors.Categorize(err, clierrors.Argument))
}

func enableDebugLogging() {
	dl, err := log.NewDebugLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: debug logging unavailable: %v\n", err)
		return
	}
	dl.SetDefault()
	log.Debug("debug logging enabled")
}
