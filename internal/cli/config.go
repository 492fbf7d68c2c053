package cli

import (
	"fmt"

	"github.com/ariel-frischer/ansible-bootstrap/internal/cli/shared"
	"github.com/ariel-frischer/ansible-bootstrap/internal/config"
	clierrors "github.com/ariel-frischer/ansible-bootstrap/internal/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the effective configuration",
		Long: `Inspect configuration. Values are layered in this order, later wins:
defaults, user config, --config file, --env-file, ANSIBLE_BOOTSTRAP_* environment.`,
	}
	cmd.GroupID = shared.GroupConfiguration

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return clierrors.Wrap(err, clierrors.Runtime)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	pathCmd := &cobra.Command{
		Use:   "path",
		Short: "Print the user config file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.UserConfigPath()
			if err != nil {
				return clierrors.NewConfigError(
					fmt.Sprintf("cannot locate the user config file: %v", err),
					"Set XDG_CONFIG_HOME or HOME",
				)
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	cmd.AddCommand(showCmd, pathCmd)
	return cmd
}
