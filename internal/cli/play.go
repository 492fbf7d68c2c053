package cli

import (
	"fmt"
	"strings"

	"github.com/ariel-frischer/ansible-bootstrap/internal/cli/shared"
	clierrors "github.com/ariel-frischer/ansible-bootstrap/internal/errors"
	"github.com/ariel-frischer/ansible-bootstrap/internal/history"
	"github.com/ariel-frischer/ansible-bootstrap/internal/play"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newPlayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Run the scaffolded playbook with the provisioned Ansible",
		Long: `Run the project playbook against the project inventory using the
ansible-playbook installed in the virtual environment, then print a per-host
summary of every task.`,
		Example: `  ansible-bootstrap play
  ansible-bootstrap play --check
  ansible-bootstrap play --limit localhost --tags packages -e user=dev`,
		Args: cobra.NoArgs,
		RunE: runPlay,
	}
	cmd.GroupID = shared.GroupBootstrap
	cmd.Flags().String("limit", "", "Limit the run to matching hosts")
	cmd.Flags().String("tags", "", "Only run tasks with these tags")
	cmd.Flags().Bool("check", false, "Dry run: report what would change")
	cmd.Flags().StringArrayP("extra-var", "e", nil, "Extra variable as key=value (repeatable)")
	return cmd
}

func runPlay(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	var opts play.Options
	opts.Limit, _ = cmd.Flags().GetString("limit")
	opts.Tags, _ = cmd.Flags().GetString("tags")
	opts.Check, _ = cmd.Flags().GetBool("check")
	rawVars, _ := cmd.Flags().GetStringArray("extra-var")
	if opts.ExtraVars, err = parseExtraVars(rawVars); err != nil {
		return err
	}

	ctx, stop := signalContext(cmd)
	defer stop()

	out := cmd.OutOrStdout()
	writer := history.NewWriter(cfg.StateDir, cfg.MaxHistory)
	run := writer.Start("play")

	summary, runErr := play.NewPlayer(cfg, opts, cmd.ErrOrStderr()).Run(ctx)
	if summary != nil {
		summary.Fprint(out)
	}
	if runErr == nil && summary != nil && summary.Failed() {
		runErr = clierrors.NewRuntimeError("playbook reported failed or unreachable hosts",
			"Review the task results above")
	}
	failedStep := ""
	if runErr != nil {
		failedStep = "ansible-playbook"
	}
	recordRun(ctx, cmd, writer, run, failedStep, runErr)
	if runErr != nil {
		return runErr
	}

	fmt.Fprintln(out, color.New(color.FgGreen, color.Bold).Sprint("Playbook finished."))
	return nil
}

// parseExtraVars splits each key=value on the first '=' so values may
// contain commas and further '=' signs.
func parseExtraVars(raw []string) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	vars := make(map[string]string, len(raw))
	for _, item := range raw {
		key, value, ok := strings.Cut(item, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, clierrors.NewArgumentErrorWithUsage(
				fmt.Sprintf("invalid extra variable %q", item),
				"ansible-bootstrap play -e key=value",
			)
		}
		vars[strings.TrimSpace(key)] = value
	}
	return vars, nil
}
