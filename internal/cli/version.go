package cli

import (
	"fmt"

	"github.com/ariel-frischer/ansible-bootstrap/internal/build"
	"github.com/ariel-frischer/ansible-bootstrap/internal/cli/shared"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "version",
		Aliases: []string{"v"},
		Short:   "Print version information",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			info := build.Current()
			if plain, _ := cmd.Flags().GetBool("plain"); plain {
				fmt.Fprintln(out, info.String())
				fmt.Fprintf(out, "go: %s %s\n", info.GoVersion, info.Platform)
				return nil
			}

			shared.PrintBanner(out, "ansible-bootstrap "+info.Version)
			label := color.New(color.Faint).SprintFunc()
			fmt.Fprintf(out, "  %s %s\n", label("Commit:"), info.Commit)
			fmt.Fprintf(out, "  %s %s\n", label("Built: "), info.BuildDate)
			fmt.Fprintf(out, "  %s %s %s\n", label("Go:    "), info.GoVersion, info.Platform)
			if build.IsDevBuild() {
				fmt.Fprintf(out, "  %s\n", color.YellowString("development build"))
			}
			return nil
		},
	}
	cmd.GroupID = shared.GroupConfiguration
	cmd.Flags().Bool("plain", false, "Plain output without box drawing")
	return cmd
}
