// ansible-bootstrap - Idempotent Ansible workstation bootstrap
// Author: Ariel Frischer
// Source: https://github.com/ariel-frischer/ansible-bootstrap

package main

import (
	"os"

	"github.com/ariel-frischer/ansible-bootstrap/internal/cli"
	"github.com/ariel-frischer/ansible-bootstrap/internal/cli/shared"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(shared.ExitCode(err))
	}
}
