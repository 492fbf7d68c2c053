// Package smoke runs the post-provisioning connectivity check: an ad-hoc
// ping against every host in the inventory using the environment's ansible.
// Output is passed through untouched; the tool's exit status decides success.
package smoke

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/apenella/go-ansible/pkg/adhoc"
	"github.com/apenella/go-ansible/pkg/execute"
	clierrors "github.com/ariel-frischer/ansible-bootstrap/internal/errors"
	"github.com/ariel-frischer/ansible-bootstrap/internal/outcome"
	"github.com/ariel-frischer/ansible-bootstrap/internal/scaffold"
	"github.com/ariel-frischer/ansible-bootstrap/internal/venv"
	log "github.com/cantara/bragi/sbragi"
)

// Tester pings the inventory.
type Tester struct {
	VenvDir   string
	Inventory string
	Playbook  string
	Out       io.Writer
	ErrOut    io.Writer
}

// NewTester returns a Tester writing ansible's output to out and errOut.
func NewTester(venvDir, inventory, playbook string, out, errOut io.Writer) *Tester {
	return &Tester{
		VenvDir:   venvDir,
		Inventory: inventory,
		Playbook:  playbook,
		Out:       out,
		ErrOut:    errOut,
	}
}

// Command builds the ad-hoc ping invocation.
func (t *Tester) Command() *adhoc.AnsibleAdhocCmd {
	return &adhoc.AnsibleAdhocCmd{
		Binary:  venv.Binary(t.VenvDir, "ansible"),
		Pattern: "all",
		Options: &adhoc.AnsibleAdhocOptions{
			Inventory:  t.Inventory,
			ModuleName: "ping",
		},
		Exec: execute.NewDefaultExecute(
			execute.WithWrite(t.Out),
			execute.WithWriteError(t.ErrOut),
		),
	}
}

// NextSteps is the instruction for running the playbook by hand.
func (t *Tester) NextSteps() string {
	return fmt.Sprintf("source %s && ansible-playbook -i %s %s",
		venv.Binary(t.VenvDir, "activate"), t.Inventory, t.Playbook)
}

// Run executes the ping and returns an outcome carrying the next steps.
func (t *Tester) Run(ctx context.Context) (outcome.Outcome, error) {
	cmd := t.Command()
	if _, err := os.Stat(cmd.Binary); err != nil {
		return outcome.Outcome{}, clierrors.MissingTool(cmd.Binary)
	}

	if line, err := cmd.Command(); err == nil {
		log.Debug("smoke test", "cmd", fmt.Sprint(line))
	}
	if err := cmd.Run(ctx); err != nil {
		return outcome.Outcome{}, fmt.Errorf("ansible ping: %w", err)
	}

	result := outcome.Donef("ansible reached every inventory host")
	if hosts, err := scaffold.InventoryHosts(t.Inventory); err != nil {
		log.WithError(err).Warning("counting inventory hosts")
	} else if len(hosts) == 0 {
		result.Warn("inventory %s declares no hosts; nothing was pinged", t.Inventory)
	} else {
		result.Summary = fmt.Sprintf("ansible reached %d inventory host(s)", len(hosts))
	}

	result.AddNotice(outcome.Notice{
		Title: "Next steps",
		Lines: []string{t.NextSteps()},
	})
	return result, nil
}
