// Package play runs the project playbook with the environment's
// ansible-playbook and turns the JSON callback output into a per-host
// summary.
package play

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/apenella/go-ansible/pkg/execute"
	"github.com/apenella/go-ansible/pkg/playbook"
	"github.com/ariel-frischer/ansible-bootstrap/internal/config"
	clierrors "github.com/ariel-frischer/ansible-bootstrap/internal/errors"
	"github.com/ariel-frischer/ansible-bootstrap/internal/venv"
	log "github.com/cantara/bragi/sbragi"
)

// Options narrows a playbook run.
type Options struct {
	// Limit restricts the run to matching hosts
	Limit string
	// Tags selects tagged tasks only
	Tags string
	// Check runs in check mode without changing anything
	Check bool
	// ExtraVars are passed as -e key=value
	ExtraVars map[string]string
}

// Player runs the scaffolded playbook.
type Player struct {
	VenvDir   string
	Inventory string
	Playbook  string
	Options   Options
	// ErrOut receives ansible-playbook's stderr
	ErrOut io.Writer
}

// NewPlayer returns a Player for the configured project.
func NewPlayer(cfg *config.Configuration, opts Options, errOut io.Writer) *Player {
	return &Player{
		VenvDir:   cfg.VenvDir,
		Inventory: cfg.InventoryPath,
		Playbook:  cfg.PlaybookPath,
		Options:   opts,
		ErrOut:    errOut,
	}
}

// Command builds the ansible-playbook invocation writing JSON results to stdout.
func (p *Player) Command(stdout io.Writer) *playbook.AnsiblePlaybookCmd {
	var extra map[string]interface{}
	if len(p.Options.ExtraVars) > 0 {
		extra = make(map[string]interface{}, len(p.Options.ExtraVars))
		for k, v := range p.Options.ExtraVars {
			extra[k] = v
		}
	}

	return &playbook.AnsiblePlaybookCmd{
		Binary:         venv.Binary(p.VenvDir, "ansible-playbook"),
		Playbooks:      []string{p.Playbook},
		StdoutCallback: "json",
		Options: &playbook.AnsiblePlaybookOptions{
			Inventory: p.Inventory,
			Limit:     p.Options.Limit,
			Tags:      p.Options.Tags,
			Check:     p.Options.Check,
			ExtraVars: extra,
		},
		Exec: execute.NewDefaultExecute(
			execute.WithWrite(stdout),
			execute.WithWriteError(p.ErrOut),
		),
	}
}

// Run executes the playbook. A failing playbook still returns the summary
// parsed from its output alongside the error.
func (p *Player) Run(ctx context.Context) (*Summary, error) {
	buf := new(bytes.Buffer)
	cmd := p.Command(buf)
	if _, err := os.Stat(cmd.Binary); err != nil {
		return nil, clierrors.MissingTool(cmd.Binary)
	}

	if line, err := cmd.Command(); err == nil {
		log.Debug("running playbook", "command", line)
	}

	runErr := cmd.Run(ctx)
	if runErr != nil {
		log.WithError(runErr).Debug("playbook returned an error", "playbook", p.Playbook)
		runErr = clierrors.CommandFailed("ansible-playbook", runErr)
	}

	if buf.Len() == 0 {
		if runErr != nil {
			return nil, runErr
		}
		return nil, clierrors.NewRuntimeError("ansible-playbook produced no output")
	}

	summary, err := ParseSummary(buf)
	if err != nil {
		if runErr != nil {
			return nil, runErr
		}
		return nil, clierrors.WrapWithMessage(err, clierrors.Runtime,
			fmt.Sprintf("reading playbook results: %v", err))
	}
	return summary, runErr
}
