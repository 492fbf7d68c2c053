package workflow

import (
	"errors"
	"io"

	"github.com/ariel-frischer/ansible-bootstrap/internal/config"
	"github.com/ariel-frischer/ansible-bootstrap/internal/platform"
	"github.com/ariel-frischer/ansible-bootstrap/internal/prereq"
	"github.com/ariel-frischer/ansible-bootstrap/internal/progress"
	"github.com/ariel-frischer/ansible-bootstrap/internal/runner"
	"github.com/ariel-frischer/ansible-bootstrap/internal/scaffold"
	"github.com/ariel-frischer/ansible-bootstrap/internal/smoke"
	"github.com/ariel-frischer/ansible-bootstrap/internal/sshkey"
	"github.com/ariel-frischer/ansible-bootstrap/internal/venv"
)

// SuccessMessage is printed when every step has completed.
const SuccessMessage = "Bootstrap complete. Re-run ansible-bootstrap at any time; finished steps are skipped."

// Options supplies the collaborators of a bootstrap run.
type Options struct {
	Runner  runner.Runner
	Display *progress.Display
	// Out and ErrOut receive ansible's own output during the smoke test
	Out    io.Writer
	ErrOut io.Writer
	// Gather reads OS identification facts; nil reads the host's
	Gather func() (platform.Facts, error)
	// Installer overrides the prerequisite installer; nil uses the real one
	Installer *prereq.Installer
}

// Bootstrap is the orchestrated bootstrap sequence.
type Bootstrap struct {
	*Orchestrator
	state *runState
}

// Platform returns the tag detected by the first step; Unsupported until
// detection has succeeded.
func (b *Bootstrap) Platform() platform.Tag {
	return b.state.platform
}

// NewBootstrap wires the bootstrap sequence: detect, prerequisites, SSH
// key, scaffold, Python environment and, unless disabled, the smoke test.
func NewBootstrap(cfg *config.Configuration, opts Options) *Bootstrap {
	gather := opts.Gather
	if gather == nil {
		gather = func() (platform.Facts, error) {
			return platform.Gather(platform.DefaultOSReleasePath)
		}
	}
	installer := opts.Installer
	if installer == nil {
		installer = prereq.NewInstaller(opts.Runner)
	}

	state := &runState{}
	steps := []Step{
		&detectStep{gather: gather, state: state},
		&prereqStep{installer: installer, state: state},
		&sshKeyStep{ensurer: sshkey.NewEnsurer(opts.Runner, cfg.SSHKeyPath, cfg.SSHKeyComment)},
		&scaffoldStep{scaffolder: scaffold.NewScaffolder(cfg)},
		&venvStep{provisioner: venv.NewProvisioner(opts.Runner, cfg.PythonCmd, cfg.VenvDir, cfg.AnsibleVersion)},
	}
	if !cfg.SkipSmokeTest {
		steps = append(steps, &smokeStep{
			tester: smoke.NewTester(cfg.VenvDir, cfg.InventoryPath, cfg.PlaybookPath, opts.Out, opts.ErrOut),
		})
	}

	return &Bootstrap{
		Orchestrator: &Orchestrator{
			Steps:          steps,
			Display:        opts.Display,
			SuccessMessage: SuccessMessage,
		},
		state: state,
	}
}

// IsUnsupportedPlatform reports whether err stopped the run before any
// change was made to the machine.
func IsUnsupportedPlatform(err error) bool {
	var unsupported *platform.UnsupportedError
	return errors.As(err, &unsupported)
}
