package workflow

import (
	"context"
	"fmt"
	"strings"

	clierrors "github.com/ariel-frischer/ansible-bootstrap/internal/errors"
	"github.com/ariel-frischer/ansible-bootstrap/internal/outcome"
	"github.com/ariel-frischer/ansible-bootstrap/internal/platform"
	"github.com/ariel-frischer/ansible-bootstrap/internal/prereq"
	"github.com/ariel-frischer/ansible-bootstrap/internal/scaffold"
	"github.com/ariel-frischer/ansible-bootstrap/internal/smoke"
	"github.com/ariel-frischer/ansible-bootstrap/internal/sshkey"
	"github.com/ariel-frischer/ansible-bootstrap/internal/venv"
)

// runState carries values produced by one step and consumed by a later one.
type runState struct {
	platform platform.Tag
}

type detectStep struct {
	gather func() (platform.Facts, error)
	state  *runState
}

func (s *detectStep) Name() string { return "Detecting platform" }

func (s *detectStep) Run(_ context.Context) (outcome.Outcome, error) {
	facts, err := s.gather()
	if err != nil {
		return outcome.Outcome{}, clierrors.WrapWithMessage(err, clierrors.Prerequisite, "reading OS identification")
	}

	tag, err := platform.Detect(facts)
	if err != nil {
		return outcome.Outcome{}, clierrors.UnsupportedPlatform(facts.Name(), err)
	}
	s.state.platform = tag
	return outcome.Donef("%s (%s)", facts.Name(), tag), nil
}

type prereqStep struct {
	installer *prereq.Installer
	state     *runState
}

func (s *prereqStep) Name() string    { return "Installing prerequisites" }
func (s *prereqStep) Streaming() bool { return true }

func (s *prereqStep) Run(ctx context.Context) (outcome.Outcome, error) {
	return s.installer.Install(ctx, s.state.platform)
}

type sshKeyStep struct {
	ensurer *sshkey.Ensurer
}

func (s *sshKeyStep) Name() string { return "Ensuring SSH key" }

func (s *sshKeyStep) Run(ctx context.Context) (outcome.Outcome, error) {
	return s.ensurer.Ensure(ctx)
}

type scaffoldStep struct {
	scaffolder *scaffold.Scaffolder
}

func (s *scaffoldStep) Name() string { return "Scaffolding project" }

func (s *scaffoldStep) Run(_ context.Context) (outcome.Outcome, error) {
	results, err := s.scaffolder.Scaffold()
	if err != nil {
		return outcome.Outcome{}, err
	}

	var created, kept []string
	for _, r := range results {
		if r.Action == scaffold.Created {
			created = append(created, r.Path)
		} else {
			kept = append(kept, r.Path)
		}
	}

	root := s.scaffolder.Layout.Root
	if len(created) == 0 {
		return outcome.Skippedf("%s already scaffolded", root), nil
	}
	result := outcome.Donef("%s: created %s", root, strings.Join(created, ", "))
	if len(kept) > 0 {
		result.Summary += fmt.Sprintf("; kept %s", strings.Join(kept, ", "))
	}
	return result, nil
}

type venvStep struct {
	provisioner *venv.Provisioner
}

func (s *venvStep) Name() string    { return "Provisioning Python environment" }
func (s *venvStep) Streaming() bool { return true }

func (s *venvStep) Run(ctx context.Context) (outcome.Outcome, error) {
	inst, err := s.provisioner.Provision(ctx)
	if err != nil {
		return outcome.Outcome{}, err
	}
	return outcome.Donef("ansible %s in %s", inst.Version, inst.Dir), nil
}

type smokeStep struct {
	tester *smoke.Tester
}

func (s *smokeStep) Name() string    { return "Running smoke test" }
func (s *smokeStep) Streaming() bool { return true }

func (s *smokeStep) Run(ctx context.Context) (outcome.Outcome, error) {
	return s.tester.Run(ctx)
}
