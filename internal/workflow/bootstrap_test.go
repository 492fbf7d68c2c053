package workflow

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/ariel-frischer/ansible-bootstrap/internal/config"
	clierrors "github.com/ariel-frischer/ansible-bootstrap/internal/errors"
	"github.com/ariel-frischer/ansible-bootstrap/internal/outcome"
	"github.com/ariel-frischer/ansible-bootstrap/internal/platform"
	"github.com/ariel-frischer/ansible-bootstrap/internal/prereq"
	"github.com/ariel-frischer/ansible-bootstrap/internal/progress"
	"github.com/ariel-frischer/ansible-bootstrap/internal/runner"
	"github.com/ariel-frischer/ansible-bootstrap/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

var ubuntu = platform.Facts{Kernel: "linux", ID: "ubuntu", IDLike: []string{"debian"}, PrettyName: "Ubuntu 24.04 LTS"}

// fixture is a sandboxed machine: a temp root holding the home directory
// and the project, and a fake runner standing in for apt, ssh-keygen and pip.
type fixture struct {
	root      string
	cfg       *config.Configuration
	runner    *testutil.FakeRunner
	out       bytes.Buffer
	bootstrap *Bootstrap
}

func newFixture(t *testing.T, configure ...func(*testutil.FakeRunnerBuilder)) *fixture {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("the smoke test fixture is a POSIX shell script")
	}

	root := t.TempDir()
	project := filepath.Join(root, "ansible")
	f := &fixture{
		root: root,
		cfg: &config.Configuration{
			ProjectDir:    project,
			InventoryPath: filepath.Join(project, "inventory", "hosts.ini"),
			PlaybookPath:  filepath.Join(project, "site.yml"),
			VenvDir:       filepath.Join(project, ".venv"),
			SSHKeyPath:    filepath.Join(root, "home", ".ssh", "id_ed25519"),
			PythonCmd:     "python3",
		},
	}

	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	sshPub, err := ssh.NewPublicKey(pub)
	require.NoError(t, err)
	authorized := ssh.MarshalAuthorizedKey(sshPub)

	builder := testutil.NewFakeRunnerBuilder(t)
	for _, c := range configure {
		c(builder)
	}
	f.runner = builder.
		OnCommand("ssh-keygen", func(cmd runner.Command) error {
			if err := os.WriteFile(f.cfg.SSHKeyPath, []byte("PRIVATE\n"), 0o600); err != nil {
				return err
			}
			return os.WriteFile(f.cfg.SSHKeyPath+".pub", authorized, 0o644)
		}).
		OnCommand("-m venv", func(cmd runner.Command) error {
			bin := filepath.Join(cmd.Args[len(cmd.Args)-1], "bin", "ansible")
			if err := os.MkdirAll(filepath.Dir(bin), 0o755); err != nil {
				return err
			}
			return os.WriteFile(bin, []byte("#!/bin/sh\necho 'localhost | SUCCESS => {\"ping\": \"pong\"}'\n"), 0o755)
		}).
		WithOutput("pip show ansible", "Name: ansible\nVersion: 9.2.0\n").
		Build()
	return f
}

func (f *fixture) run(t *testing.T, facts platform.Facts) (*Report, error) {
	t.Helper()

	f.bootstrap = NewBootstrap(f.cfg, Options{
		Runner:  f.runner,
		Display: progress.NewDisplay(&f.out, progress.TerminalCapabilities{}, false),
		Out:     &f.out,
		ErrOut:  &f.out,
		Gather:  func() (platform.Facts, error) { return facts, nil },
		Installer: &prereq.Installer{
			Runner:     f.runner,
			Geteuid:    func() int { return 1000 },
			FileExists: func(string) bool { return false },
		},
	})
	return f.bootstrap.Run(context.Background())
}

func TestBootstrapDebianEndToEnd(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	report, err := f.run(t, ubuntu)
	require.NoError(t, err, f.out.String())
	assert.Equal(t, platform.Debian, f.bootstrap.Platform())

	assert.Equal(t, []string{
		"apt-get update",
		"apt-get install -y --no-install-recommends git openssh-client python3 python3-venv python3-pip",
		`ssh-keygen -q -t ed25519 -N "" -f ` + f.cfg.SSHKeyPath,
		"python3 -m venv " + f.cfg.VenvDir,
		f.cfg.VenvDir + "/bin/python -m pip install --upgrade pip",
		f.cfg.VenvDir + "/bin/python -m pip install ansible",
		f.cfg.VenvDir + "/bin/python -m pip show ansible",
		f.cfg.VenvDir + "/bin/ansible --version",
	}, f.runner.Calls())

	assert.Equal(t, "[local]\nlocalhost ansible_connection=local\n", testutil.ReadFile(t, f.cfg.InventoryPath))
	assert.FileExists(t, f.cfg.PlaybookPath)
	for _, dir := range []string{"group_vars", "host_vars", "roles"} {
		assert.DirExists(t, filepath.Join(f.cfg.ProjectDir, dir))
	}

	require.Len(t, report.Steps, 6)
	assert.Len(t, report.Notices(), 2, "new key and next steps")

	out := f.out.String()
	assert.Contains(t, out, "localhost | SUCCESS")
	assert.Contains(t, out, "New SSH public key:")
	assert.Contains(t, out, "ansible-playbook -i "+f.cfg.InventoryPath+" "+f.cfg.PlaybookPath)
	assert.Contains(t, out, SuccessMessage)
}

func TestBootstrapIsIdempotent(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, err := f.run(t, ubuntu)
	require.NoError(t, err)
	first := testutil.Snapshot(t, f.root)

	report, err := f.run(t, ubuntu)
	require.NoError(t, err)

	assert.Equal(t, first, testutil.Snapshot(t, f.root))
	assert.Equal(t, 1, f.runner.CallCount("ssh-keygen"), "key generated once")

	statuses := make(map[string]outcome.Status)
	for _, s := range report.Steps {
		statuses[s.Name] = s.Outcome.Status
	}
	assert.Equal(t, outcome.Skipped, statuses["Ensuring SSH key"])
	assert.Equal(t, outcome.Skipped, statuses["Scaffolding project"])
}

func TestBootstrapKeepsExistingKeyAndCustomFiles(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	testutil.WriteFile(t, f.cfg.SSHKeyPath, "MY REGISTERED KEY\n")
	testutil.WriteFile(t, f.cfg.SSHKeyPath+".pub", "ssh-ed25519 AAAA me@host\n")
	testutil.WriteFile(t, f.cfg.InventoryPath, "[web]\nweb1 ansible_host=10.0.0.5\n")
	testutil.WriteFile(t, f.cfg.PlaybookPath, "- hosts: web\n  roles: [nginx]\n")

	report, err := f.run(t, ubuntu)
	require.NoError(t, err, f.out.String())

	assert.Zero(t, f.runner.CallCount("ssh-keygen"))
	assert.Equal(t, "MY REGISTERED KEY\n", testutil.ReadFile(t, f.cfg.SSHKeyPath))
	assert.Equal(t, "[web]\nweb1 ansible_host=10.0.0.5\n", testutil.ReadFile(t, f.cfg.InventoryPath))
	assert.Equal(t, "- hosts: web\n  roles: [nginx]\n", testutil.ReadFile(t, f.cfg.PlaybookPath))
	assert.Len(t, report.Notices(), 1, "only next steps; no key notice")
}

func TestBootstrapUnsupportedPlatformAbortsBeforeMutation(t *testing.T) {
	t.Parallel()

	tests := map[string]platform.Facts{
		"unsupported distribution": {Kernel: "linux", ID: "arch", PrettyName: "Arch Linux"},
		"unsupported kernel":       {Kernel: "freebsd"},
	}

	for name, facts := range tests {
		facts := facts
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t)
			report, err := f.run(t, facts)
			require.Error(t, err)

			assert.True(t, IsUnsupportedPlatform(err))
			cliErr := clierrors.AsCLIError(err)
			require.NotNil(t, cliErr)
			assert.Equal(t, clierrors.Prerequisite, cliErr.Category)
			assert.Contains(t, cliErr.Message, facts.Name())

			assert.Equal(t, "Detecting platform", report.FailedStep)
			assert.Empty(t, f.runner.Calls())
			assert.NoDirExists(t, f.cfg.ProjectDir)
			assert.NoFileExists(t, f.cfg.SSHKeyPath)
		})
	}
}

func TestBootstrapStopsOnInstallFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t, func(b *testutil.FakeRunnerBuilder) {
		b.WithExitCode("apt-get install", 100)
	})
	report, err := f.run(t, ubuntu)
	require.Error(t, err)

	assert.Equal(t, "Installing prerequisites", report.FailedStep)
	assert.Zero(t, f.runner.CallCount("ssh-keygen"))
	assert.NoDirExists(t, f.cfg.ProjectDir)

	var exitErr *runner.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 100, exitErr.Code)
}

func TestBootstrapMacOS(t *testing.T) {
	t.Parallel()

	f := newFixture(t, func(b *testutil.FakeRunnerBuilder) {
		b.WithTool("brew", "/opt/homebrew/bin/brew")
	})
	_, err := f.run(t, platform.Facts{Kernel: "darwin"})
	require.NoError(t, err, f.out.String())

	calls := f.runner.Calls()
	require.GreaterOrEqual(t, len(calls), 3)
	assert.Equal(t, []string{
		"xcode-select -p",
		"/opt/homebrew/bin/brew update",
		"/opt/homebrew/bin/brew install git openssh python",
	}, calls[:3])
}

func TestBootstrapSkipSmokeTest(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.cfg.SkipSmokeTest = true
	report, err := f.run(t, ubuntu)
	require.NoError(t, err)

	assert.Len(t, report.Steps, 5)
	assert.NotContains(t, f.out.String(), "localhost | SUCCESS")
}
