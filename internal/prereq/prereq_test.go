package prereq

import (
	"context"
	"testing"

	"github.com/ariel-frischer/ansible-bootstrap/internal/outcome"
	"github.com/ariel-frischer/ansible-bootstrap/internal/platform"
	"github.com/ariel-frischer/ansible-bootstrap/internal/runner"
	"github.com/ariel-frischer/ansible-bootstrap/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInstaller(fr *testutil.FakeRunner, euid int, existing ...string) *Installer {
	files := make(map[string]bool)
	for _, path := range existing {
		files[path] = true
	}
	return &Installer{
		Runner:     fr,
		Geteuid:    func() int { return euid },
		FileExists: func(path string) bool { return files[path] },
	}
}

func TestInstallDebian(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		euid      int
		sudo      bool
		wantCalls []string
	}{
		"non-root with sudo escalates once": {
			euid: 1000,
			sudo: true,
			wantCalls: []string{
				"sudo -v",
				"sudo DEBIAN_FRONTEND=noninteractive apt-get update",
				"sudo DEBIAN_FRONTEND=noninteractive apt-get install -y --no-install-recommends git openssh-client python3 python3-venv python3-pip",
			},
		},
		"root skips sudo": {
			euid: 0,
			sudo: true,
			wantCalls: []string{
				"apt-get update",
				"apt-get install -y --no-install-recommends git openssh-client python3 python3-venv python3-pip",
			},
		},
		"missing sudo is skipped silently": {
			euid: 1000,
			sudo: false,
			wantCalls: []string{
				"apt-get update",
				"apt-get install -y --no-install-recommends git openssh-client python3 python3-venv python3-pip",
			},
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			b := testutil.NewFakeRunnerBuilder(t)
			if tt.sudo {
				b.WithTool("sudo", "/usr/bin/sudo")
			}
			fr := b.Build()

			result, err := newInstaller(fr, tt.euid).Install(context.Background(), platform.Debian)
			require.NoError(t, err)
			assert.Equal(t, outcome.Done, result.Status)
			assert.Equal(t, tt.wantCalls, fr.Calls())
		})
	}
}

func TestInstallDebianSetsNoninteractiveEnv(t *testing.T) {
	t.Parallel()

	fr := testutil.NewFakeRunnerBuilder(t).Build()
	_, err := newInstaller(fr, 0).Install(context.Background(), platform.Debian)
	require.NoError(t, err)

	for _, cmd := range fr.Commands() {
		assert.Contains(t, cmd.Env, "DEBIAN_FRONTEND=noninteractive", cmd.String())
	}
}

func TestInstallDebianFailureIsFatal(t *testing.T) {
	t.Parallel()

	fr := testutil.NewFakeRunnerBuilder(t).
		WithExitCode("apt-get update", 100).
		Build()

	_, err := newInstaller(fr, 0).Install(context.Background(), platform.Debian)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refreshing apt indexes")
	assert.Zero(t, fr.CallCount("apt-get install"), "install must not run after a failed update")
}

func TestInstallDebianSudoRejected(t *testing.T) {
	t.Parallel()

	fr := testutil.NewFakeRunnerBuilder(t).
		WithTool("sudo", "/usr/bin/sudo").
		WithExitCode("sudo -v", 1).
		Build()

	_, err := newInstaller(fr, 1000).Install(context.Background(), platform.Debian)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "acquiring sudo privileges")
	assert.Equal(t, []string{"sudo -v"}, fr.Calls())
}

func TestInstallMacOS(t *testing.T) {
	t.Parallel()

	fr := testutil.NewFakeRunnerBuilder(t).
		WithOutput("xcode-select -p", "/Library/Developer/CommandLineTools\n").
		WithTool("brew", "/opt/homebrew/bin/brew").
		Build()

	result, err := newInstaller(fr, 501).Install(context.Background(), platform.MacOS)
	require.NoError(t, err)
	assert.Equal(t, outcome.Done, result.Status)
	assert.Empty(t, result.Warnings)
	assert.Equal(t, []string{
		"xcode-select -p",
		"/opt/homebrew/bin/brew update",
		"/opt/homebrew/bin/brew install git openssh python",
	}, fr.Calls())
}

func TestInstallMacOSMissingToolchainWarns(t *testing.T) {
	t.Parallel()

	fr := testutil.NewFakeRunnerBuilder(t).
		WithExitCode("xcode-select -p", 2).
		WithExitCode("xcode-select --install", 1).
		WithTool("brew", "/usr/local/bin/brew").
		Build()

	result, err := newInstaller(fr, 501).Install(context.Background(), platform.MacOS)
	require.NoError(t, err, "toolchain problems are best-effort")
	assert.Equal(t, outcome.Warned, result.Status)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "Command Line Tools")
	assert.Equal(t, 1, fr.CallCount("brew install"))
}

func TestInstallMacOSBootstrapsHomebrew(t *testing.T) {
	t.Parallel()

	installed := false
	files := map[string]bool{}
	fr := testutil.NewFakeRunnerBuilder(t).
		WithOutput("curl -fsSL", "#!/bin/bash\necho install\n").
		OnCommand("/bin/bash -c", func(_ runner.Command) error {
			installed = true
			files["/opt/homebrew/bin/brew"] = true
			return nil
		}).
		Build()

	inst := &Installer{
		Runner:     fr,
		Geteuid:    func() int { return 501 },
		FileExists: func(path string) bool { return files[path] },
	}

	_, err := inst.Install(context.Background(), platform.MacOS)
	require.NoError(t, err)
	assert.True(t, installed)

	var names []string
	var bootstrap []string
	for _, cmd := range fr.Commands() {
		names = append(names, cmd.Name)
		if cmd.Name == "/bin/bash" {
			bootstrap = cmd.Env
		}
	}
	assert.Equal(t, []string{"NONINTERACTIVE=1"}, bootstrap)
	assert.Equal(t, []string{
		"xcode-select",
		"curl",
		"sudo",
		"/bin/bash",
		"/opt/homebrew/bin/brew",
		"/opt/homebrew/bin/brew",
	}, names)
	assert.Equal(t, 1, fr.CallCount("sudo -v"))
	assert.Equal(t, 1, fr.CallCount("/opt/homebrew/bin/brew install git openssh python"))
}

func TestInstallMacOSHomebrewNeedsSudo(t *testing.T) {
	t.Parallel()

	fr := testutil.NewFakeRunnerBuilder(t).
		WithOutput("curl -fsSL", "script").
		WithExitCode("sudo -v", 1).
		Build()

	_, err := newInstaller(fr, 501).Install(context.Background(), platform.MacOS)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sudo")
	assert.Zero(t, fr.CallCount("/bin/bash"))
}

func TestInstallMacOSBrewStillMissing(t *testing.T) {
	t.Parallel()

	fr := testutil.NewFakeRunnerBuilder(t).
		WithOutput("curl -fsSL", "script").
		Build()

	_, err := newInstaller(fr, 501).Install(context.Background(), platform.MacOS)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "brew not found")
}

func TestInstallUnsupported(t *testing.T) {
	t.Parallel()

	fr := testutil.NewFakeRunnerBuilder(t).Build()
	_, err := newInstaller(fr, 0).Install(context.Background(), platform.Unsupported)
	require.Error(t, err)
	assert.Empty(t, fr.Calls())
}
