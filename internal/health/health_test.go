// Package health_test tests the doctor checks against a sandboxed project.
// Related: internal/health/health.go
// Tags: health, dependencies, validation, doctor

package health

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ariel-frischer/ansible-bootstrap/internal/config"
	"github.com/ariel-frischer/ansible-bootstrap/internal/platform"
	"github.com/ariel-frischer/ansible-bootstrap/internal/scaffold"
	"github.com/ariel-frischer/ansible-bootstrap/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

func sandbox(t *testing.T) *config.Configuration {
	t.Helper()

	root := t.TempDir()
	return &config.Configuration{
		ProjectDir:    root,
		InventoryPath: filepath.Join(root, "inventory", "hosts.ini"),
		PlaybookPath:  filepath.Join(root, "site.yml"),
		VenvDir:       filepath.Join(root, ".venv"),
		SSHKeyPath:    filepath.Join(root, ".ssh", "id_ed25519"),
		PythonCmd:     "python3",
	}
}

func bootstrapped(t *testing.T, cfg *config.Configuration) {
	t.Helper()

	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	sshPub, err := ssh.NewPublicKey(pub)
	require.NoError(t, err)

	testutil.WriteFile(t, cfg.SSHKeyPath, "PRIVATE\n")
	testutil.WriteFile(t, cfg.SSHKeyPath+".pub", string(ssh.MarshalAuthorizedKey(sshPub)))
	testutil.WriteFile(t, cfg.InventoryPath, scaffold.DefaultInventory)
	testutil.WriteFile(t, cfg.PlaybookPath, "---\n")
	testutil.WriteFile(t, filepath.Join(cfg.VenvDir, "bin", "ansible"), "#!/bin/sh\n")
}

func debianFacts() (platform.Facts, error) {
	return platform.Facts{Kernel: "linux", ID: "debian", PrettyName: "Debian GNU/Linux 12 (bookworm)"}, nil
}

func TestRunHealthChecks_Healthy(t *testing.T) {
	t.Parallel()

	cfg := sandbox(t)
	bootstrapped(t, cfg)
	fr := testutil.NewFakeRunnerBuilder(t).
		WithTool("git", "/usr/bin/git").
		WithTool("ssh-keygen", "/usr/bin/ssh-keygen").
		WithTool("python3", "/usr/bin/python3").
		WithOutput("ansible --version", "ansible [core 2.16.3]\n  config file = None\n").
		Build()

	checker := NewChecker(fr, cfg)
	checker.Gather = debianFacts
	report := checker.RunHealthChecks(context.Background())

	assert.True(t, report.Passed, FormatReport(report))
	require.Len(t, report.Checks, 8)

	byName := make(map[string]CheckResult)
	for _, c := range report.Checks {
		byName[c.Name] = c
	}
	assert.Equal(t, "Debian GNU/Linux 12 (bookworm) (debian)", byName["Platform"].Message)
	assert.Contains(t, byName["Inventory"].Message, "(1 hosts)")
	assert.Contains(t, byName["SSH key"].Message, "SHA256:")
	assert.Equal(t, "ansible [core 2.16.3]", byName["Ansible"].Message)
}

func TestRunHealthChecks_FreshMachine(t *testing.T) {
	t.Parallel()

	cfg := sandbox(t)
	fr := testutil.NewFakeRunnerBuilder(t).Build()

	checker := NewChecker(fr, cfg)
	checker.Gather = debianFacts
	report := checker.RunHealthChecks(context.Background())

	assert.False(t, report.Passed)
	for _, c := range report.Checks {
		if c.Name == "Platform" {
			assert.True(t, c.Passed)
			continue
		}
		assert.False(t, c.Passed, c.Name)
	}
	assert.Zero(t, fr.CallCount("ansible"), "missing binary is not executed")
}

func TestRunHealthChecks_OptionalKeyDoesNotFail(t *testing.T) {
	t.Parallel()

	cfg := sandbox(t)
	bootstrapped(t, cfg)
	fr := testutil.NewFakeRunnerBuilder(t).
		WithTool("git", "/usr/bin/git").
		WithTool("ssh-keygen", "/usr/bin/ssh-keygen").
		WithTool("python3", "/usr/bin/python3").
		Build()
	cfg.SSHKeyPath = filepath.Join(t.TempDir(), "absent")

	checker := NewChecker(fr, cfg)
	checker.Gather = debianFacts
	report := checker.RunHealthChecks(context.Background())

	assert.True(t, report.Passed)
	assert.Contains(t, FormatReport(report), "! SSH key:")
}

func TestCheckPlatform(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		gather     func() (platform.Facts, error)
		wantPassed bool
		wantMsg    string
	}{
		"macOS": {
			gather:     func() (platform.Facts, error) { return platform.Facts{Kernel: "darwin"}, nil },
			wantPassed: true,
			wantMsg:    "darwin (macos)",
		},
		"unsupported distribution": {
			gather:  func() (platform.Facts, error) { return platform.Facts{Kernel: "linux", ID: "fedora"}, nil },
			wantMsg: "unsupported Linux distribution: fedora",
		},
		"unreadable os-release": {
			gather:  func() (platform.Facts, error) { return platform.Facts{}, errors.New("permission denied") },
			wantMsg: "permission denied",
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			checker := &Checker{Gather: tt.gather}
			result := checker.CheckPlatform()
			assert.Equal(t, tt.wantPassed, result.Passed)
			assert.Contains(t, result.Message, tt.wantMsg)
		})
	}
}

func TestCheckInventory(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		content    *string
		wantPassed bool
		wantMsg    string
	}{
		"missing":  {wantMsg: "not found"},
		"no hosts": {content: ptr("[local]\n"), wantMsg: "declares no hosts"},
		"hosts":    {content: ptr("[web]\na\nb\n"), wantPassed: true, wantMsg: "(2 hosts)"},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cfg := sandbox(t)
			if tt.content != nil {
				testutil.WriteFile(t, cfg.InventoryPath, *tt.content)
			}
			result := (&Checker{Config: cfg}).CheckInventory()
			assert.Equal(t, tt.wantPassed, result.Passed)
			assert.Contains(t, result.Message, tt.wantMsg)
		})
	}
}

func TestCheckFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := filepath.Join(dir, "site.yml")
	testutil.WriteFile(t, file, "---\n")

	assert.True(t, CheckFile("Playbook", file).Passed)
	assert.False(t, CheckFile("Playbook", dir).Passed)
	assert.False(t, CheckFile("Playbook", filepath.Join(dir, "missing.yml")).Passed)
}

// TestFormatReport tests the report formatting
func TestFormatReport(t *testing.T) {
	t.Parallel()

	report := &HealthReport{Checks: []CheckResult{
		{Name: "Git", Passed: true, Message: "/usr/bin/git"},
		{Name: "Ansible", Message: "/p/.venv/bin/ansible not found"},
		{Name: "SSH key", Optional: true, Message: "~/.ssh/id_ed25519 not found"},
	}}

	lines := strings.Split(strings.TrimSpace(FormatReport(report)), "\n")
	assert.Equal(t, []string{
		"✓ Git: /usr/bin/git",
		"✗ Ansible: /p/.venv/bin/ansible not found",
		"! SSH key: ~/.ssh/id_ed25519 not found",
	}, lines)
}

func ptr(s string) *string { return &s }
