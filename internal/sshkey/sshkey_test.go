package sshkey

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/ariel-frischer/ansible-bootstrap/internal/outcome"
	"github.com/ariel-frischer/ansible-bootstrap/internal/runner"
	"github.com/ariel-frischer/ansible-bootstrap/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

// authorizedKey returns a freshly generated ed25519 public key line.
func authorizedKey(t *testing.T) []byte {
	t.Helper()

	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	sshPub, err := ssh.NewPublicKey(pub)
	require.NoError(t, err)
	return ssh.MarshalAuthorizedKey(sshPub)
}

// fakeKeygen writes the files ssh-keygen would create.
func fakeKeygen(t *testing.T, pub []byte) func(runner.Command) error {
	return func(cmd runner.Command) error {
		var path string
		for i, arg := range cmd.Args {
			if arg == "-f" && i+1 < len(cmd.Args) {
				path = cmd.Args[i+1]
			}
		}
		if err := os.WriteFile(path, []byte("PRIVATE KEY\n"), 0o600); err != nil {
			return err
		}
		return os.WriteFile(path+".pub", pub, 0o644)
	}
}

func TestEnsureGeneratesMissingKey(t *testing.T) {
	t.Parallel()

	pub := authorizedKey(t)
	keyPath := filepath.Join(t.TempDir(), ".ssh", "id_ed25519")
	fr := testutil.NewFakeRunnerBuilder(t).
		OnCommand("ssh-keygen", fakeKeygen(t, pub)).
		Build()

	result, err := NewEnsurer(fr, keyPath, "me@laptop").Ensure(context.Background())
	require.NoError(t, err)

	assert.Equal(t, outcome.Done, result.Status)
	assert.Equal(t, []string{`ssh-keygen -q -t ed25519 -N "" -f ` + keyPath + " -C me@laptop"}, fr.Calls())

	require.Len(t, result.Notices, 1)
	notice := result.Notices[0]
	assert.Equal(t, string(pub[:len(pub)-1]), notice.Lines[0])
	assert.Contains(t, notice.Lines[1], "SHA256:")

	if runtime.GOOS != "windows" {
		info, err := os.Stat(filepath.Dir(keyPath))
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o700), info.Mode().Perm())
	}
}

func TestEnsureOmitsEmptyComment(t *testing.T) {
	t.Parallel()

	keyPath := filepath.Join(t.TempDir(), "id_ed25519")
	fr := testutil.NewFakeRunnerBuilder(t).
		OnCommand("ssh-keygen", fakeKeygen(t, authorizedKey(t))).
		Build()

	_, err := NewEnsurer(fr, keyPath, "").Ensure(context.Background())
	require.NoError(t, err)
	assert.NotContains(t, fr.Calls()[0], "-C")
}

func TestEnsureKeepsExistingKey(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	keyPath := filepath.Join(dir, "id_ed25519")
	testutil.WriteFile(t, keyPath, "EXISTING PRIVATE\n")
	testutil.WriteFile(t, keyPath+".pub", "EXISTING PUBLIC\n")

	fr := testutil.NewFakeRunnerBuilder(t).Build()
	result, err := NewEnsurer(fr, keyPath, "").Ensure(context.Background())
	require.NoError(t, err)

	assert.Equal(t, outcome.Skipped, result.Status)
	assert.Empty(t, result.Notices)
	assert.Empty(t, fr.Calls(), "ssh-keygen must not run")
	assert.Equal(t, "EXISTING PRIVATE\n", testutil.ReadFile(t, keyPath))
	assert.Equal(t, "EXISTING PUBLIC\n", testutil.ReadFile(t, keyPath+".pub"))
}

func TestEnsureWarnsWhenPublicKeyMissing(t *testing.T) {
	t.Parallel()

	keyPath := filepath.Join(t.TempDir(), "id_ed25519")
	testutil.WriteFile(t, keyPath, "EXISTING PRIVATE\n")

	fr := testutil.NewFakeRunnerBuilder(t).Build()
	result, err := NewEnsurer(fr, keyPath, "").Ensure(context.Background())
	require.NoError(t, err)

	assert.Equal(t, outcome.Warned, result.Status)
	assert.Empty(t, fr.Calls())
}

func TestEnsureKeygenFailure(t *testing.T) {
	t.Parallel()

	keyPath := filepath.Join(t.TempDir(), "id_ed25519")
	fr := testutil.NewFakeRunnerBuilder(t).
		WithExitCode("ssh-keygen", 1).
		Build()

	_, err := NewEnsurer(fr, keyPath, "").Ensure(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "generating SSH key")
}

func TestFingerprint(t *testing.T) {
	t.Parallel()

	fp, err := Fingerprint(authorizedKey(t))
	require.NoError(t, err)
	assert.Regexp(t, `^SHA256:[A-Za-z0-9+/]+$`, fp)

	_, err = Fingerprint([]byte("not a key"))
	assert.Error(t, err)
}
