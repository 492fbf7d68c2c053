// Package sshkey makes sure the operator has an ed25519 SSH identity.
// An existing private key is never replaced: it may already be registered
// with a git host, and regenerating it would silently break that access.
package sshkey

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ariel-frischer/ansible-bootstrap/internal/outcome"
	"github.com/ariel-frischer/ansible-bootstrap/internal/runner"
	"golang.org/x/crypto/ssh"
)

// Ensurer creates the key pair when it is missing.
type Ensurer struct {
	Runner  runner.Runner
	KeyPath string
	// Comment is passed to ssh-keygen -C; empty keeps ssh-keygen's user@host default
	Comment string
}

// NewEnsurer returns an Ensurer for the private key at keyPath.
func NewEnsurer(r runner.Runner, keyPath, comment string) *Ensurer {
	return &Ensurer{Runner: r, KeyPath: keyPath, Comment: comment}
}

// PublicKeyPath returns the path of the public half of the key pair.
func (e *Ensurer) PublicKeyPath() string {
	return e.KeyPath + ".pub"
}

// Ensure generates the key pair if the private key does not exist.
// A fresh key comes back with a notice carrying the public key so the caller
// can ask the operator to register it.
func (e *Ensurer) Ensure(ctx context.Context) (outcome.Outcome, error) {
	if _, err := os.Stat(e.KeyPath); err == nil {
		result := outcome.Skippedf("SSH key already present at %s", e.KeyPath)
		if _, err := os.Stat(e.PublicKeyPath()); os.IsNotExist(err) {
			result.Warn("public key %s is missing; recreate it with: ssh-keygen -y -f %s > %s",
				e.PublicKeyPath(), e.KeyPath, e.PublicKeyPath())
		}
		return result, nil
	} else if !os.IsNotExist(err) {
		return outcome.Outcome{}, fmt.Errorf("checking SSH key: %w", err)
	}

	sshDir := filepath.Dir(e.KeyPath)
	if err := os.MkdirAll(sshDir, 0o700); err != nil {
		return outcome.Outcome{}, fmt.Errorf("creating %s: %w", sshDir, err)
	}
	// MkdirAll leaves an existing directory's mode alone.
	if err := os.Chmod(sshDir, 0o700); err != nil {
		return outcome.Outcome{}, fmt.Errorf("restricting %s: %w", sshDir, err)
	}

	args := []string{"-q", "-t", "ed25519", "-N", "", "-f", e.KeyPath}
	if e.Comment != "" {
		args = append(args, "-C", e.Comment)
	}
	if err := e.Runner.Run(ctx, runner.Command{Name: "ssh-keygen", Args: args}); err != nil {
		return outcome.Outcome{}, fmt.Errorf("generating SSH key: %w", err)
	}

	pub, err := os.ReadFile(e.PublicKeyPath())
	if err != nil {
		return outcome.Outcome{}, fmt.Errorf("reading public key: %w", err)
	}
	fingerprint, err := Fingerprint(pub)
	if err != nil {
		return outcome.Outcome{}, err
	}

	result := outcome.Donef("generated SSH key %s", e.KeyPath)
	result.AddNotice(outcome.Notice{
		Title: "New SSH public key",
		Lines: []string{
			strings.TrimSpace(string(pub)),
			"Fingerprint: " + fingerprint,
			"Add this key to your git hosting service (e.g. GitHub > Settings > SSH and GPG keys).",
		},
	})
	return result, nil
}

// Fingerprint returns the SHA256 fingerprint of an authorized_keys-format
// public key.
func Fingerprint(authorizedKey []byte) (string, error) {
	key, _, _, _, err := ssh.ParseAuthorizedKey(authorizedKey)
	if err != nil {
		return "", fmt.Errorf("parsing public key: %w", err)
	}
	return ssh.FingerprintSHA256(key), nil
}
