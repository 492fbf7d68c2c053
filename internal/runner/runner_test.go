package runner

import (
	"bytes"
	"context"
	"errors"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandString(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		cmd      Command
		expected string
	}{
		"plain args": {
			cmd:      Command{Name: "apt-get", Args: []string{"install", "-y", "git"}},
			expected: "apt-get install -y git",
		},
		"empty arg is quoted": {
			cmd:      Command{Name: "ssh-keygen", Args: []string{"-N", ""}},
			expected: `ssh-keygen -N ""`,
		},
		"arg with spaces is quoted": {
			cmd:      Command{Name: "sh", Args: []string{"-c", "echo hi"}},
			expected: `sh -c "echo hi"`,
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, tt.cmd.String())
		})
	}
}

func TestExecRunner(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	t.Parallel()

	t.Run("run streams output", func(t *testing.T) {
		t.Parallel()
		var stdout bytes.Buffer
		r := &ExecRunner{Stdout: &stdout, Stderr: &stdout}

		err := r.Run(context.Background(), Command{Name: "sh", Args: []string{"-c", "echo $GREETING"}, Env: []string{"GREETING=hello"}})
		require.NoError(t, err)
		assert.Equal(t, "hello\n", stdout.String())
	})

	t.Run("output captures stdout", func(t *testing.T) {
		t.Parallel()
		r := &ExecRunner{}

		out, err := r.Output(context.Background(), Command{Name: "sh", Args: []string{"-c", "printf 9.2.0"}})
		require.NoError(t, err)
		assert.Equal(t, "9.2.0", string(out))
	})

	t.Run("non-zero exit returns ExitError with stderr", func(t *testing.T) {
		t.Parallel()
		r := &ExecRunner{}

		_, err := r.Output(context.Background(), Command{Name: "sh", Args: []string{"-c", "echo nope >&2; exit 3"}})
		require.Error(t, err)

		var exitErr *ExitError
		require.True(t, errors.As(err, &exitErr))
		assert.Equal(t, 3, exitErr.Code)
		assert.Contains(t, exitErr.Error(), "nope")
	})

	t.Run("missing binary", func(t *testing.T) {
		t.Parallel()
		r := &ExecRunner{}

		err := r.Run(context.Background(), Command{Name: "definitely-not-a-real-binary-xyz"})
		var exitErr *ExitError
		require.True(t, errors.As(err, &exitErr))
		assert.Equal(t, -1, exitErr.Code)
		assert.Contains(t, exitErr.Error(), "could not run")
	})
}
