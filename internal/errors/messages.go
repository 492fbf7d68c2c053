package errors

import "fmt"

// UnsupportedPlatform reports an operating system or distribution that the
// bootstrap sequence does not know how to provision.
func UnsupportedPlatform(name string, cause error) *CLIError {
	return &CLIError{
		Category: Prerequisite,
		Message:  fmt.Sprintf("unsupported platform: %s", name),
		Remediation: []string{
			"Run on macOS or a Debian-family Linux distribution (Debian, Ubuntu and derivatives)",
			"Nothing was changed on this machine",
		},
		Cause: cause,
	}
}

// CommandFailed reports an external command that exited unsuccessfully.
func CommandFailed(step string, cause error) *CLIError {
	return &CLIError{
		Category: Runtime,
		Message:  fmt.Sprintf("%s failed: %v", step, cause),
		Remediation: []string{
			"Review the command output above",
			"Fix the environment and re-run ansible-bootstrap; completed steps are skipped or repeated safely",
		},
		Cause: cause,
	}
}

// InvalidConfig reports a configuration that failed to load or validate.
func InvalidConfig(cause error) *CLIError {
	return &CLIError{
		Category: Configuration,
		Message:  fmt.Sprintf("invalid configuration: %v", cause),
		Remediation: []string{
			"Run 'ansible-bootstrap config show' to inspect the effective configuration",
			"Check ANSIBLE_BOOTSTRAP_* environment variables and your config.json",
		},
		Cause: cause,
	}
}

// MissingTool reports a binary that must be on PATH.
func MissingTool(name string) *CLIError {
	return &CLIError{
		Category: Prerequisite,
		Message:  fmt.Sprintf("%s not found", name),
		Remediation: []string{
			"Run 'ansible-bootstrap' to install prerequisites and provision the environment",
			"Run 'ansible-bootstrap doctor' to see what is missing",
		},
	}
}

// VersionMismatch reports an installed Ansible version that does not match
// the pinned constraint.
func VersionMismatch(want, got string) *CLIError {
	return &CLIError{
		Category: Runtime,
		Message:  fmt.Sprintf("installed ansible %s does not match requested %s", got, want),
		Remediation: []string{
			"Check that the requested version exists on PyPI",
			"Remove the virtual environment directory and re-run",
		},
	}
}
