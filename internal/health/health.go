// Package health inspects a machine for the artifacts a bootstrap run
// produces. It changes nothing and is safe to run at any time.
package health

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ariel-frischer/ansible-bootstrap/internal/config"
	"github.com/ariel-frischer/ansible-bootstrap/internal/platform"
	"github.com/ariel-frischer/ansible-bootstrap/internal/runner"
	"github.com/ariel-frischer/ansible-bootstrap/internal/scaffold"
	"github.com/ariel-frischer/ansible-bootstrap/internal/sshkey"
	"github.com/ariel-frischer/ansible-bootstrap/internal/venv"
)

// CheckResult represents the result of a single health check
type CheckResult struct {
	Name    string
	Passed  bool
	Message string
	// Optional checks are reported but do not fail the report
	Optional bool
}

// HealthReport contains all health check results
type HealthReport struct {
	Checks []CheckResult
	Passed bool
}

func (r *HealthReport) add(c CheckResult) {
	r.Checks = append(r.Checks, c)
	if !c.Passed && !c.Optional {
		r.Passed = false
	}
}

// Checker runs the health checks.
type Checker struct {
	Runner runner.Runner
	Config *config.Configuration
	Gather func() (platform.Facts, error)
}

// NewChecker returns a Checker for the host described by cfg.
func NewChecker(r runner.Runner, cfg *config.Configuration) *Checker {
	return &Checker{
		Runner: r,
		Config: cfg,
		Gather: func() (platform.Facts, error) {
			return platform.Gather(platform.DefaultOSReleasePath)
		},
	}
}

// RunHealthChecks runs all health checks and returns a report
func (c *Checker) RunHealthChecks(ctx context.Context) *HealthReport {
	report := &HealthReport{Passed: true}

	report.add(c.CheckPlatform())
	report.add(c.CheckTool("Git", "git"))
	report.add(c.CheckTool("ssh-keygen", "ssh-keygen"))
	report.add(c.CheckTool("Python", c.Config.PythonCmd))
	report.add(c.CheckSSHKey())
	report.add(c.CheckInventory())
	report.add(CheckFile("Playbook", c.Config.PlaybookPath))
	report.add(c.CheckAnsible(ctx))

	return report
}

// CheckPlatform checks that the host is a supported platform
func (c *Checker) CheckPlatform() CheckResult {
	facts, err := c.Gather()
	if err != nil {
		return CheckResult{Name: "Platform", Message: fmt.Sprintf("cannot read OS identification: %v", err)}
	}
	tag, err := platform.Detect(facts)
	if err != nil {
		return CheckResult{Name: "Platform", Message: err.Error()}
	}
	return CheckResult{Name: "Platform", Passed: true, Message: fmt.Sprintf("%s (%s)", facts.Name(), tag)}
}

// CheckTool checks that a binary is on PATH
func (c *Checker) CheckTool(name, binary string) CheckResult {
	path, err := c.Runner.LookPath(binary)
	if err != nil {
		return CheckResult{Name: name, Message: fmt.Sprintf("%s not found in PATH", binary)}
	}
	return CheckResult{Name: name, Passed: true, Message: path}
}

// CheckSSHKey checks for the key pair and reports its fingerprint
func (c *Checker) CheckSSHKey() CheckResult {
	result := CheckResult{Name: "SSH key", Optional: true}
	if _, err := os.Stat(c.Config.SSHKeyPath); err != nil {
		result.Message = fmt.Sprintf("%s not found", c.Config.SSHKeyPath)
		return result
	}

	pub, err := os.ReadFile(c.Config.SSHKeyPath + ".pub")
	if err != nil {
		result.Message = fmt.Sprintf("%s present but its public key is unreadable", c.Config.SSHKeyPath)
		return result
	}
	fingerprint, err := sshkey.Fingerprint(pub)
	if err != nil {
		result.Message = err.Error()
		return result
	}

	result.Passed = true
	result.Message = fmt.Sprintf("%s (%s)", c.Config.SSHKeyPath, fingerprint)
	return result
}

// CheckInventory checks that the inventory exists and declares hosts
func (c *Checker) CheckInventory() CheckResult {
	path := c.Config.InventoryPath
	if _, err := os.Stat(path); err != nil {
		return CheckResult{Name: "Inventory", Message: fmt.Sprintf("%s not found", path)}
	}
	hosts, err := scaffold.InventoryHosts(path)
	if err != nil {
		return CheckResult{Name: "Inventory", Message: err.Error()}
	}
	if len(hosts) == 0 {
		return CheckResult{Name: "Inventory", Message: fmt.Sprintf("%s declares no hosts", path)}
	}
	return CheckResult{Name: "Inventory", Passed: true, Message: fmt.Sprintf("%s (%d hosts)", path, len(hosts))}
}

// CheckFile checks that a regular file exists
func CheckFile(name, path string) CheckResult {
	info, err := os.Stat(path)
	if err != nil {
		return CheckResult{Name: name, Message: fmt.Sprintf("%s not found", path)}
	}
	if info.IsDir() {
		return CheckResult{Name: name, Message: fmt.Sprintf("%s is a directory", path)}
	}
	return CheckResult{Name: name, Passed: true, Message: path}
}

// CheckAnsible checks the environment's ansible and reports its version
func (c *Checker) CheckAnsible(ctx context.Context) CheckResult {
	bin := venv.Binary(c.Config.VenvDir, "ansible")
	if _, err := os.Stat(bin); err != nil {
		return CheckResult{Name: "Ansible", Message: fmt.Sprintf("%s not found", bin)}
	}

	out, err := c.Runner.Output(ctx, runner.Command{Name: bin, Args: []string{"--version"}})
	if err != nil {
		return CheckResult{Name: "Ansible", Message: err.Error()}
	}
	return CheckResult{Name: "Ansible", Passed: true, Message: firstLine(out)}
}

func firstLine(out []byte) string {
	scanner := bufio.NewScanner(bytes.NewReader(out))
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text())
	}
	return ""
}

// FormatReport formats the health report for console output
func FormatReport(report *HealthReport) string {
	var output strings.Builder

	for _, check := range report.Checks {
		switch {
		case check.Passed:
			fmt.Fprintf(&output, "✓ %s: %s\n", check.Name, check.Message)
		case check.Optional:
			fmt.Fprintf(&output, "! %s: %s\n", check.Name, check.Message)
		default:
			fmt.Fprintf(&output, "✗ %s: %s\n", check.Name, check.Message)
		}
	}

	return output.String()
}
