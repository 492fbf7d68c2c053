// Package config loads the immutable configuration shared by every bootstrap
// step. Values are layered with koanf: built-in defaults, the user config
// file, the project config file, an optional .env file, and finally
// ANSIBLE_BOOTSTRAP_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	log "github.com/cantara/bragi/sbragi"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix for environment variable overrides.
const EnvPrefix = "ANSIBLE_BOOTSTRAP_"

// Configuration is the effective ansible-bootstrap configuration.
// It is built once by Load and treated as read-only afterwards.
type Configuration struct {
	ProjectDir     string `koanf:"project_dir" yaml:"project_dir" validate:"required"`
	InventoryPath  string `koanf:"inventory_path" yaml:"inventory_path" validate:"required"`
	PlaybookPath   string `koanf:"playbook_path" yaml:"playbook_path" validate:"required"`
	VenvDir        string `koanf:"venv_dir" yaml:"venv_dir" validate:"required"`
	AnsibleVersion string `koanf:"ansible_version" yaml:"ansible_version" validate:"omitempty,pipspec"`
	SSHKeyPath     string `koanf:"ssh_key_path" yaml:"ssh_key_path" validate:"required"`
	SSHKeyComment  string `koanf:"ssh_key_comment" yaml:"ssh_key_comment"`
	PythonCmd      string `koanf:"python_cmd" yaml:"python_cmd" validate:"required"`
	StateDir       string `koanf:"state_dir" yaml:"state_dir" validate:"required"`
	MaxHistory     int    `koanf:"max_history" yaml:"max_history" validate:"min=0,max=10000"`
	SkipSmokeTest  bool   `koanf:"skip_smoke_test" yaml:"skip_smoke_test"`
	ShowProgress   bool   `koanf:"show_progress" yaml:"show_progress"`
}

// LoadOptions selects the optional configuration sources.
type LoadOptions struct {
	// ConfigPath is a project config file; ignored when it does not exist
	ConfigPath string
	// EnvFile is a dotenv file with ANSIBLE_BOOTSTRAP_* entries; ignored when missing
	EnvFile string
}

// pipSpecPattern accepts a bare version or a comma-separated list of PEP 440
// comparison clauses.
var pipSpecPattern = regexp.MustCompile(`^((==|>=|<=|~=|!=|<|>)\s*)?[0-9][0-9A-Za-z.*+!]*(\s*,\s*(==|>=|<=|~=|!=|<|>)\s*[0-9][0-9A-Za-z.*+!]*)*$`)

// Load builds the configuration.
// Priority: Environment variables > .env file > Project config > User config > Defaults
func Load(opts LoadOptions) (*Configuration, error) {
	k := koanf.New(".")

	for key, value := range GetDefaults() {
		k.Set(key, value)
	}

	if userPath, err := UserConfigPath(); err == nil {
		if err := loadFile(k, userPath); err != nil {
			return nil, fmt.Errorf("loading user config: %w", err)
		}
	}

	if opts.ConfigPath != "" {
		if err := loadFile(k, opts.ConfigPath); err != nil {
			return nil, fmt.Errorf("loading project config: %w", err)
		}
	}

	if opts.EnvFile != "" {
		if err := loadEnvFile(k, opts.EnvFile); err != nil {
			return nil, fmt.Errorf("loading env file: %w", err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	var cfg Configuration
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.resolvePaths()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks field constraints.
func (c *Configuration) Validate() error {
	validate := validator.New()
	if err := validate.RegisterValidation("pipspec", func(fl validator.FieldLevel) bool {
		return pipSpecPattern.MatchString(strings.TrimSpace(fl.Field().String()))
	}); err != nil {
		return fmt.Errorf("registering validators: %w", err)
	}
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// resolvePaths expands ~ and derives unset project paths from project_dir.
func (c *Configuration) resolvePaths() {
	c.ProjectDir = expandHomePath(c.ProjectDir)
	if c.InventoryPath == "" && c.ProjectDir != "" {
		c.InventoryPath = filepath.Join(c.ProjectDir, "inventory", "hosts.ini")
	}
	if c.PlaybookPath == "" && c.ProjectDir != "" {
		c.PlaybookPath = filepath.Join(c.ProjectDir, "site.yml")
	}
	if c.VenvDir == "" && c.ProjectDir != "" {
		c.VenvDir = filepath.Join(c.ProjectDir, ".venv")
	}
	c.InventoryPath = expandHomePath(c.InventoryPath)
	c.PlaybookPath = expandHomePath(c.PlaybookPath)
	c.VenvDir = expandHomePath(c.VenvDir)
	c.SSHKeyPath = expandHomePath(c.SSHKeyPath)
	c.StateDir = expandHomePath(c.StateDir)
	c.AnsibleVersion = strings.TrimSpace(c.AnsibleVersion)
}

// UserConfigPath returns the user-level config file path, honoring
// XDG_CONFIG_HOME.
func UserConfigPath() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "ansible-bootstrap", "config.json"), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "ansible-bootstrap", "config.json"), nil
}

func loadFile(k *koanf.Koanf, path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	log.Debug("loading config file", "path", path)
	return k.Load(file.Provider(path), json.Parser())
}

// loadEnvFile reads prefixed entries from a dotenv file without touching
// the process environment.
func loadEnvFile(k *koanf.Koanf, path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	values, err := godotenv.Read(path)
	if err != nil {
		return err
	}
	log.Debug("loading env file", "path", path, "entries", len(values))
	for name, value := range values {
		if !strings.HasPrefix(name, EnvPrefix) {
			continue
		}
		k.Set(envTransform(name), value)
	}
	return nil
}

// envTransform converts environment variable names to config keys
// Example: ANSIBLE_BOOTSTRAP_ANSIBLE_VERSION -> ansible_version
func envTransform(s string) string {
	return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
}

// expandHomePath expands a leading ~ to the user's home directory
func expandHomePath(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return homeDir
	}
	return filepath.Join(homeDir, path[2:])
}
