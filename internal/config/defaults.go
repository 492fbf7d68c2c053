package config

// GetDefaults returns the default configuration values.
// inventory_path, playbook_path and venv_dir are derived from project_dir
// when left empty.
func GetDefaults() map[string]interface{} {
	return map[string]interface{}{
		"project_dir":     "~/ansible",
		"inventory_path":  "",
		"playbook_path":   "",
		"venv_dir":        "",
		"ansible_version": "",
		"ssh_key_path":    "~/.ssh/id_ed25519",
		"ssh_key_comment": "",
		"python_cmd":      "python3",
		"state_dir":       "~/.ansible-bootstrap/state",
		"max_history":     50,
		"skip_smoke_test": false,
		"show_progress":   true,
	}
}
