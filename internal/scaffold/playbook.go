package scaffold

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Playbook is an ordered list of plays.
type Playbook []Play

// Play targets a host pattern with a task list.
type Play struct {
	Name        string `yaml:"name"`
	Hosts       string `yaml:"hosts"`
	GatherFacts bool   `yaml:"gather_facts"`
	Tasks       []Task `yaml:"tasks"`
}

// Task invokes one module. It marshals as a mapping whose module key is
// dynamic, e.g. `ansible.builtin.ping: {}`.
type Task struct {
	Name   string
	Module string
	Args   map[string]string
}

// MarshalYAML emits name first and the module invocation second.
func (t Task) MarshalYAML() (any, error) {
	args := t.Args
	if args == nil {
		args = map[string]string{}
	}

	var argsNode yaml.Node
	if err := argsNode.Encode(args); err != nil {
		return nil, fmt.Errorf("encoding args for %s: %w", t.Module, err)
	}

	return &yaml.Node{
		Kind: yaml.MappingNode,
		Content: []*yaml.Node{
			{Kind: yaml.ScalarNode, Tag: "!!str", Value: "name"},
			{Kind: yaml.ScalarNode, Tag: "!!str", Value: t.Name},
			{Kind: yaml.ScalarNode, Tag: "!!str", Value: t.Module},
			&argsNode,
		},
	}, nil
}

// DefaultPlaybook is the playbook written into a fresh project: a ping and a
// report of the Python version gathered from the host.
func DefaultPlaybook() Playbook {
	return Playbook{{
		Name:        "Bootstrap local machine",
		Hosts:       "local",
		GatherFacts: true,
		Tasks: []Task{
			{Name: "Ping", Module: "ansible.builtin.ping"},
			{
				Name:   "Show Python version",
				Module: "ansible.builtin.debug",
				Args:   map[string]string{"var": "ansible_python_version"},
			},
		},
	}}
}

// Render returns the playbook as a YAML document.
func (p Playbook) Render() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("---\n")

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(p); err != nil {
		return nil, fmt.Errorf("rendering playbook: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("rendering playbook: %w", err)
	}
	return buf.Bytes(), nil
}
