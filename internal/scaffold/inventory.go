package scaffold

import (
	"fmt"
	"strings"

	"gopkg.in/ini.v1"
)

// InventoryHosts lists the hosts declared in an INI inventory, in file order
// and without duplicates. Ungrouped hosts before the first section count too;
// [group:vars] and [group:children] sections do not declare hosts.
func InventoryHosts(path string) ([]string, error) {
	file, err := ini.LoadSources(ini.LoadOptions{
		AllowBooleanKeys:        true,
		KeyValueDelimiters:      "=",
		SkipUnrecognizableLines: true,
	}, path)
	if err != nil {
		return nil, fmt.Errorf("reading inventory %s: %w", path, err)
	}

	var hosts []string
	seen := make(map[string]bool)
	for _, section := range file.Sections() {
		name := section.Name()
		if strings.HasSuffix(name, ":vars") || strings.HasSuffix(name, ":children") {
			continue
		}
		for _, key := range section.Keys() {
			// "host var=value" parses as key "host var" with value "value".
			fields := strings.Fields(key.Name())
			if len(fields) == 0 || seen[fields[0]] {
				continue
			}
			seen[fields[0]] = true
			hosts = append(hosts, fields[0])
		}
	}
	return hosts, nil
}
