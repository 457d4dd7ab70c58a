package handlers

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// loadArgs reads operation arguments from a YAML or JSON file. An empty
// path yields no arguments.
func loadArgs(path string) (map[string]any, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, configError("failed to read arguments", err)
	}
	var args map[string]any
	if err := yaml.Unmarshal(data, &args); err != nil {
		return nil, configError(fmt.Sprintf("failed to parse arguments in %s", path), err)
	}
	return args, nil
}
