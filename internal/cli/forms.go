package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// readForm decodes a form data file into dest. YAML files are accepted
// alongside JSON; keys are the JSON field names either way. An empty path
// leaves dest unchanged.
func readForm(path string, dest any) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read form", err)
	}

	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		var doc map[string]any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return WrapExitError(ExitCommandError, "failed to parse form", err)
		}
		if data, err = json.Marshal(doc); err != nil {
			return WrapExitError(ExitCommandError, "failed to parse form", err)
		}
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		return WrapExitError(ExitCommandError, fmt.Sprintf("failed to parse form %s", path), err)
	}
	return nil
}
