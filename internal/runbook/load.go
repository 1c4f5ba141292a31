package runbook

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/abhishekK50/wardenxt/internal/errors"
)

// Load reads a runbook document from a .json, .yaml or .yml file.
func Load(path string) (*Runbook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewFileNotFoundError(path)
		}
		return nil, errors.Wrap(errors.ErrCodeFileReadFailed, "read runbook", err)
	}

	format := "json"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = "yaml"
	}

	rb, err := Decode(data, format)
	if err != nil {
		return nil, errors.NewFileUnmarshalError(path, format, err)
	}
	return rb, nil
}

// Decode parses a runbook document in json or yaml format.
func Decode(data []byte, format string) (*Runbook, error) {
	var rb Runbook
	var err error
	if format == "yaml" {
		err = yaml.Unmarshal(data, &rb)
	} else {
		err = json.Unmarshal(data, &rb)
	}
	if err != nil {
		return nil, err
	}
	if rb.TotalSteps == 0 {
		rb.TotalSteps = len(rb.Steps)
	}
	return &rb, nil
}
