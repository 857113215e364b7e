package main

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// render writes v to the command output as JSON or YAML. YAML goes through
// the JSON form first so field names and custom encodings match the API.
func (c *cli) render(cmd *cobra.Command, v any) error {
	w := cmd.OutOrStdout()
	switch format := c.v.GetString("output"); format {
	case "json", "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml", "yml":
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		var generic any
		if err := json.Unmarshal(data, &generic); err != nil {
			return err
		}
		out, err := yaml.Marshal(generic)
		if err != nil {
			return err
		}
		_, err = w.Write(out)
		return err
	default:
		return errors.Errorf("unknown output format %q", format)
	}
}

// decodeFile reads a YAML or JSON file into v using v's JSON field names.
func decodeFile(path string, v any) error {
	if path == "" {
		return errors.New("file is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "failed to read file")
	}
	var generic any
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return errors.Wrapf(err, "failed to parse %s", path)
	}
	asJSON, err := json.Marshal(generic)
	if err != nil {
		return errors.Wrapf(err, "failed to convert %s", path)
	}
	if err := json.Unmarshal(asJSON, v); err != nil {
		return errors.Wrapf(err, "invalid content in %s", path)
	}
	return nil
}
