package template

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/cardsmith/pkg/errors"
)

// Format is a template document encoding.
type Format string

// Supported document formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format from a file extension, defaulting to JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// Decode reads a Template document in the given format.
// YAML is converted to JSON first so both formats share the element codec.
func Decode(r io.Reader, format Format) (Template, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Template{}, fmt.Errorf("read template: %w", err)
	}

	if format == FormatYAML {
		data, err = yamlToJSON(data)
		if err != nil {
			return Template{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode yaml template")
		}
	}

	var t Template
	if err := json.Unmarshal(data, &t); err != nil {
		return Template{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode template")
	}
	return t, nil
}

// Unmarshal decodes a JSON template document.
func Unmarshal(data []byte) (Template, error) {
	return Decode(bytes.NewReader(data), FormatJSON)
}

// Marshal encodes t as pretty-printed JSON.
func Marshal(t Template) ([]byte, error) {
	return json.MarshalIndent(t, "", "  ")
}

// ReadFile reads a template document, choosing the format by extension.
func ReadFile(path string) (Template, error) {
	f, err := os.Open(path)
	if err != nil {
		return Template{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	t, err := Decode(f, FormatFromPath(path))
	if err != nil {
		return Template{}, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// WriteFile writes t to path as JSON.
func WriteFile(t Template, path string) error {
	data, err := Marshal(t)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func yamlToJSON(data []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return json.Marshal(normalizeYAML(doc))
}

// normalizeYAML turns map[any]any (possible for non-string keys) into
// map[string]any so encoding/json accepts it.
func normalizeYAML(v any) any {
	switch x := v.(type) {
	case map[string]any:
		for k, val := range x {
			x[k] = normalizeYAML(val)
		}
		return x
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[fmt.Sprint(k)] = normalizeYAML(val)
		}
		return out
	case []any:
		for i, val := range x {
			x[i] = normalizeYAML(val)
		}
		return x
	}
	return v
}
