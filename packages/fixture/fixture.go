// Package fixture loads expected-value documents used to parameterize and
// verify API calls. A fixture is a read-only JSON tree addressed by dotted
// gjson paths; a missing path is reported as *MissingFieldError.
package fixture

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

// MissingFieldError reports a fixture path with no value.
type MissingFieldError struct {
	Path string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("fixture field %q not found", e.Path)
}

// Tree is an immutable fixture document.
type Tree struct {
	raw  []byte
	root gjson.Result
}

// Load reads a fixture file. Files ending in .yaml or .yml are parsed as YAML,
// everything else as JSON.
func Load(path string) (*Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fixture file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return Parse(data)
	}
}

// Parse builds a tree from a JSON document whose root must be an object.
func Parse(data []byte) (*Tree, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("fixture is not valid JSON")
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, fmt.Errorf("fixture root must be an object, got %s", root.Type)
	}
	return &Tree{raw: append([]byte(nil), data...), root: root}, nil
}

// ParseYAML converts a YAML document to JSON and builds a tree from it.
func ParseYAML(data []byte) (*Tree, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing fixture YAML: %w", err)
	}
	encoded, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("converting fixture YAML: %w", err)
	}
	return Parse(encoded)
}

// Get returns the value at path.
func (t *Tree) Get(path string) (gjson.Result, error) {
	result := t.root.Get(path)
	if !result.Exists() {
		return gjson.Result{}, &MissingFieldError{Path: path}
	}
	return result, nil
}

// String returns the value at path rendered as a string.
func (t *Tree) String(path string) (string, error) {
	result, err := t.Get(path)
	if err != nil {
		return "", err
	}
	return result.String(), nil
}

// Int returns the value at path as an integer.
func (t *Tree) Int(path string) (int64, error) {
	result, err := t.Get(path)
	if err != nil {
		return 0, err
	}
	if result.Type != gjson.Number && result.Type != gjson.String {
		return 0, fmt.Errorf("fixture field %q is %s, not a number", path, result.Type)
	}
	return result.Int(), nil
}

func (t *Tree) Has(path string) bool {
	return t.root.Get(path).Exists()
}

// Keys lists the top-level scenario names.
func (t *Tree) Keys() []string {
	var keys []string
	t.root.ForEach(func(key, _ gjson.Result) bool {
		keys = append(keys, key.String())
		return true
	})
	return keys
}

// Raw returns a copy of the JSON document.
func (t *Tree) Raw() []byte {
	return append([]byte(nil), t.raw...)
}
