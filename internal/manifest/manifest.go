package manifest

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed plugin.yaml
var defaultManifest []byte

//go:embed schema.json
var manifestSchema []byte

var (
	compiledSchema *gojsonschema.Schema
	compileOnce    sync.Once
	compileErr     error
)

// Manifest describes the plugin to launcher hosts.
type Manifest struct {
	Name        string       `json:"name" yaml:"name"`
	Description string       `json:"description" yaml:"description"`
	Icon        string       `json:"icon,omitempty" yaml:"icon,omitempty"`
	Keywords    []string     `json:"keywords" yaml:"keywords"`
	Actions     []ActionSpec `json:"actions,omitempty" yaml:"actions,omitempty"`
}

// ActionSpec documents one launchable window action.
type ActionSpec struct {
	ID    string `json:"id" yaml:"id"`
	Label string `json:"label" yaml:"label"`
	Icon  string `json:"icon,omitempty" yaml:"icon,omitempty"`
	Score int    `json:"score" yaml:"score"`
}

func getSchema() (*gojsonschema.Schema, error) {
	compileOnce.Do(func() {
		loader := gojsonschema.NewBytesLoader(manifestSchema)
		compiledSchema, compileErr = gojsonschema.NewSchema(loader)
	})
	return compiledSchema, compileErr
}

// Parse decodes and validates a YAML manifest.
func Parse(raw []byte) (*Manifest, error) {
	var doc interface{}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse manifest yaml: %w", err)
	}

	schema, err := getSchema()
	if err != nil {
		return nil, fmt.Errorf("compile manifest schema: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("validate manifest: %w", err)
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			details = append(details, e.String())
		}
		return nil, fmt.Errorf("invalid manifest: %s", strings.Join(details, "; "))
	}

	var m Manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	return &m, nil
}

// Default returns the embedded manifest shipped with the binary.
func Default() (*Manifest, error) {
	return Parse(defaultManifest)
}

// Load resolves the manifest, preferring a WINCOM_MANIFEST override file over
// the embedded default.
func Load() (*Manifest, error) {
	path := strings.TrimSpace(os.Getenv("WINCOM_MANIFEST"))
	if path == "" {
		return Default()
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest override: %w", err)
	}
	m, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("manifest override %s: %w", path, err)
	}
	return m, nil
}
