package schema

import (
	_ "embed"
	"sync"
)

//go:embed editor.yaml
var defaultSchemaYAML []byte

// DefaultSchemaYAML returns the raw default schema YAML bytes
func DefaultSchemaYAML() []byte {
	return defaultSchemaYAML
}

var (
	defaultOnce   sync.Once
	defaultSchema *Schema
	defaultErr    error
)

// LoadDefault returns the bundled editor schema. It is parsed once.
func LoadDefault() (*Schema, error) {
	defaultOnce.Do(func() {
		defaultSchema, defaultErr = Parse(defaultSchemaYAML)
	})
	return defaultSchema, defaultErr
}

// MustDefault is LoadDefault for callers that cannot proceed without it.
func MustDefault() *Schema {
	s, err := LoadDefault()
	if err != nil {
		panic(err)
	}
	return s
}
