package rules

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/clauseguard/internal/util"
)

//go:embed default_catalog.yaml
var defaultCatalog []byte

// DefaultBytes returns the raw embedded catalog
func DefaultBytes() []byte {
	out := make([]byte, len(defaultCatalog))
	copy(out, defaultCatalog)
	return out
}

// Default compiles the embedded catalog
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// MustDefault compiles the embedded catalog and panics on error.
// The embedded catalog is covered by tests.
func MustDefault() *Catalog {
	c, err := Default()
	if err != nil {
		panic(fmt.Sprintf("embedded catalog: %v", err))
	}
	return c
}

// Load reads, validates and compiles a YAML catalog. The catalog hash is
// computed over the raw bytes.
func Load(path string) (*Catalog, error) {
	// #nosec G304 -- path comes from operator-configured catalog path.
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// LoadOrDefault loads path, or the embedded catalog when path is empty
func LoadOrDefault(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	return Load(util.ExpandHome(path))
}

// Parse decodes and compiles catalog bytes
func Parse(data []byte) (*Catalog, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	c, err := Compile(&f)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	c.Hash = util.DigestWithPrefix(data)
	return c, nil
}
