package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileSchema is the shape of an optional catalog override file:
//
//	categories:
//	  - Informatique
//	  - Marketing
type fileSchema struct {
	Categories []string `yaml:"categories"`
}

// LoadFile reads a catalog override from a YAML file. Order in the
// file becomes display order. Reordering an existing deployment's
// catalog changes which entry a stale selection id resolves to, so
// new categories should be appended at the end.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var cfg fileSchema
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse catalog yaml: %w", err)
	}

	c := New(cfg.Categories)
	if c.Len() == 0 {
		return nil, fmt.Errorf("catalog file %s contains no categories", path)
	}
	return c, nil
}
