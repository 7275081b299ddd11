package model

import (
	_ "embed"
	"fmt"
	"os"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// Catalog lists the subjects a user may pick for each grade.
type Catalog struct {
	Grades map[Grade][]string `yaml:"grades" json:"grades"`
}

var (
	defaultCatalog     *Catalog
	defaultCatalogErr  error
	defaultCatalogOnce sync.Once
)

// DefaultCatalog returns the catalog shipped with the binary.
func DefaultCatalog() *Catalog {
	defaultCatalogOnce.Do(func() {
		defaultCatalog, defaultCatalogErr = ParseCatalog(defaultCatalogYAML)
	})
	if defaultCatalogErr != nil {
		panic(fmt.Sprintf("embedded catalog is invalid: %v", defaultCatalogErr))
	}
	return defaultCatalog
}

// LoadCatalog reads a catalog from path, or returns the embedded one when path is empty.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(data)
}

func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	for _, g := range Grades {
		if len(c.Grades[g]) == 0 {
			return nil, fmt.Errorf("catalog has no subjects for grade %s", g)
		}
	}
	for g := range c.Grades {
		if !g.Valid() {
			return nil, fmt.Errorf("catalog lists unknown grade %q", g)
		}
	}
	return &c, nil
}

// Subjects returns the allowed subjects for grade in display order.
func (c *Catalog) Subjects(g Grade) []string {
	return c.Grades[g]
}

func (c *Catalog) Allows(g Grade, subject string) bool {
	return slices.Contains(c.Grades[g], subject)
}

// Marshal renders the catalog back to YAML.
func (c *Catalog) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
