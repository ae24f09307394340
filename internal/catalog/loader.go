package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/denisok6893-rgb/swampswipe/internal/domain"
)

//go:embed listings.json
var defaultListings []byte

// Default returns the built-in Gainesville catalog.
func Default() (*Catalog, error) {
	var listings []domain.Listing
	if err := json.Unmarshal(defaultListings, &listings); err != nil {
		return nil, fmt.Errorf("unmarshal default listings: %w", err)
	}
	return New(listings)
}

// LoadFile reads a catalog from a JSON or YAML file, chosen by extension.
func LoadFile(path string) (*Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read listings file: %w", err)
	}

	var listings []domain.Listing
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &listings); err != nil {
			return nil, fmt.Errorf("unmarshal listings yaml: %w", err)
		}
	default:
		if err := json.Unmarshal(b, &listings); err != nil {
			return nil, fmt.Errorf("unmarshal listings: %w", err)
		}
	}
	return New(listings)
}
