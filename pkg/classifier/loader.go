package classifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	apperrors "github.com/medapp/medicine-catalog/pkg/errors"
)

// CatalogFile is the on-disk layout of a catalog (JSON or YAML). Categories
// are a list, not a map, so that declaration order survives decoding.
type CatalogFile struct {
	Fallback   string     `json:"fallback" yaml:"fallback"`
	Categories []Category `json:"categories" yaml:"categories"`
	Groups     []Group    `json:"groups,omitempty" yaml:"groups,omitempty"`
}

// LoadCatalog reads and validates a catalog file. The format is chosen by
// extension: .yaml/.yml is YAML, anything else JSON.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewConfigurationError(fmt.Sprintf("failed to read catalog file %s", path), err)
	}

	format := "json"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = "yaml"
	}

	return ParseCatalog(data, format)
}

// ParseCatalog decodes catalog data in the given format ("json" or "yaml").
func ParseCatalog(data []byte, format string) (*Catalog, error) {
	var file CatalogFile

	switch format {
	case "yaml":
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, apperrors.NewConfigurationError("failed to parse catalog yaml", err)
		}
	case "json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&file); err != nil {
			return nil, apperrors.NewConfigurationError("failed to parse catalog json", err)
		}
	default:
		return nil, apperrors.NewConfigurationError(fmt.Sprintf("unsupported catalog format %q", format), nil)
	}

	return NewCatalog(file.Categories, file.Fallback, file.Groups...)
}

// GetCatalogPath returns the catalog path from CLASSIFIER_CATALOG_PATH or the
// default location.
func GetCatalogPath() string {
	if path := os.Getenv("CLASSIFIER_CATALOG_PATH"); path != "" {
		return path
	}
	return "config/medicine_categories.json"
}
