package feed

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadCategories reads an ordered category keyword table from a YAML file:
//
//	categories:
//	  - name: finance
//	    keywords: [bloomberg, marketwatch]
func LoadCategories(path string) ([]Category, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var config CategoryConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateCategories(config.Categories); err != nil {
		return nil, fmt.Errorf("invalid category config %s: %w", path, err)
	}

	return config.Categories, nil
}

func validateCategories(categories []Category) error {
	if len(categories) == 0 {
		return fmt.Errorf("at least one category is required")
	}

	seen := make(map[string]bool, len(categories))
	for i, category := range categories {
		name := strings.TrimSpace(category.Name)
		if name == "" {
			return fmt.Errorf("category name is required at index %d", i)
		}
		if name == CategoryGeneral {
			return fmt.Errorf("category %q is reserved", CategoryGeneral)
		}
		if seen[name] {
			return fmt.Errorf("duplicate category %q", name)
		}
		seen[name] = true

		if len(category.Keywords) == 0 {
			return fmt.Errorf("category %q must have at least one keyword", name)
		}
	}

	return nil
}
