package evaluation

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// taxonomyFile is the on-disk form: categories list their fine labels.
//
//	name: mentbert
//	categories:
//	  anxiety: [Anxiety, OCD, PTSD]
type taxonomyFile struct {
	Name       string              `yaml:"name"`
	Categories map[string][]string `yaml:"categories"`
}

// LoadTaxonomy reads a taxonomy from a YAML file.
func LoadTaxonomy(path string) (Taxonomy, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Taxonomy{}, err
	}
	return ParseTaxonomy(b)
}

// ParseTaxonomy decodes YAML taxonomy bytes. A label listed under two
// categories is rejected.
func ParseTaxonomy(b []byte) (Taxonomy, error) {
	var f taxonomyFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return Taxonomy{}, fmt.Errorf("taxonomy decode: %w", err)
	}
	if len(f.Categories) == 0 {
		return Taxonomy{}, errors.New("taxonomy: no categories")
	}
	table := map[string]string{}
	for cat, labels := range f.Categories {
		if cat == "" {
			return Taxonomy{}, errors.New("taxonomy: empty category name")
		}
		for _, l := range labels {
			if prev, ok := table[l]; ok && prev != cat {
				return Taxonomy{}, fmt.Errorf("taxonomy: label %q in both %q and %q", l, prev, cat)
			}
			table[l] = cat
		}
	}
	return NewTaxonomy(f.Name, table), nil
}
