package raaga

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/sargamlabs/sargam/algorithms/swara"
)

//go:embed raagas.yaml
var catalogYAML []byte

// Candidate is one catalog entry: a raaga's identity and its canonical
// ascending (arohana) and descending (avarohana) scale-degree sequences.
// Entries are static and read-only for the lifetime of the process.
type Candidate struct {
	Name            string              `json:"name"`
	System          string              `json:"system"` // "Carnatic" or "Hindustani"
	Arohana         []swara.ScaleDegree `json:"arohana"`
	Avarohana       []swara.ScaleDegree `json:"avarohana"`
	Characteristics string              `json:"characteristics"`
}

// Degrees returns the set of scale degrees the raaga uses, the union of
// its arohana and avarohana
func (c *Candidate) Degrees() map[swara.ScaleDegree]bool {
	set := make(map[swara.ScaleDegree]bool)
	for _, d := range c.Arohana {
		set[d] = true
	}
	for _, d := range c.Avarohana {
		set[d] = true
	}
	return set
}

// Catalog is an ordered, read-only collection of raaga candidates.
// Declaration order matters: exact score ties resolve to the earlier entry.
type Catalog struct {
	candidates []Candidate
}

// Candidates returns the entries in declaration order; callers must not
// modify the slice
func (c *Catalog) Candidates() []Candidate {
	return c.candidates
}

// Len returns the number of catalog entries
func (c *Catalog) Len() int {
	return len(c.candidates)
}

// candidateYAML mirrors the on-disk catalog record
type candidateYAML struct {
	Name            string   `yaml:"name"`
	System          string   `yaml:"system"`
	Arohana         []string `yaml:"arohana"`
	Avarohana       []string `yaml:"avarohana"`
	Characteristics string   `yaml:"characteristics"`
}

// LoadCatalog parses a YAML catalog document
func LoadCatalog(data []byte) (*Catalog, error) {
	var doc struct {
		Raagas []candidateYAML `yaml:"raagas"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing raaga catalog: %w", err)
	}
	if len(doc.Raagas) == 0 {
		return nil, fmt.Errorf("raaga catalog is empty")
	}

	candidates := make([]Candidate, 0, len(doc.Raagas))
	for _, r := range doc.Raagas {
		arohana, err := parseDegrees(r.Arohana)
		if err != nil {
			return nil, fmt.Errorf("raaga %q arohana: %w", r.Name, err)
		}
		avarohana, err := parseDegrees(r.Avarohana)
		if err != nil {
			return nil, fmt.Errorf("raaga %q avarohana: %w", r.Name, err)
		}

		candidates = append(candidates, Candidate{
			Name:            r.Name,
			System:          r.System,
			Arohana:         arohana,
			Avarohana:       avarohana,
			Characteristics: r.Characteristics,
		})
	}

	return &Catalog{candidates: candidates}, nil
}

func parseDegrees(names []string) ([]swara.ScaleDegree, error) {
	degrees := make([]swara.ScaleDegree, len(names))
	for i, name := range names {
		d, err := swara.ParseScaleDegree(name)
		if err != nil {
			return nil, err
		}
		degrees[i] = d
	}
	return degrees, nil
}

var defaultCatalog = mustLoadDefault()

func mustLoadDefault() *Catalog {
	catalog, err := LoadCatalog(catalogYAML)
	if err != nil {
		// The embedded catalog ships with the binary; failing to parse it
		// is a build defect, not a runtime condition
		panic(fmt.Sprintf("embedded raaga catalog: %v", err))
	}
	return catalog
}

// DefaultCatalog returns the embedded catalog, shared and read-only
func DefaultCatalog() *Catalog {
	return defaultCatalog
}
