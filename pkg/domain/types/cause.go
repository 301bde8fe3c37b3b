package types

import "fmt"

// CauseTaxonomy is one of the fixed groups a cause belongs to
type CauseTaxonomy string

const (
	CauseTaxonomyPeople    CauseTaxonomy = "people"
	CauseTaxonomyProcess   CauseTaxonomy = "process"
	CauseTaxonomyITSystems CauseTaxonomy = "it_systems"
	CauseTaxonomyExternal  CauseTaxonomy = "external"
)

// AllCauseTaxonomies returns the taxonomies in display order
func AllCauseTaxonomies() []CauseTaxonomy {
	return []CauseTaxonomy{
		CauseTaxonomyPeople,
		CauseTaxonomyProcess,
		CauseTaxonomyITSystems,
		CauseTaxonomyExternal,
	}
}

// IsValid checks if the taxonomy is valid
func (c CauseTaxonomy) IsValid() bool {
	switch c {
	case CauseTaxonomyPeople,
		CauseTaxonomyProcess,
		CauseTaxonomyITSystems,
		CauseTaxonomyExternal:
		return true
	default:
		return false
	}
}

// String returns the string representation of the taxonomy
func (c CauseTaxonomy) String() string {
	return string(c)
}

// ParseCauseTaxonomy parses a string into a CauseTaxonomy
func ParseCauseTaxonomy(s string) (CauseTaxonomy, error) {
	c := CauseTaxonomy(s)
	if !c.IsValid() {
		return "", fmt.Errorf("invalid cause taxonomy: %s", s)
	}
	return c, nil
}
