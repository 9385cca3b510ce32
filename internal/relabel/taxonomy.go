package relabel

import (
	"fmt"
	"sort"
)

// Semantic categories of the reduced taxonomy.
const (
	CategoryUnlabeled  = "unlabeled"
	CategoryAgent      = "agent"
	CategoryGround     = "ground"
	CategoryVegetation = "vegetation"
	CategoryStructure  = "structure"
)

// Taxonomy is the two-level collapse from fine class name to semantic
// category to reduced code. It is immutable once built.
type Taxonomy struct {
	categories map[string]string // fine class name -> category
	codes      map[string]uint32 // category -> reduced code
}

// NewTaxonomy copies the given tables. Every category named in categories
// must have a code.
func NewTaxonomy(categories map[string]string, codes map[string]uint32) (*Taxonomy, error) {
	t := &Taxonomy{
		categories: make(map[string]string, len(categories)),
		codes:      make(map[string]uint32, len(codes)),
	}
	for cat, code := range codes {
		t.codes[cat] = code
	}
	for fine, cat := range categories {
		if _, ok := t.codes[cat]; !ok {
			return nil, fmt.Errorf("%w: class %q maps to category %q which has no reduced code", ErrConfig, fine, cat)
		}
		t.categories[fine] = cat
	}
	return t, nil
}

// DefaultTaxonomy returns the built-in SemanticKITTI reduction.
func DefaultTaxonomy() *Taxonomy {
	t, err := NewTaxonomy(
		map[string]string{
			"unlabeled":  CategoryUnlabeled,
			"motorcycle": CategoryAgent,
			"person":     CategoryAgent,
			"car":        CategoryAgent,
			"road":       CategoryGround,
			// other-ground includes some other-structure.
			"other-ground": CategoryGround,
			"vegetation":   CategoryVegetation,
			// trunk includes trees.
			"trunk": CategoryVegetation,
			"pole":  CategoryStructure,
			// other-structure includes lamps and levees.
			"other-structure": CategoryStructure,
			"building":        CategoryStructure,
			"fence":           CategoryStructure,
		},
		map[string]uint32{
			CategoryUnlabeled:  0,
			CategoryAgent:      11,
			CategoryGround:     2,
			CategoryVegetation: 4,
			CategoryStructure:  6,
		},
	)
	if err != nil {
		panic(err)
	}
	return t
}

// Category returns the semantic category of a fine class name.
func (t *Taxonomy) Category(fine string) (string, bool) {
	c, ok := t.categories[fine]
	return c, ok
}

// Code returns the reduced code of a category.
func (t *Taxonomy) Code(category string) (uint32, bool) {
	c, ok := t.codes[category]
	return c, ok
}

// FineClasses returns the fine class names in sorted order.
func (t *Taxonomy) FineClasses() []string {
	names := make([]string, 0, len(t.categories))
	for n := range t.categories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ReducedCodes returns the distinct reduced codes in ascending order.
func (t *Taxonomy) ReducedCodes() []uint32 {
	codes := make([]uint32, 0, len(t.codes))
	for _, c := range t.codes {
		codes = append(codes, c)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}

// CategoryName returns the category whose code is c, if any.
func (t *Taxonomy) CategoryName(c uint32) (string, bool) {
	for cat, code := range t.codes {
		if code == c {
			return cat, true
		}
	}
	return "", false
}

// TaxonomyTableBuilder composes a ClassDictionary with a Taxonomy.
type TaxonomyTableBuilder struct {
	Dictionary ClassDictionary
	Taxonomy   *Taxonomy
}

// Build inverts the dictionary and, for each fine class of the taxonomy,
// maps its id to the reduced code of its category. Dictionary ids the
// taxonomy does not mention stay unmapped. A fine class missing from the
// dictionary is skipped. Two ids sharing a name is ErrConfig.
func (b TaxonomyTableBuilder) Build() (RemapTable, error) {
	if b.Taxonomy == nil {
		return nil, fmt.Errorf("%w: no taxonomy", ErrConfig)
	}

	nameToID := make(map[string]uint32, len(b.Dictionary))
	for _, id := range b.Dictionary.IDs() {
		name := b.Dictionary[id]
		if prev, dup := nameToID[name]; dup {
			return nil, fmt.Errorf("%w: class name %q used by ids %d and %d", ErrConfig, name, prev, id)
		}
		nameToID[name] = id
	}

	table := make(RemapTable)
	for _, fine := range b.Taxonomy.FineClasses() {
		id, ok := nameToID[fine]
		if !ok {
			diagf("taxonomy class %q not in definition document; skipping", fine)
			continue
		}
		cat, _ := b.Taxonomy.Category(fine)
		code, _ := b.Taxonomy.Code(cat)
		table[id] = code
	}
	return table, nil
}

// BuildTaxonomyTable is shorthand for TaxonomyTableBuilder{dict, taxonomy}.Build().
func BuildTaxonomyTable(dict ClassDictionary, taxonomy *Taxonomy) (RemapTable, error) {
	return TaxonomyTableBuilder{Dictionary: dict, Taxonomy: taxonomy}.Build()
}
