package relabel

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// kittiDictionary is the SemanticKITTI class list restricted to the classes
// the default taxonomy names plus a few it does not.
func kittiDictionary() ClassDictionary {
	return ClassDictionary{
		0:  "unlabeled",
		1:  "outlier",
		10: "car",
		15: "motorcycle",
		30: "person",
		40: "road",
		49: "other-ground",
		50: "building",
		51: "fence",
		52: "other-structure",
		70: "vegetation",
		71: "trunk",
		80: "pole",
		99: "other-object",
	}
}

func TestDefaultTaxonomy(t *testing.T) {
	t.Parallel()
	tax := DefaultTaxonomy()

	assert.Equal(t, []uint32{0, 2, 4, 6, 11}, tax.ReducedCodes())
	assert.Len(t, tax.FineClasses(), 12)

	cat, ok := tax.Category("trunk")
	require.True(t, ok)
	assert.Equal(t, CategoryVegetation, cat)
	code, ok := tax.Code(CategoryAgent)
	require.True(t, ok)
	assert.Equal(t, uint32(11), code)

	name, ok := tax.CategoryName(6)
	require.True(t, ok)
	assert.Equal(t, CategoryStructure, name)
	_, ok = tax.CategoryName(7)
	assert.False(t, ok)
}

func TestNewTaxonomy_MissingCode(t *testing.T) {
	t.Parallel()
	_, err := NewTaxonomy(map[string]string{"car": "agent"}, map[string]uint32{"ground": 2})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfig))
}

func TestBuildTaxonomyTable(t *testing.T) {
	t.Parallel()
	table, err := BuildTaxonomyTable(kittiDictionary(), DefaultTaxonomy())
	require.NoError(t, err)

	want := RemapTable{
		0:  0,
		10: 11, 15: 11, 30: 11,
		40: 2, 49: 2,
		70: 4, 71: 4,
		50: 6, 51: 6, 52: 6, 80: 6,
	}
	if diff := cmp.Diff(want, table); diff != "" {
		t.Errorf("remap table mismatch (-want +got):\n%s", diff)
	}

	// Ids the taxonomy does not name stay unmapped.
	_, ok := table.Lookup(1)
	assert.False(t, ok)
	_, ok = table.Lookup(99)
	assert.False(t, ok)
}

func TestBuildTaxonomyTable_FineClassMissingFromDictionary(t *testing.T) {
	t.Parallel()
	table, err := BuildTaxonomyTable(ClassDictionary{0: "unlabeled", 5: "vegetation"}, DefaultTaxonomy())
	require.NoError(t, err)
	assert.Equal(t, RemapTable{0: 0, 5: 4}, table)
}

func TestBuildTaxonomyTable_DuplicateName(t *testing.T) {
	t.Parallel()
	_, err := BuildTaxonomyTable(ClassDictionary{10: "car", 11: "car"}, DefaultTaxonomy())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfig))
	assert.Contains(t, err.Error(), `"car"`)
}

func TestBuildTaxonomyTable_NilTaxonomy(t *testing.T) {
	t.Parallel()
	_, err := BuildTaxonomyTable(kittiDictionary(), nil)
	assert.True(t, errors.Is(err, ErrConfig))
}
