package catalog

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/college-tracker/internal/model"
)

func sample() []model.College {
	return []model.College{
		{ID: "1", InstName: "Columbia University in the City of New York", City: "New York", State: "NY"},
		{ID: "2", InstName: "Massachusetts Institute of Technology", City: "Cambridge", State: "MA"},
		{ID: "3", InstName: "Harvard University", City: "Cambridge", State: "MA"},
		{ID: "4", InstName: "Michigan State University", City: "East Lansing", State: "MI"},
		{ID: "5", InstName: "Stanford University", City: "Stanford", State: "CA"},
	}
}

// =========================================================================
// MATCH
// =========================================================================

func TestMatch_LetterIsPrefixOnName(t *testing.T) {
	f := Filter{Letter: "M"}

	got, total := f.Apply(sample())
	require.Equal(t, 2, total)
	assert.Equal(t, "Massachusetts Institute of Technology", got[0].InstName)
	assert.Equal(t, "Michigan State University", got[1].InstName)

	// "Columbia" contains an m but does not start with one.
	assert.False(t, f.Match(sample()[0]))
}

func TestMatch_QueryIsSubstringAcrossFields(t *testing.T) {
	got, _ := Filter{Query: "ambri"}.Apply(sample())
	require.Len(t, got, 2)
	assert.Equal(t, "Harvard University", got[0].InstName)
	assert.Equal(t, "Massachusetts Institute of Technology", got[1].InstName)

	got, _ = Filter{Query: "ny"}.Apply(sample())
	require.Len(t, got, 1, "state abbreviation matches case-insensitively")
	assert.Equal(t, "1", got[0].ID)
}

func TestMatch_QueryAndLetterAreANDed(t *testing.T) {
	got, _ := Filter{Query: "university", Letter: "h"}.Apply(sample())
	require.Len(t, got, 1)
	assert.Equal(t, "Harvard University", got[0].InstName)
}

func TestMatch_UnicodeFolding(t *testing.T) {
	c := model.College{InstName: "École Polytechnique", City: "Palaiseau"}
	assert.True(t, Filter{Query: "ÉCOLE"}.Match(c))
	assert.True(t, Filter{Letter: "é"}.Match(c))
}

func TestApply_TotalCountsAllMatches(t *testing.T) {
	var all []model.College
	for i := 0; i < 30; i++ {
		all = append(all, model.College{ID: fmt.Sprint(i), InstName: fmt.Sprintf("College %02d", i)})
	}

	got, total := Filter{Limit: 10}.Apply(all)
	assert.Len(t, got, 10)
	assert.Equal(t, 30, total)
	assert.Equal(t, "College 00", got[0].InstName)
}

func TestUnfiltered(t *testing.T) {
	assert.True(t, NewFilter("  ", "", 0, DefaultSearchLimit).Unfiltered())
	assert.False(t, NewFilter("", "a", 0, DefaultSearchLimit).Unfiltered())
}

// =========================================================================
// LIMITS
// =========================================================================

func TestClampLimit(t *testing.T) {
	tests := []struct {
		requested, def, want int
	}{
		{0, DefaultListLimit, 200},
		{-5, DefaultSuggestLimit, 10},
		{50, DefaultListLimit, 50},
		{10000, DefaultListLimit, MaxLimit},
		{MaxLimit, DefaultSearchLimit, MaxLimit},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClampLimit(tt.requested, tt.def), "requested=%d def=%d", tt.requested, tt.def)
	}
}

func TestLikePatterns(t *testing.T) {
	assert.Equal(t, "%cambridge%", LikeContains("Cambridge"))
	assert.Equal(t, `%100\%%`, LikeContains("100%"))
	assert.Equal(t, `a\_b%`, LikePrefix("A_B"))
}

func TestSuggest(t *testing.T) {
	got := Suggest(sample()[2:3])
	require.Len(t, got, 1)
	assert.Equal(t, Suggestion{ID: "3", Label: "Harvard University", Value: "Harvard University", Location: "Cambridge, MA"}, got[0])
	assert.NotNil(t, Suggest(nil))
}
