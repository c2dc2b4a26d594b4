// Package catalog holds the college search rules shared by every store adapter.
//
// Three access patterns read the catalog:
//   - browse:  GET /api/colleges            (everything, optionally filtered)
//   - search:  GET /api/colleges/search     (nothing at all for an empty query)
//   - suggest: GET /api/colleges/suggestions (a handful of matches for autocomplete)
//
// They share one Filter. The free-text query is a case-insensitive substring
// match against name, city or state; the letter is a case-insensitive prefix
// match against the name only. When both are set they are ANDed. Results are
// always ordered by institution name.
package catalog

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"github.com/sakif/college-tracker/internal/model"
)

// Result caps. The requested limit is clamped to MaxLimit on every endpoint.
const (
	DefaultListLimit    = 200
	DefaultSearchLimit  = 20
	DefaultSuggestLimit = 10
	MaxLimit            = 500
)

// Filter selects catalog entries.
type Filter struct {
	Query  string
	Letter string
	Limit  int
}

// NewFilter trims the inputs and clamps the limit against def.
func NewFilter(query, letter string, limit, def int) Filter {
	return Filter{
		Query:  strings.TrimSpace(query),
		Letter: strings.TrimSpace(letter),
		Limit:  ClampLimit(limit, def),
	}
}

// ClampLimit returns def for a non-positive request and never more than MaxLimit.
func ClampLimit(requested, def int) int {
	if requested <= 0 {
		requested = def
	}
	if requested > MaxLimit {
		requested = MaxLimit
	}
	return requested
}

// Unfiltered reports whether neither a query nor a letter was given.
func (f Filter) Unfiltered() bool {
	return f.Query == "" && f.Letter == ""
}

// Fold maps s to its Unicode case-folded form, so "ÉCOLE" and "école" compare equal.
// A Caser keeps state, so a fresh one is used per call.
func Fold(s string) string {
	return cases.Fold().String(s)
}

// Match is the reference predicate: the store adapters translate the same
// rules into SQL or a document query.
func (f Filter) Match(c model.College) bool {
	if q := Fold(f.Query); q != "" {
		if !strings.Contains(Fold(c.InstName), q) &&
			!strings.Contains(Fold(c.City), q) &&
			!strings.Contains(Fold(c.State), q) {
			return false
		}
	}
	if l := Fold(f.Letter); l != "" && !strings.HasPrefix(Fold(c.InstName), l) {
		return false
	}
	return true
}

// Apply filters, sorts and truncates an in-memory slice. The total returned
// is the match count before truncation.
func (f Filter) Apply(all []model.College) ([]model.College, int) {
	out := make([]model.College, 0)
	for _, c := range all {
		if f.Match(c) {
			out = append(out, c)
		}
	}
	SortByName(out)
	total := len(out)
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, total
}

// SortByName orders colleges ascending by institution name.
func SortByName(cs []model.College) {
	sort.SliceStable(cs, func(i, j int) bool {
		return cs[i].InstName < cs[j].InstName
	})
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// LikeContains is the folded LIKE pattern for a substring match (ESCAPE '\').
func LikeContains(s string) string {
	return "%" + likeEscaper.Replace(Fold(s)) + "%"
}

// LikePrefix is the folded LIKE pattern for a prefix match (ESCAPE '\').
func LikePrefix(s string) string {
	return likeEscaper.Replace(Fold(s)) + "%"
}

// Suggestion is the lightweight autocomplete entry.
type Suggestion struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Value    string `json:"value"`
	Location string `json:"location"`
}

// Suggest maps colleges to autocomplete entries.
func Suggest(cs []model.College) []Suggestion {
	out := make([]Suggestion, 0, len(cs))
	for _, c := range cs {
		out = append(out, Suggestion{
			ID:       c.ID,
			Label:    c.DisplayName(),
			Value:    c.DisplayName(),
			Location: c.DisplayLocation(),
		})
	}
	return out
}
