package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// College is one entry of the shared college catalog.
//
// The attribute names mirror the public college-scorecard columns
// (INSTNM, CITY, STABBR, ...) because that is the shape the catalog was
// imported in and the shape clients already send to the admin endpoints.
// Numeric attributes are pointers: a nil value means "not reported",
// which is different from zero.
type College struct {
	ID         string   `json:"id"          bson:"_id"`
	InstName   string   `json:"INSTNM"      bson:"INSTNM"`
	City       string   `json:"CITY"        bson:"CITY"`
	State      string   `json:"STABBR"      bson:"STABBR"`
	Zip        string   `json:"ZIP"         bson:"ZIP"`
	URL        string   `json:"INSTURL"     bson:"INSTURL"`
	Control    *int     `json:"CONTROL"     bson:"CONTROL"`
	AdmRate    *float64 `json:"ADM_RATE"    bson:"ADM_RATE"`
	GradRate   *float64 `json:"GRAD_RATE"   bson:"GRAD_RATE"`
	SATAvg     *float64 `json:"SAT_AVG"     bson:"SAT_AVG"`
	Tuition    *float64 `json:"TUITION"     bson:"TUITION"`
	TuitionIn  *float64 `json:"TUITION_IN"  bson:"TUITION_IN"`
	TuitionOut *float64 `json:"TUITION_OUT" bson:"TUITION_OUT"`
}

// DisplayName is the name shown in lists. Today it is always the
// institution name; it exists so every consumer asks the same function.
func (c College) DisplayName() string {
	return c.InstName
}

// DisplayLocation joins city and state as "City, ST", skipping empty parts.
func (c College) DisplayLocation() string {
	return JoinLocation(c.City, c.State)
}

// AcceptanceRate formats ADM_RATE (a 0-1 fraction) as a percentage with one
// decimal place. nil when the rate was not reported.
func (c College) AcceptanceRate() *string {
	if c.AdmRate == nil {
		return nil
	}
	s := fmt.Sprintf("%.1f%%", *c.AdmRate*100)
	return &s
}

// GraduationRate formats GRAD_RATE as a percentage. Historical rows store
// either a fraction (0.92) or an already-scaled percentage (92): values <= 1
// are scaled, anything larger is taken as is.
func (c College) GraduationRate() *string {
	if c.GradRate == nil {
		return nil
	}
	rate := *c.GradRate
	if rate <= 1 {
		rate *= 100
	}
	s := fmt.Sprintf("%.1f%%", rate)
	return &s
}

// JoinLocation builds "City, ST" from its parts, omitting empty ones.
// Shared by the catalog view and the saved-record normalizer.
func JoinLocation(city, state string) string {
	parts := make([]string, 0, 2)
	for _, p := range []string{city, state} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.TrimSpace(strings.Join(parts, ", "))
}

// collegeFields breaks the MarshalJSON recursion: it has College's fields
// but none of its methods.
type collegeFields College

// MarshalJSON emits the stored attributes plus the derived display fields,
// so API responses never need to recompute them by hand.
func (c College) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		collegeFields
		Name           string  `json:"name"`
		Location       string  `json:"location"`
		AcceptanceRate *string `json:"acceptanceRate"`
		GraduationRate *string `json:"graduationRate"`
	}{
		collegeFields:  collegeFields(c),
		Name:           c.DisplayName(),
		Location:       c.DisplayLocation(),
		AcceptanceRate: c.AcceptanceRate(),
		GraduationRate: c.GraduationRate(),
	})
}
