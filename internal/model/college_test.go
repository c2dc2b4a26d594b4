package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestGraduationRate_DualEncoding(t *testing.T) {
	tests := []struct {
		name string
		rate *float64
		want *string
	}{
		{"fraction is scaled", ptr(0.92), ptr("92.0%")},
		{"percentage is kept", ptr(92.0), ptr("92.0%")},
		{"exactly one is a fraction", ptr(1.0), ptr("100.0%")},
		{"missing rate", nil, nil},
		{"zero", ptr(0.0), ptr("0.0%")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := College{GradRate: tt.rate}
			assert.Equal(t, tt.want, c.GraduationRate())
		})
	}
}

func TestAcceptanceRate(t *testing.T) {
	assert.Nil(t, College{}.AcceptanceRate())
	assert.Equal(t, "4.3%", *College{AdmRate: ptr(0.0434)}.AcceptanceRate())
	assert.Equal(t, "100.0%", *College{AdmRate: ptr(1.0)}.AcceptanceRate())
}

func TestDisplayLocation(t *testing.T) {
	tests := []struct {
		city, state, want string
	}{
		{"Cambridge", "MA", "Cambridge, MA"},
		{"", "MA", "MA"},
		{"Cambridge", "", "Cambridge"},
		{"  ", "  ", ""},
		{" Palo Alto ", "CA ", "Palo Alto, CA"},
	}
	for _, tt := range tests {
		c := College{City: tt.city, State: tt.state}
		assert.Equal(t, tt.want, c.DisplayLocation(), "city=%q state=%q", tt.city, tt.state)
	}
}

func TestCollegeMarshalJSON_IncludesDerivedFields(t *testing.T) {
	c := College{
		ID:       "c1",
		InstName: "Harvard University",
		City:     "Cambridge",
		State:    "MA",
		AdmRate:  ptr(0.0324),
		GradRate: ptr(98.0),
	}

	raw, err := json.Marshal(c)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))

	assert.Equal(t, "c1", got["id"])
	assert.Equal(t, "Harvard University", got["INSTNM"])
	assert.Equal(t, "Harvard University", got["name"])
	assert.Equal(t, "Cambridge, MA", got["location"])
	assert.Equal(t, "3.2%", got["acceptanceRate"])
	assert.Equal(t, "98.0%", got["graduationRate"])
	assert.Nil(t, got["SAT_AVG"])
}

func TestCollegeUnmarshal_UpperCaseKeys(t *testing.T) {
	var c College
	err := json.Unmarshal([]byte(`{"INSTNM":"MIT","CITY":"Cambridge","STABBR":"MA","CONTROL":1,"ADM_RATE":0.04}`), &c)
	require.NoError(t, err)

	assert.Equal(t, "MIT", c.InstName)
	require.NotNil(t, c.Control)
	assert.Equal(t, 1, *c.Control)
	require.NotNil(t, c.AdmRate)
	assert.InDelta(t, 0.04, *c.AdmRate, 1e-9)
}
