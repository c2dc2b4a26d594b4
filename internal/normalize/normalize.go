// Package normalize turns saved-record payloads into the canonical SavedRecord shape.
//
// Clients have sent saved records in several shapes over time: the current
// lowerCamel keys ("name", "deadline", ...) and older upper-case aliases
// copied straight from catalog rows ("INSTNM", "INSTURL", ...). Every logical
// field is resolved with the same precedence: canonical key, then legacy
// alias, then a default. Nothing here touches HTTP or storage, so the rules
// can be tested on plain maps.
package normalize

import (
	"strconv"
	"strings"

	"github.com/rs/xid"

	"github.com/sakif/college-tracker/internal/apperror"
	"github.com/sakif/college-tracker/internal/model"
)

// Payload is a decoded JSON object as received from a client.
type Payload map[string]any

// Key lists per logical field, canonical first.
var (
	nameKeys     = []string{"name", "INSTNM"}
	deadlineKeys = []string{"deadline", "DEADLINE"}
	locationKeys = []string{"location", "LOCATION"}
	cityKeys     = []string{"city", "CITY"}
	stateKeys    = []string{"state", "STABBR"}
	websiteKeys  = []string{"website", "INSTURL"}
	notesKeys    = []string{"notes", "NOTES"}

	applicationStatusKeys    = []string{"applicationStatus"}
	essayStatusKeys          = []string{"essayStatus"}
	recommendationStatusKeys = []string{"recommendationStatus"}

	extrasKey = "extras"
)

// NewRecord builds the record to insert from a creation payload.
// Owner, id and timestamps are left for the store to fill in.
func NewRecord(p Payload) (*model.SavedRecord, error) {
	name, _ := p.lookupTrimmed(nameKeys)
	if name == "" {
		return nil, apperror.ValidationFailed("name", "name is required")
	}

	deadline, _ := p.lookup(deadlineKeys)
	website, _ := p.lookup(websiteKeys)
	notes, _ := p.lookup(notesKeys)
	location, _ := p.location()
	appStatus, _ := p.lookup(applicationStatusKeys)
	essayStatus, _ := p.lookup(essayStatusKeys)
	recStatus, _ := p.lookup(recommendationStatusKeys)

	return &model.SavedRecord{
		Name:                 name,
		Deadline:             deadline,
		Location:             location,
		Website:              website,
		Notes:                notes,
		ApplicationStatus:    Status(appStatus),
		EssayStatus:          Status(essayStatus),
		RecommendationStatus: Status(recStatus),
		Extras:               Extras(p[extrasKey]),
	}, nil
}

// Patch is a partial update. A nil field means "leave the stored value alone".
type Patch struct {
	Name                 *string
	Deadline             *string
	Location             *string
	Website              *string
	Notes                *string
	ApplicationStatus    *string
	EssayStatus          *string
	RecommendationStatus *string
	Extras               *[]model.ExtraField
}

// NewPatch resolves an update payload. A field is only set when its
// canonical key or one of its aliases is present in the payload.
func NewPatch(p Payload) (Patch, error) {
	var patch Patch

	if name, present := p.lookupTrimmed(nameKeys); present {
		if name == "" {
			return Patch{}, apperror.ValidationFailed("name", "name is required")
		}
		patch.Name = &name
	}

	patch.Deadline = p.optional(deadlineKeys)
	patch.Website = p.optional(websiteKeys)
	patch.Notes = p.optional(notesKeys)

	// A blank location never overwrites a stored one.
	if loc, ok := p.location(); ok {
		patch.Location = &loc
	}

	patch.ApplicationStatus = p.status(applicationStatusKeys)
	patch.EssayStatus = p.status(essayStatusKeys)
	patch.RecommendationStatus = p.status(recommendationStatusKeys)

	if raw, ok := p[extrasKey]; ok {
		extras := Extras(raw)
		patch.Extras = &extras
	}

	return patch, nil
}

// Empty reports whether the patch would change nothing.
func (pt Patch) Empty() bool {
	return pt.Name == nil && pt.Deadline == nil && pt.Location == nil &&
		pt.Website == nil && pt.Notes == nil && pt.ApplicationStatus == nil &&
		pt.EssayStatus == nil && pt.RecommendationStatus == nil && pt.Extras == nil
}

// Apply copies the set fields onto rec. ID, OwnerID and CreatedAt are never touched.
func (pt Patch) Apply(rec *model.SavedRecord) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&rec.Name, pt.Name)
	set(&rec.Deadline, pt.Deadline)
	set(&rec.Location, pt.Location)
	set(&rec.Website, pt.Website)
	set(&rec.Notes, pt.Notes)
	set(&rec.ApplicationStatus, pt.ApplicationStatus)
	set(&rec.EssayStatus, pt.EssayStatus)
	set(&rec.RecommendationStatus, pt.RecommendationStatus)
	if pt.Extras != nil {
		rec.Extras = *pt.Extras
	}
}

// Status trims a status value; blank means model.StatusNotStarted.
// Unknown values are kept as they are.
func Status(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return model.StatusNotStarted
	}
	return v
}

// Name applies the same resolution to a bare name (the check-before-save
// lookup) that NewRecord applies to payloads.
func Name(v string) string {
	return strings.TrimSpace(v)
}

// lookup returns the first non-blank value among keys and whether any of
// the keys was present at all. Blankness is judged on the trimmed value but
// the value itself comes back untouched, so free text like notes keeps its
// indentation and trailing newlines.
func (p Payload) lookup(keys []string) (string, bool) {
	present := false
	for _, k := range keys {
		raw, ok := p[k]
		if !ok {
			continue
		}
		present = true
		if s := toString(raw); strings.TrimSpace(s) != "" {
			return s, true
		}
	}
	return "", present
}

// lookupTrimmed is lookup for identifying fields: names and locations.
func (p Payload) lookupTrimmed(keys []string) (string, bool) {
	v, present := p.lookup(keys)
	return strings.TrimSpace(v), present
}

func (p Payload) optional(keys []string) *string {
	v, present := p.lookup(keys)
	if !present {
		return nil
	}
	return &v
}

func (p Payload) status(keys []string) *string {
	v, present := p.lookup(keys)
	if !present {
		return nil
	}
	s := Status(v)
	return &s
}

// location prefers an explicit location string and otherwise composes one
// from city and state. ok is false when both come out blank.
func (p Payload) location() (string, bool) {
	if loc, _ := p.lookupTrimmed(locationKeys); loc != "" {
		return loc, true
	}
	city, _ := p.lookupTrimmed(cityKeys)
	state, _ := p.lookupTrimmed(stateKeys)
	if loc := model.JoinLocation(city, state); loc != "" {
		return loc, true
	}
	return "", false
}

// Extras coerces raw JSON into an ordered extras list. Anything that is not
// a list becomes an empty list, and list items that are not objects are
// dropped; malformed extras are never an error.
func Extras(raw any) []model.ExtraField {
	items, ok := raw.([]any)
	if !ok {
		return []model.ExtraField{}
	}

	out := make([]model.ExtraField, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		f := model.ExtraField{
			ID:    strings.TrimSpace(toString(obj["id"])),
			Label: toString(obj["label"]),
			Type:  extraType(obj["type"]),
		}
		if f.ID == "" {
			f.ID = xid.New().String()
		}
		f.Value = coerceValue(f.Type, obj["value"])
		out = append(out, f)
	}
	return out
}

func extraType(raw any) model.ExtraType {
	switch t := model.ExtraType(strings.ToLower(strings.TrimSpace(toString(raw)))); t {
	case model.ExtraNumber, model.ExtraFlag:
		return t
	default:
		return model.ExtraText
	}
}

func coerceValue(t model.ExtraType, raw any) any {
	switch t {
	case model.ExtraNumber:
		switch v := raw.(type) {
		case float64:
			return v
		case string:
			if n, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				return n
			}
		case bool:
			if v {
				return float64(1)
			}
		}
		return float64(0)
	case model.ExtraFlag:
		switch v := raw.(type) {
		case bool:
			return v
		case float64:
			return v != 0
		case string:
			b, _ := strconv.ParseBool(strings.TrimSpace(v))
			return b
		}
		return false
	default:
		return toString(raw)
	}
}

func toString(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}
