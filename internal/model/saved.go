package model

import "time"

// StatusNotStarted is the default for every status field of a saved record.
const StatusNotStarted = "Not Started"

// ExtraType is the value type of a user-defined extra field.
type ExtraType string

const (
	ExtraText   ExtraType = "text"
	ExtraNumber ExtraType = "number"
	ExtraFlag   ExtraType = "flag"
)

// ExtraField is one user-defined field attached to a saved record.
// Value holds a string, float64 or bool depending on Type.
type ExtraField struct {
	ID    string    `json:"id"    bson:"id"`
	Label string    `json:"label" bson:"label"`
	Type  ExtraType `json:"type"  bson:"type"`
	Value any       `json:"value" bson:"value"`
}

// SavedRecord is a college a user is tracking, with their application progress.
//
// (OwnerID, Name) is unique: a user cannot save the same college twice.
// OwnerID and CreatedAt never change after creation. Deadline is free-form
// text on purpose; clients usually send YYYY-MM-DD but nothing enforces it.
type SavedRecord struct {
	ID                   string       `json:"id"                   bson:"_id"`
	OwnerID              string       `json:"ownerId"              bson:"owner_id"`
	Name                 string       `json:"name"                 bson:"name"`
	Deadline             string       `json:"deadline"             bson:"deadline"`
	Location             string       `json:"location"             bson:"location"`
	Website              string       `json:"website"              bson:"website"`
	Notes                string       `json:"notes"                bson:"notes"`
	ApplicationStatus    string       `json:"applicationStatus"    bson:"application_status"`
	EssayStatus          string       `json:"essayStatus"          bson:"essay_status"`
	RecommendationStatus string       `json:"recommendationStatus" bson:"recommendation_status"`
	Extras               []ExtraField `json:"extras"               bson:"extras"`
	CreatedAt            time.Time    `json:"createdAt"            bson:"created_at"`
	UpdatedAt            time.Time    `json:"updatedAt"            bson:"updated_at"`
}
