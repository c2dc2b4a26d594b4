// Package model defines the data structures used throughout the application.
package model

import "time"

// UserProfile is the local copy of an identity-provider account.
//
// UID is the provider's subject id and doubles as our primary key: the
// provider guarantees it is stable and unique, and every saved record refers
// to its owner by this value. Email and Name are pointers because the
// provider may not assert them at all (null), which is different from an
// empty string.
type UserProfile struct {
	UID       string    `json:"uid"       bson:"_id"`
	Email     *string   `json:"email"     bson:"email"`
	Name      *string   `json:"name"      bson:"name"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updated_at"`
}
