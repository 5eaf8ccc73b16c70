package models

import "time"

// Favorite marks a poem as liked by a user. The (UserID, PoemID) pair is unique.
type Favorite struct {
	UserID    int64     `bson:"user_id" json:"user_id"`
	PoemID    int64     `bson:"poem_id" json:"poem_id"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
