package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Journal represents a private journaling entry for a user. Entries are
// immutable once written; there is no update path.
type Journal struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    string             `bson:"user_id" json:"user_id"`
	Title     string             `bson:"title" json:"title"`
	Content   string             `bson:"content" json:"content"`
	Mood      *string            `bson:"mood" json:"mood"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
