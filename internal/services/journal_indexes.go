package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/emoai-app/emoai-backend/internal/database"
)

// EnsureJournalIndexes creates the compound index backing the per-user
// "recent entries" query (filter by user_id, sort created_at descending).
func EnsureJournalIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := database.DB.Collection("journals").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
		Options: options.Index().SetName("user_id_created_at_desc"),
	})
	return err
}
