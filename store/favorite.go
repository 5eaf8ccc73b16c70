package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AddFavorite upserts the (user, poem) pair. Losing an upsert race to the
// unique index is the same as the pair already existing.
func (db *MongoDB) AddFavorite(ctx context.Context, userID, poemID int64) error {
	n, err := db.Poems().CountDocuments(ctx, bson.M{"_id": poemID}, options.Count().SetLimit(1))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	filter := bson.M{"user_id": userID, "poem_id": poemID}
	update := bson.M{"$setOnInsert": bson.M{"created_at": time.Now().UTC()}}
	_, err = db.Favorites().UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (db *MongoDB) RemoveFavorite(ctx context.Context, userID, poemID int64) error {
	_, err := db.Favorites().DeleteOne(ctx, bson.M{"user_id": userID, "poem_id": poemID})
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
