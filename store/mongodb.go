package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoDB implements Store on MongoDB. Ids are int64 sequences kept in the
// counters collection so both backends order the feed the same way.
type MongoDB struct {
	Client   *mongo.Client
	Database *mongo.Database
}

func NewMongoDB(ctx context.Context, uri, dbName string) (*MongoDB, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	db := &MongoDB{
		Client:   client,
		Database: client.Database(dbName),
	}
	if err := db.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return db, nil
}

func (db *MongoDB) Users() *mongo.Collection {
	return db.Database.Collection("users")
}

func (db *MongoDB) Poems() *mongo.Collection {
	return db.Database.Collection("poems")
}

func (db *MongoDB) Favorites() *mongo.Collection {
	return db.Database.Collection("favorites")
}

func (db *MongoDB) Counters() *mongo.Collection {
	return db.Database.Collection("counters")
}

// EnsureIndexes creates the unique indexes the store relies on: one account
// per email and one favorite per (user, poem).
func (db *MongoDB) EnsureIndexes(ctx context.Context) error {
	if _, err := db.Users().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("users index: %w", err)
	}
	if _, err := db.Poems().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}},
	}); err != nil {
		return fmt.Errorf("poems index: %w", err)
	}
	if _, err := db.Favorites().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "poem_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "poem_id", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("favorites index: %w", err)
	}
	return nil
}

// nextID atomically increments and returns the named sequence.
func (db *MongoDB) nextID(ctx context.Context, name string) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	err := db.Counters().FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		opts,
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("next %s id: %w", name, err)
	}
	return counter.Seq, nil
}

func (db *MongoDB) Close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return db.Client.Disconnect(ctx)
}
