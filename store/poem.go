package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/kevinaaaquil/poems/backend/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func (db *MongoDB) InsertPoem(ctx context.Context, poem *models.Poem) error {
	id, err := db.nextID(ctx, "poems")
	if err != nil {
		return err
	}
	poem.ID = id
	poem.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	if _, err := db.Poems().InsertOne(ctx, poem); err != nil {
		poem.ID = 0
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// poemPipeline filters, orders and joins each poem to its owner. The search
// text is matched literally (regexp.QuoteMeta), case-insensitively.
func poemPipeline(q models.PoemQuery) mongo.Pipeline {
	var pipeline mongo.Pipeline
	if q.Search != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(q.Search), Options: "i"}
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: bson.M{"$or": bson.A{
			bson.M{"title": re},
			bson.M{"content": re},
			bson.M{"tags": re},
		}}}})
	}
	dir := -1
	if q.Ascending() {
		dir = 1
	}
	return append(pipeline,
		bson.D{{Key: "$sort", Value: bson.D{{Key: "_id", Value: dir}}}},
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":         "users",
			"localField":   "user_id",
			"foreignField": "_id",
			"as":           "owner",
		}}},
		bson.D{{Key: "$unwind", Value: "$owner"}},
	)
}

type poemWithOwner struct {
	models.Poem `bson:",inline"`
	Owner       struct {
		Name string `bson:"name"`
	} `bson:"owner"`
}

func (db *MongoDB) ListPoems(ctx context.Context, q models.PoemQuery) ([]models.Poem, error) {
	cur, err := db.Poems().Aggregate(ctx, poemPipeline(q))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer cur.Close(ctx)

	var rows []poemWithOwner
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	poems := make([]models.Poem, 0, len(rows))
	for _, row := range rows {
		p := row.Poem
		p.Author = models.AuthorName(p.Anonymous, row.Owner.Name)
		poems = append(poems, p)
	}
	return poems, nil
}

func (db *MongoDB) PoemByID(ctx context.Context, id int64) (*models.Poem, error) {
	var poem models.Poem
	err := db.Poems().FindOne(ctx, bson.M{"_id": id}).Decode(&poem)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &poem, nil
}

// DeletePoem removes the poem, then its favorites. A failure between the two
// leaves orphaned favorites that no query reads.
func (db *MongoDB) DeletePoem(ctx context.Context, id int64) error {
	res, err := db.Poems().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	if _, err := db.Favorites().DeleteMany(ctx, bson.M{"poem_id": id}); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
