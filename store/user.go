package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kevinaaaquil/poems/backend/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func (db *MongoDB) CreateUser(ctx context.Context, user *models.User) error {
	id, err := db.nextID(ctx, "users")
	if err != nil {
		return err
	}
	user.ID = id
	user.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	if _, err := db.Users().InsertOne(ctx, user); err != nil {
		user.ID = 0
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (db *MongoDB) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	return db.findUser(ctx, bson.M{"email": email})
}

func (db *MongoDB) UserByID(ctx context.Context, id int64) (*models.User, error) {
	return db.findUser(ctx, bson.M{"_id": id})
}

func (db *MongoDB) findUser(ctx context.Context, filter bson.M) (*models.User, error) {
	var u models.User
	err := db.Users().FindOne(ctx, filter).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &u, nil
}
