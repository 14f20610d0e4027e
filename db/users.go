package db

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// CreateUser inserts a new user. The username is unique; a duplicate maps to
// ErrConflict.
func (d *DB) CreateUser(ctx context.Context, u *User) error {
	u.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	_, err := d.Users.InsertOne(ctx, u)
	if mongo.IsDuplicateKeyError(err) {
		return ErrConflict
	}
	return err
}

func (d *DB) UserByName(ctx context.Context, username string) (*User, error) {
	var u User
	err := d.Users.FindOne(ctx, bson.M{"username": username}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (d *DB) UserByID(ctx context.Context, id primitive.ObjectID) (*User, error) {
	var u User
	err := d.Users.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UsersByIDs fetches the given users in one round trip, keyed by id. Missing
// ids are simply absent from the result.
func (d *DB) UsersByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]User, error) {
	out := make(map[primitive.ObjectID]User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	cur, err := d.Users.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	var users []User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}
