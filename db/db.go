package db

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/go-redis/redis"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/blogware/blog-backend/log"
)

// DB bundles the document store and the Redis client used for the view
// suppression window.
type DB struct {
	client     *mongo.Client
	Users      *mongo.Collection
	Categories *mongo.Collection
	Posts      *mongo.Collection
	Views      *mongo.Collection
	Redis      *redis.Client
}

func Init() (*DB, error) {
	mongoAddr := os.Getenv("MONGO_URL")
	if mongoAddr == "" {
		return nil, errors.New("$MONGO_URL not set")
	}
	redisAddr := os.Getenv("REDIS_URL")
	if redisAddr == "" {
		return nil, errors.New("$REDIS_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoAddr))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	rclient := redis.NewClient(&redis.Options{Addr: redisAddr})
	if err := rclient.Ping().Err(); err != nil {
		return nil, err
	}

	mdb := client.Database(databaseName())
	d := &DB{
		client:     client,
		Users:      mdb.Collection("users"),
		Categories: mdb.Collection("categories"),
		Posts:      mdb.Collection("posts"),
		Views:      mdb.Collection("analyticslogs"),
		Redis:      rclient,
	}

	log.Info.Printf("Creating indexes...\n")
	if err := d.ensureIndexes(ctx); err != nil {
		return nil, err
	}

	return d, nil
}

func (d *DB) Close(ctx context.Context) error {
	if err := d.Redis.Close(); err != nil {
		log.Warn.Printf("closing redis: %v", err)
	}
	return d.client.Disconnect(ctx)
}

func (d *DB) ensureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)

	models := map[*mongo.Collection][]mongo.IndexModel{
		d.Users: {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: unique},
		},
		d.Categories: {
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: unique},
		},
		d.Posts: {
			{Keys: bson.D{{Key: "slug", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		d.Views: {
			{Keys: bson.D{{Key: "slug", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
	}

	for coll, ms := range models {
		if _, err := coll.Indexes().CreateMany(ctx, ms); err != nil {
			return err
		}
	}
	return nil
}

func databaseName() string {
	if name := os.Getenv("MONGO_DB"); name != "" {
		return name
	}
	return "blog"
}
