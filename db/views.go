package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// RecordView counts a view at most once per (post, visitor) within the
// suppression window. The window lives in Redis as a TTL'd key; the log
// collection stays append only. Returns whether the view was counted.
func (d *DB) RecordView(ctx context.Context, v *ViewDetail, visitorKey string, window time.Duration) (bool, error) {
	key := fmt.Sprintf("view:%s:%s", v.Slug, visitorKey)
	fresh, err := d.Redis.SetNX(key, 1, window).Result()
	if err != nil {
		return false, err
	}
	if !fresh {
		return false, nil
	}

	v.ID = primitive.NewObjectID()
	v.CreatedAt = time.Now().UTC()
	if _, err := d.Views.InsertOne(ctx, v); err != nil {
		return false, err
	}

	_, err = d.Posts.UpdateOne(ctx, bson.M{"slug": v.Slug},
		bson.M{"$inc": bson.M{"views": 1}})
	return true, err
}

func (d *DB) ViewsBySlug(ctx context.Context, slug string) ([]ViewDetail, error) {
	cur, err := d.Views.Find(ctx, bson.M{"slug": slug},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}

	views := []ViewDetail{}
	if err := cur.All(ctx, &views); err != nil {
		return nil, err
	}
	return views, nil
}
