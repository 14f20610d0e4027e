package db

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (d *DB) CreatePost(ctx context.Context, p *Post) error {
	p.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.LikedBy == nil {
		p.LikedBy = []primitive.ObjectID{}
	}
	if p.DislikedBy == nil {
		p.DislikedBy = []primitive.ObjectID{}
	}
	if p.Comments == nil {
		p.Comments = []Comment{}
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}

	_, err := d.Posts.InsertOne(ctx, p)
	if mongo.IsDuplicateKeyError(err) {
		return ErrConflict
	}
	return err
}

func (d *DB) PostBySlug(ctx context.Context, slug string) (*Post, error) {
	var p Post
	err := d.Posts.FindOne(ctx, bson.M{"slug": slug}).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (d *DB) PostByID(ctx context.Context, id primitive.ObjectID) (*Post, error) {
	var p Post
	err := d.Posts.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// SlugTaken reports whether a slug is already used by a post other than
// exclude. Pass the zero id when creating.
func (d *DB) SlugTaken(ctx context.Context, slug string, exclude primitive.ObjectID) (bool, error) {
	filter := bson.M{"slug": slug}
	if !exclude.IsZero() {
		filter["_id"] = bson.M{"$ne": exclude}
	}
	n, err := d.Posts.CountDocuments(ctx, filter)
	return n > 0, err
}

func (d *DB) ListPosts(ctx context.Context, f PostFilter) ([]Post, int64, error) {
	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Search != "" {
		filter["$or"] = bson.A{
			bson.M{"title": bson.M{"$regex": f.Search, "$options": "i"}},
			bson.M{"content": bson.M{"$regex": f.Search, "$options": "i"}},
		}
	}
	if !f.Category.IsZero() {
		filter["category"] = f.Category
	}
	if !f.Subcategory.IsZero() {
		filter["subcategory"] = f.Subcategory
	}
	if !f.Author.IsZero() {
		filter["author"] = f.Author
	}
	if !f.LikedBy.IsZero() {
		filter["likedBy"] = f.LikedBy
	}
	if !f.DislikedBy.IsZero() {
		filter["dislikedBy"] = f.DislikedBy
	}

	total, err := d.Posts.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	page, limit := f.Page, f.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cur, err := d.Posts.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	posts := []Post{}
	if err := cur.All(ctx, &posts); err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// UpdatePost persists the editable fields of a post. Engagement state
// (reactions, comments, views) is owned by its own atomic updates and is
// deliberately not written here.
func (d *DB) UpdatePost(ctx context.Context, p *Post) error {
	p.UpdatedAt = time.Now().UTC()

	set := bson.M{
		"title":     p.Title,
		"slug":      p.Slug,
		"content":   p.Content,
		"status":    p.Status,
		"category":  p.Category,
		"tags":      p.Tags,
		"featured":  p.Featured,
		"updatedAt": p.UpdatedAt,
	}
	update := bson.M{"$set": set}
	if p.Subcategory.IsZero() {
		update["$unset"] = bson.M{"subcategory": ""}
	} else {
		set["subcategory"] = p.Subcategory
	}

	res, err := d.Posts.UpdateOne(ctx, bson.M{"_id": p.ID}, update)
	if mongo.IsDuplicateKeyError(err) {
		return ErrConflict
	}
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *DB) DeletePost(ctx context.Context, id primitive.ObjectID) error {
	res, err := d.Posts.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ToggleLike flips the caller's like on the post addressed by slug and
// returns the updated document. The whole transition, including clearing the
// opposing set and recounting both counters, runs as one pipeline update so
// concurrent toggles cannot lose writes or expose a half-flipped state.
func (d *DB) ToggleLike(ctx context.Context, slug string, userID primitive.ObjectID) (*Post, error) {
	return d.toggleReaction(ctx, slug, "likedBy", "dislikedBy", userID)
}

// ToggleDislike is the mirror of ToggleLike.
func (d *DB) ToggleDislike(ctx context.Context, slug string, userID primitive.ObjectID) (*Post, error) {
	return d.toggleReaction(ctx, slug, "dislikedBy", "likedBy", userID)
}

func (d *DB) toggleReaction(ctx context.Context, slug, target, opposite string, userID primitive.ObjectID) (*Post, error) {
	cur := bson.D{{Key: "$ifNull", Value: bson.A{"$" + target, bson.A{}}}}
	opp := bson.D{{Key: "$ifNull", Value: bson.A{"$" + opposite, bson.A{}}}}
	without := bson.D{{Key: "$setDifference", Value: bson.A{cur, bson.A{userID}}}}

	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: target, Value: bson.D{{Key: "$cond", Value: bson.A{
				bson.D{{Key: "$in", Value: bson.A{userID, cur}}},
				without,
				bson.D{{Key: "$concatArrays", Value: bson.A{without, bson.A{userID}}}},
			}}}},
			{Key: opposite, Value: bson.D{{Key: "$setDifference", Value: bson.A{opp, bson.A{userID}}}}},
			{Key: "updatedAt", Value: "$$NOW"},
		}}},
		{{Key: "$set", Value: bson.D{
			{Key: "likes", Value: bson.D{{Key: "$size", Value: "$likedBy"}}},
			{Key: "dislikes", Value: bson.D{{Key: "$size", Value: "$dislikedBy"}}},
		}}},
	}

	var p Post
	err := d.Posts.FindOneAndUpdate(ctx, bson.M{"slug": slug}, pipeline, returnUpdated).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (d *DB) AddComment(ctx context.Context, slug string, userID primitive.ObjectID, text string) (*Comment, error) {
	c := Comment{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}

	res, err := d.Posts.UpdateOne(ctx, bson.M{"slug": slug},
		bson.M{"$push": bson.M{"comments": c}})
	if err != nil {
		return nil, err
	}
	if res.MatchedCount == 0 {
		return nil, ErrNotFound
	}
	return &c, nil
}

// EditComment updates a comment's text if and only if the caller authored it.
// The ownership check rides in the update filter, so the mutation stays a
// single atomic write; the slow path below only classifies the failure.
func (d *DB) EditComment(ctx context.Context, slug string, commentID, userID primitive.ObjectID, text string) error {
	res, err := d.Posts.UpdateOne(ctx,
		bson.M{"slug": slug, "comments": bson.M{"$elemMatch": bson.M{"_id": commentID, "userId": userID}}},
		bson.M{"$set": bson.M{"comments.$.text": text}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 1 {
		return nil
	}
	return d.classifyCommentMiss(ctx, slug, commentID)
}

func (d *DB) DeleteComment(ctx context.Context, slug string, commentID, userID primitive.ObjectID) error {
	res, err := d.Posts.UpdateOne(ctx, bson.M{"slug": slug},
		bson.M{"$pull": bson.M{"comments": bson.M{"_id": commentID, "userId": userID}}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	if res.ModifiedCount == 1 {
		return nil
	}
	return d.classifyCommentMiss(ctx, slug, commentID)
}

func (d *DB) classifyCommentMiss(ctx context.Context, slug string, commentID primitive.ObjectID) error {
	p, err := d.PostBySlug(ctx, slug)
	if err != nil {
		return err
	}
	if p.CommentByID(commentID) == nil {
		return ErrNotFound
	}
	return ErrForbidden
}
