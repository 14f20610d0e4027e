package db

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var returnUpdated = options.FindOneAndUpdate().SetReturnDocument(options.After)

func (d *DB) ListCategories(ctx context.Context) ([]Category, error) {
	cur, err := d.Categories.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}

	cats := []Category{}
	if err := cur.All(ctx, &cats); err != nil {
		return nil, err
	}
	return cats, nil
}

func (d *DB) CategoryByID(ctx context.Context, id primitive.ObjectID) (*Category, error) {
	var c Category
	err := d.Categories.FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateCategory inserts a category under its normalized name. Names are
// stored lowercased, so the unique index enforces case-insensitive
// uniqueness.
func (d *DB) CreateCategory(ctx context.Context, name string) (*Category, error) {
	now := time.Now().UTC()
	c := &Category{
		ID:            primitive.NewObjectID(),
		Name:          NormalizeName(name),
		Subcategories: []Subcategory{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	_, err := d.Categories.InsertOne(ctx, c)
	if mongo.IsDuplicateKeyError(err) {
		return nil, ErrConflict
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (d *DB) RenameCategory(ctx context.Context, id primitive.ObjectID, name string) (*Category, error) {
	name = NormalizeName(name)

	// Another category may already hold the name.
	n, err := d.Categories.CountDocuments(ctx, bson.M{"name": name, "_id": bson.M{"$ne": id}})
	if err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, ErrConflict
	}

	var c Category
	err = d.Categories.FindOneAndUpdate(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"name": name, "updatedAt": time.Now().UTC()}},
		returnUpdated).Decode(&c)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// DeleteCategory removes the category together with its owned subcategories.
// Posts keep their now dangling references; readers resolve them best effort.
func (d *DB) DeleteCategory(ctx context.Context, id primitive.ObjectID) error {
	res, err := d.Categories.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *DB) AddSubcategory(ctx context.Context, categoryID primitive.ObjectID, name string) (*Category, error) {
	parent, err := d.CategoryByID(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	if parent.HasSubcategoryNamed(name) {
		return nil, ErrConflict
	}

	sub := Subcategory{ID: primitive.NewObjectID(), Name: NormalizeName(name)}

	var c Category
	err = d.Categories.FindOneAndUpdate(ctx, bson.M{"_id": categoryID},
		bson.M{
			"$push": bson.M{"subcategories": sub},
			"$set":  bson.M{"updatedAt": time.Now().UTC()},
		},
		returnUpdated).Decode(&c)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (d *DB) RenameSubcategory(ctx context.Context, categoryID, subID primitive.ObjectID, name string) (*Category, error) {
	parent, err := d.CategoryByID(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	if parent.SubcategoryByID(subID) == nil {
		return nil, ErrNotFound
	}
	name = NormalizeName(name)
	if sub := parent.SubcategoryByID(subID); sub.Name != name && parent.HasSubcategoryNamed(name) {
		return nil, ErrConflict
	}

	var c Category
	err = d.Categories.FindOneAndUpdate(ctx,
		bson.M{"_id": categoryID, "subcategories._id": subID},
		bson.M{"$set": bson.M{
			"subcategories.$.name": name,
			"updatedAt":            time.Now().UTC(),
		}},
		returnUpdated).Decode(&c)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (d *DB) DeleteSubcategory(ctx context.Context, categoryID, subID primitive.ObjectID) (*Category, error) {
	parent, err := d.CategoryByID(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	if parent.SubcategoryByID(subID) == nil {
		return nil, ErrNotFound
	}

	var c Category
	err = d.Categories.FindOneAndUpdate(ctx, bson.M{"_id": categoryID},
		bson.M{
			"$pull": bson.M{"subcategories": bson.M{"_id": subID}},
			"$set":  bson.M{"updatedAt": time.Now().UTC()},
		},
		returnUpdated).Decode(&c)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
