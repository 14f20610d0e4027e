package db

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PostFilter narrows a post listing. Zero values mean "any".
type PostFilter struct {
	Search      string
	Category    primitive.ObjectID
	Subcategory primitive.ObjectID
	Author      primitive.ObjectID
	Status      string
	LikedBy     primitive.ObjectID
	DislikedBy  primitive.ObjectID
	Page        int
	Limit       int
}

// Store is the persistence contract the router runs against. Every mutation
// is a single-aggregate write; the implementation is expected to make the
// toggle, comment and view updates atomic at the document level.
type Store interface {
	CreateUser(ctx context.Context, u *User) error
	UserByName(ctx context.Context, username string) (*User, error)
	UserByID(ctx context.Context, id primitive.ObjectID) (*User, error)
	UsersByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]User, error)

	ListCategories(ctx context.Context) ([]Category, error)
	CategoryByID(ctx context.Context, id primitive.ObjectID) (*Category, error)
	CreateCategory(ctx context.Context, name string) (*Category, error)
	RenameCategory(ctx context.Context, id primitive.ObjectID, name string) (*Category, error)
	DeleteCategory(ctx context.Context, id primitive.ObjectID) error
	AddSubcategory(ctx context.Context, categoryID primitive.ObjectID, name string) (*Category, error)
	RenameSubcategory(ctx context.Context, categoryID, subID primitive.ObjectID, name string) (*Category, error)
	DeleteSubcategory(ctx context.Context, categoryID, subID primitive.ObjectID) (*Category, error)

	CreatePost(ctx context.Context, p *Post) error
	PostBySlug(ctx context.Context, slug string) (*Post, error)
	PostByID(ctx context.Context, id primitive.ObjectID) (*Post, error)
	SlugTaken(ctx context.Context, slug string, exclude primitive.ObjectID) (bool, error)
	ListPosts(ctx context.Context, f PostFilter) ([]Post, int64, error)
	UpdatePost(ctx context.Context, p *Post) error
	DeletePost(ctx context.Context, id primitive.ObjectID) error

	ToggleLike(ctx context.Context, slug string, userID primitive.ObjectID) (*Post, error)
	ToggleDislike(ctx context.Context, slug string, userID primitive.ObjectID) (*Post, error)

	AddComment(ctx context.Context, slug string, userID primitive.ObjectID, text string) (*Comment, error)
	EditComment(ctx context.Context, slug string, commentID, userID primitive.ObjectID, text string) error
	DeleteComment(ctx context.Context, slug string, commentID, userID primitive.ObjectID) error

	RecordView(ctx context.Context, v *ViewDetail, visitorKey string, window time.Duration) (bool, error)
	ViewsBySlug(ctx context.Context, slug string) ([]ViewDetail, error)
}

var _ Store = (*DB)(nil)
