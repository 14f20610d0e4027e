package db

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleUser       = "user"
	RoleAdmin      = "admin"
	RoleSuperadmin = "superadmin"
)

const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username  string             `bson:"username" json:"username"`
	Password  string             `bson:"password" json:"-"`
	Role      string             `bson:"role" json:"role"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Subcategory lives inside its parent category, it is never a top level
// document.
type Subcategory struct {
	ID   primitive.ObjectID `bson:"_id" json:"id"`
	Name string             `bson:"name" json:"name"`
}

type Category struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name          string             `bson:"name" json:"name"`
	Subcategories []Subcategory      `bson:"subcategories" json:"subcategories"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Comment is embedded in the post it belongs to.
type Comment struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	Text      string             `bson:"text" json:"text"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// Post is the aggregate mutated as a unit: reactions and comments are part of
// the document itself.
type Post struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Title       string               `bson:"title" json:"title"`
	Slug        string               `bson:"slug" json:"slug"`
	Content     string               `bson:"content" json:"content"`
	Status      string               `bson:"status" json:"status"`
	Views       int64                `bson:"views" json:"views"`
	Likes       int                  `bson:"likes" json:"likes"`
	LikedBy     []primitive.ObjectID `bson:"likedBy" json:"-"`
	Dislikes    int                  `bson:"dislikes" json:"dislikes"`
	DislikedBy  []primitive.ObjectID `bson:"dislikedBy" json:"-"`
	Author      primitive.ObjectID   `bson:"author" json:"author"`
	Category    primitive.ObjectID   `bson:"category" json:"category"`
	Subcategory primitive.ObjectID   `bson:"subcategory,omitempty" json:"subcategory,omitempty"`
	Tags        []string             `bson:"tags" json:"tags"`
	Featured    bool                 `bson:"featured" json:"featured"`
	Comments    []Comment            `bson:"comments" json:"comments"`
	CreatedAt   time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// ViewDetail is one analytics log entry. Entries are append only.
type ViewDetail struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Slug      string              `bson:"slug" json:"slug"`
	UserID    *primitive.ObjectID `bson:"userId,omitempty" json:"userId,omitempty"`
	SessionID string              `bson:"sessionId" json:"sessionId"`
	IP        string              `bson:"ip" json:"ip"`
	UserAgent string              `bson:"userAgent" json:"userAgent"`
	Device    string              `bson:"device" json:"device"`
	Browser   string              `bson:"browser" json:"browser"`
	OS        string              `bson:"os" json:"os"`
	Country   string              `bson:"country" json:"country"`
	Region    string              `bson:"region" json:"region"`
	City      string              `bson:"city" json:"city"`
	Referer   string              `bson:"referer" json:"referer"`
	CreatedAt time.Time           `bson:"createdAt" json:"createdAt"`
}

// ToggleLike flips userID's membership in the likedBy set and reports the new
// state. Membership in dislikedBy is always cleared so a user never holds
// both reactions on one post. Counters are recomputed from set size, never
// incremented, so they cannot drift.
func (p *Post) ToggleLike(userID primitive.ObjectID) (liked bool) {
	had := containsID(p.LikedBy, userID)
	p.DislikedBy = removeID(p.DislikedBy, userID)
	if had {
		p.LikedBy = removeID(p.LikedBy, userID)
	} else {
		p.LikedBy = append(p.LikedBy, userID)
	}
	p.Likes = len(p.LikedBy)
	p.Dislikes = len(p.DislikedBy)
	return !had
}

// ToggleDislike is the mirror of ToggleLike.
func (p *Post) ToggleDislike(userID primitive.ObjectID) (disliked bool) {
	had := containsID(p.DislikedBy, userID)
	p.LikedBy = removeID(p.LikedBy, userID)
	if had {
		p.DislikedBy = removeID(p.DislikedBy, userID)
	} else {
		p.DislikedBy = append(p.DislikedBy, userID)
	}
	p.Likes = len(p.LikedBy)
	p.Dislikes = len(p.DislikedBy)
	return !had
}

// LikedByUser reports whether userID currently likes the post.
func (p *Post) LikedByUser(userID primitive.ObjectID) bool {
	return containsID(p.LikedBy, userID)
}

// DislikedByUser reports whether userID currently dislikes the post.
func (p *Post) DislikedByUser(userID primitive.ObjectID) bool {
	return containsID(p.DislikedBy, userID)
}

// CommentByID returns the embedded comment with the given id, or nil.
func (p *Post) CommentByID(id primitive.ObjectID) *Comment {
	for i := range p.Comments {
		if p.Comments[i].ID == id {
			return &p.Comments[i]
		}
	}
	return nil
}

// AppendComment adds a comment with a fresh id and timestamp.
func (p *Post) AppendComment(userID primitive.ObjectID, text string) Comment {
	c := Comment{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	p.Comments = append(p.Comments, c)
	return c
}

// RemoveComment deletes the comment with the given id in place.
func (p *Post) RemoveComment(id primitive.ObjectID) bool {
	for i := range p.Comments {
		if p.Comments[i].ID == id {
			p.Comments = append(p.Comments[:i], p.Comments[i+1:]...)
			return true
		}
	}
	return false
}

// NormalizeName trims and lowercases a taxonomy name. Uniqueness checks
// compare normalized names, so "News" and "news" collide.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// SubcategoryByID returns the embedded subcategory with the given id, or nil.
func (c *Category) SubcategoryByID(id primitive.ObjectID) *Subcategory {
	for i := range c.Subcategories {
		if c.Subcategories[i].ID == id {
			return &c.Subcategories[i]
		}
	}
	return nil
}

// HasSubcategoryNamed reports whether the category already owns a subcategory
// with the given normalized name.
func (c *Category) HasSubcategoryNamed(name string) bool {
	name = NormalizeName(name)
	for i := range c.Subcategories {
		if c.Subcategories[i].Name == name {
			return true
		}
	}
	return false
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func removeID(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
