package router

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/blogware/blog-backend/db"
)

// memStore is an in-memory db.Store for handler tests. It reuses the model
// methods so its semantics track the real store's.
type memStore struct {
	mu         sync.Mutex
	users      []*db.User
	categories []*db.Category
	posts      []*db.Post
	views      []db.ViewDetail
	seen       map[string]time.Time
}

var _ db.Store = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{seen: map[string]time.Time{}}
}

func (s *memStore) CreateUser(_ context.Context, u *db.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, x := range s.users {
		if x.Username == u.Username {
			return db.ErrConflict
		}
	}
	u.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	cp := *u
	s.users = append(s.users, &cp)
	return nil
}

func (s *memStore) UserByName(_ context.Context, username string) (*db.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, db.ErrNotFound
}

func (s *memStore) UserByID(_ context.Context, id primitive.ObjectID) (*db.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, db.ErrNotFound
}

func (s *memStore) UsersByIDs(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]db.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[primitive.ObjectID]db.User{}
	for _, id := range ids {
		for _, u := range s.users {
			if u.ID == id {
				out[id] = *u
			}
		}
	}
	return out, nil
}

func (s *memStore) ListCategories(_ context.Context) ([]db.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]db.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, *cloneCategory(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *memStore) CategoryByID(_ context.Context, id primitive.ObjectID) (*db.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.categoryByID(id)
	if c == nil {
		return nil, db.ErrNotFound
	}
	return cloneCategory(c), nil
}

func (s *memStore) CreateCategory(_ context.Context, name string) (*db.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	name = db.NormalizeName(name)
	for _, c := range s.categories {
		if c.Name == name {
			return nil, db.ErrConflict
		}
	}
	now := time.Now().UTC()
	c := &db.Category{
		ID:            primitive.NewObjectID(),
		Name:          name,
		Subcategories: []db.Subcategory{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	s.categories = append(s.categories, c)
	return cloneCategory(c), nil
}

func (s *memStore) RenameCategory(_ context.Context, id primitive.ObjectID, name string) (*db.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	name = db.NormalizeName(name)
	for _, c := range s.categories {
		if c.Name == name && c.ID != id {
			return nil, db.ErrConflict
		}
	}
	c := s.categoryByID(id)
	if c == nil {
		return nil, db.ErrNotFound
	}
	c.Name = name
	c.UpdatedAt = time.Now().UTC()
	return cloneCategory(c), nil
}

func (s *memStore) DeleteCategory(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.categories {
		if c.ID == id {
			s.categories = append(s.categories[:i], s.categories[i+1:]...)
			return nil
		}
	}
	return db.ErrNotFound
}

func (s *memStore) AddSubcategory(_ context.Context, categoryID primitive.ObjectID, name string) (*db.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.categoryByID(categoryID)
	if c == nil {
		return nil, db.ErrNotFound
	}
	if c.HasSubcategoryNamed(name) {
		return nil, db.ErrConflict
	}
	c.Subcategories = append(c.Subcategories, db.Subcategory{
		ID:   primitive.NewObjectID(),
		Name: db.NormalizeName(name),
	})
	c.UpdatedAt = time.Now().UTC()
	return cloneCategory(c), nil
}

func (s *memStore) RenameSubcategory(_ context.Context, categoryID, subID primitive.ObjectID, name string) (*db.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.categoryByID(categoryID)
	if c == nil {
		return nil, db.ErrNotFound
	}
	sub := c.SubcategoryByID(subID)
	if sub == nil {
		return nil, db.ErrNotFound
	}
	name = db.NormalizeName(name)
	if sub.Name != name && c.HasSubcategoryNamed(name) {
		return nil, db.ErrConflict
	}
	sub.Name = name
	c.UpdatedAt = time.Now().UTC()
	return cloneCategory(c), nil
}

func (s *memStore) DeleteSubcategory(_ context.Context, categoryID, subID primitive.ObjectID) (*db.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.categoryByID(categoryID)
	if c == nil {
		return nil, db.ErrNotFound
	}
	for i := range c.Subcategories {
		if c.Subcategories[i].ID == subID {
			c.Subcategories = append(c.Subcategories[:i], c.Subcategories[i+1:]...)
			c.UpdatedAt = time.Now().UTC()
			return cloneCategory(c), nil
		}
	}
	return nil, db.ErrNotFound
}

func (s *memStore) CreatePost(_ context.Context, p *db.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, x := range s.posts {
		if x.Slug == p.Slug {
			return db.ErrConflict
		}
	}
	p.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	if p.LikedBy == nil {
		p.LikedBy = []primitive.ObjectID{}
	}
	if p.DislikedBy == nil {
		p.DislikedBy = []primitive.ObjectID{}
	}
	if p.Comments == nil {
		p.Comments = []db.Comment{}
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	s.posts = append(s.posts, clonePost(p))
	return nil
}

func (s *memStore) PostBySlug(_ context.Context, slug string) (*db.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.postBySlug(slug)
	if p == nil {
		return nil, db.ErrNotFound
	}
	return clonePost(p), nil
}

func (s *memStore) PostByID(_ context.Context, id primitive.ObjectID) (*db.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.posts {
		if p.ID == id {
			return clonePost(p), nil
		}
	}
	return nil, db.ErrNotFound
}

func (s *memStore) SlugTaken(_ context.Context, slug string, exclude primitive.ObjectID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.posts {
		if p.Slug == slug && p.ID != exclude {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) ListPosts(_ context.Context, f db.PostFilter) ([]db.Post, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := []*db.Post{}
	// newest first: posts are appended in creation order
	for i := len(s.posts) - 1; i >= 0; i-- {
		p := s.posts[i]
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		if f.Search != "" {
			needle := strings.ToLower(f.Search)
			if !strings.Contains(strings.ToLower(p.Title), needle) &&
				!strings.Contains(strings.ToLower(p.Content), needle) {
				continue
			}
		}
		if !f.Category.IsZero() && p.Category != f.Category {
			continue
		}
		if !f.Subcategory.IsZero() && p.Subcategory != f.Subcategory {
			continue
		}
		if !f.Author.IsZero() && p.Author != f.Author {
			continue
		}
		if !f.LikedBy.IsZero() && !p.LikedByUser(f.LikedBy) {
			continue
		}
		if !f.DislikedBy.IsZero() && !p.DislikedByUser(f.DislikedBy) {
			continue
		}
		matched = append(matched, p)
	}

	total := int64(len(matched))
	page, limit := f.Page, f.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	start := (page - 1) * limit
	if start > len(matched) {
		start = len(matched)
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}

	out := make([]db.Post, 0, end-start)
	for _, p := range matched[start:end] {
		out = append(out, *clonePost(p))
	}
	return out, total, nil
}

func (s *memStore) UpdatePost(_ context.Context, p *db.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, x := range s.posts {
		if x.Slug == p.Slug && x.ID != p.ID {
			return db.ErrConflict
		}
	}
	for _, x := range s.posts {
		if x.ID == p.ID {
			x.Title = p.Title
			x.Slug = p.Slug
			x.Content = p.Content
			x.Status = p.Status
			x.Category = p.Category
			x.Subcategory = p.Subcategory
			x.Tags = append([]string{}, p.Tags...)
			x.Featured = p.Featured
			x.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return db.ErrNotFound
}

func (s *memStore) DeletePost(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.posts {
		if p.ID == id {
			s.posts = append(s.posts[:i], s.posts[i+1:]...)
			return nil
		}
	}
	return db.ErrNotFound
}

func (s *memStore) ToggleLike(_ context.Context, slug string, userID primitive.ObjectID) (*db.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.postBySlug(slug)
	if p == nil {
		return nil, db.ErrNotFound
	}
	p.ToggleLike(userID)
	return clonePost(p), nil
}

func (s *memStore) ToggleDislike(_ context.Context, slug string, userID primitive.ObjectID) (*db.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.postBySlug(slug)
	if p == nil {
		return nil, db.ErrNotFound
	}
	p.ToggleDislike(userID)
	return clonePost(p), nil
}

func (s *memStore) AddComment(_ context.Context, slug string, userID primitive.ObjectID, text string) (*db.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.postBySlug(slug)
	if p == nil {
		return nil, db.ErrNotFound
	}
	c := p.AppendComment(userID, text)
	return &c, nil
}

func (s *memStore) EditComment(_ context.Context, slug string, commentID, userID primitive.ObjectID, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.postBySlug(slug)
	if p == nil {
		return db.ErrNotFound
	}
	c := p.CommentByID(commentID)
	if c == nil {
		return db.ErrNotFound
	}
	if c.UserID != userID {
		return db.ErrForbidden
	}
	c.Text = text
	return nil
}

func (s *memStore) DeleteComment(_ context.Context, slug string, commentID, userID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.postBySlug(slug)
	if p == nil {
		return db.ErrNotFound
	}
	c := p.CommentByID(commentID)
	if c == nil {
		return db.ErrNotFound
	}
	if c.UserID != userID {
		return db.ErrForbidden
	}
	p.RemoveComment(commentID)
	return nil
}

func (s *memStore) RecordView(_ context.Context, v *db.ViewDetail, visitorKey string, window time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := viewKey(v.Slug, visitorKey)
	if t, ok := s.seen[key]; ok && time.Since(t) < window {
		return false, nil
	}
	s.seen[key] = time.Now()

	v.ID = primitive.NewObjectID()
	v.CreatedAt = time.Now().UTC()
	s.views = append(s.views, *v)
	if p := s.postBySlug(v.Slug); p != nil {
		p.Views++
	}
	return true, nil
}

func (s *memStore) ViewsBySlug(_ context.Context, slug string) ([]db.ViewDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []db.ViewDetail{}
	for i := len(s.views) - 1; i >= 0; i-- {
		if s.views[i].Slug == slug {
			out = append(out, s.views[i])
		}
	}
	return out, nil
}

func (s *memStore) categoryByID(id primitive.ObjectID) *db.Category {
	for _, c := range s.categories {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (s *memStore) postBySlug(slug string) *db.Post {
	for _, p := range s.posts {
		if p.Slug == slug {
			return p
		}
	}
	return nil
}

func viewKey(slug, visitorKey string) string {
	return fmt.Sprintf("view:%s:%s", slug, visitorKey)
}

func clonePost(p *db.Post) *db.Post {
	cp := *p
	cp.LikedBy = append([]primitive.ObjectID{}, p.LikedBy...)
	cp.DislikedBy = append([]primitive.ObjectID{}, p.DislikedBy...)
	cp.Comments = append([]db.Comment{}, p.Comments...)
	cp.Tags = append([]string{}, p.Tags...)
	return &cp
}

func cloneCategory(c *db.Category) *db.Category {
	cp := *c
	cp.Subcategories = append([]db.Subcategory{}, c.Subcategories...)
	return &cp
}
