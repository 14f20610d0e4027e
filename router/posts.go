package router

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/gosimple/slug"
	"github.com/microcosm-cc/bluemonday"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/blogware/blog-backend/common"
	"github.com/blogware/blog-backend/db"
)

// sanitizer strips unsafe markup from post content before it is stored.
var sanitizer = bluemonday.UGCPolicy()

type postRequest struct {
	Title           string   `json:"title"`
	Content         string   `json:"content"`
	CategoryID      string   `json:"categoryId"`
	SubcategoryID   string   `json:"subcategoryId"`
	NewCategoryName string   `json:"newCategoryName"`
	Status          string   `json:"status"`
	Tags            []string `json:"tags"`
	Featured        bool     `json:"featured"`
}

func CreatePost() Handler {
	return func(rc *RouterContext, w http.ResponseWriter, r *http.Request) *HTTPError {
		uid, e := rc.callerID()
		if e != nil {
			return e
		}

		var req postRequest
		if e := decodeJSON(r, &req); e != nil {
			return e
		}
		if strings.TrimSpace(req.Title) == "" {
			return handleMissingDataError("title")
		}
		if strings.TrimSpace(req.Content) == "" {
			return handleMissingDataError("content")
		}
		status := req.Status
		if status == "" {
			status = db.StatusDraft
		}
		if status != db.StatusDraft && status != db.StatusPublished {
			return invalidData("unknown status")
		}
		if req.CategoryID != "" && req.NewCategoryName != "" {
			return invalidData("choose either an existing category or a new one")
		}

		var (
			category *db.Category
			err      error
		)
		switch {
		case req.CategoryID != "":
			catID, e := parseObjectID(req.CategoryID, "categoryId")
			if e != nil {
				return e
			}
			category, err = rc.store.CategoryByID(r.Context(), catID)
			if err != nil {
				return handleStoreError(err, "fetch", "category")
			}
		case req.NewCategoryName != "":
			category, err = rc.store.CreateCategory(r.Context(), req.NewCategoryName)
			if err != nil {
				return handleStoreError(err, "create", "category")
			}
		default:
			return handleMissingDataError("categoryId")
		}

		subID, e := resolveSubcategory(category, req.SubcategoryID)
		if e != nil {
			return e
		}

		postSlug, e := rc.uniqueSlug(r.Context(), req.Title, primitive.NilObjectID)
		if e != nil {
			return e
		}

		p := &db.Post{
			Title:       req.Title,
			Slug:        postSlug,
			Content:     sanitizer.Sanitize(req.Content),
			Status:      status,
			Author:      uid,
			Category:    category.ID,
			Subcategory: subID,
			Tags:        req.Tags,
			Featured:    req.Featured,
		}
		if err := rc.store.CreatePost(r.Context(), p); err != nil {
			return handleStoreError(err, "create", "post")
		}

		return writeJSON(w, http.StatusCreated, PostResponse{
			Message: "Post created",
			Post:    PostView{Post: *p},
		})
	}
}

// GetPost serves a single published post by slug, decorated with the
// caller's reaction state.
func GetPost() Handler {
	return func(rc *RouterContext, w http.ResponseWriter, r *http.Request) *HTTPError {
		p, e := rc.publishedPost(r)
		if e != nil {
			return e
		}

		views, e := rc.buildPostViews(r.Context(), []db.Post{*p})
		if e != nil {
			return e
		}
		return writeJSON(w, http.StatusOK, PostResponse{Post: views[0]})
	}
}

func ListPosts() Handler {
	return func(rc *RouterContext, w http.ResponseWriter, r *http.Request) *HTTPError {
		f, e := postFilterFromQuery(r)
		if e != nil {
			return e
		}

		return rc.servePostList(w, r, f)
	}
}

// ListReactedPosts serves the published posts the caller has liked, or
// disliked when liked is false.
func ListReactedPosts(liked bool) Handler {
	return func(rc *RouterContext, w http.ResponseWriter, r *http.Request) *HTTPError {
		uid, e := rc.callerID()
		if e != nil {
			return e
		}

		f := db.PostFilter{Status: db.StatusPublished}
		f.Page, f.Limit = pageParams(r)
		if liked {
			f.LikedBy = uid
		} else {
			f.DislikedBy = uid
		}

		return rc.servePostList(w, r, f)
	}
}

func UpdatePost() Handler {
	return func(rc *RouterContext, w http.ResponseWriter, r *http.Request) *HTTPError {
		uid, e := rc.callerID()
		if e != nil {
			return e
		}

		p, err := rc.store.PostBySlug(r.Context(), mux.Vars(r)["slug"])
		if err != nil {
			return handleStoreError(err, "fetch", "post")
		}
		if p.Author != uid {
			return handleStoreError(db.ErrForbidden, "update", "post")
		}

		var req postRequest
		if e := decodeJSON(r, &req); e != nil {
			return e
		}
		if strings.TrimSpace(req.Title) == "" {
			return handleMissingDataError("title")
		}
		if strings.TrimSpace(req.Content) == "" {
			return handleMissingDataError("content")
		}
		if req.CategoryID == "" {
			return handleMissingDataError("categoryId")
		}
		catID, e := parseObjectID(req.CategoryID, "categoryId")
		if e != nil {
			return e
		}
		category, err := rc.store.CategoryByID(r.Context(), catID)
		if err != nil {
			return handleStoreError(err, "fetch", "category")
		}
		subID, e := resolveSubcategory(category, req.SubcategoryID)
		if e != nil {
			return e
		}

		if req.Title != p.Title {
			newSlug, e := rc.uniqueSlug(r.Context(), req.Title, p.ID)
			if e != nil {
				return e
			}
			p.Slug = newSlug
		}

		p.Title = req.Title
		p.Content = sanitizer.Sanitize(req.Content)
		p.Category = category.ID
		p.Subcategory = subID
		if req.Status != "" {
			if req.Status != db.StatusDraft && req.Status != db.StatusPublished {
				return invalidData("unknown status")
			}
			p.Status = req.Status
		}
		if req.Tags != nil {
			p.Tags = req.Tags
		}
		p.Featured = req.Featured

		if err := rc.store.UpdatePost(r.Context(), p); err != nil {
			return handleStoreError(err, "update", "post")
		}

		return writeJSON(w, http.StatusOK, PostResponse{
			Message: "Post updated",
			Post:    PostView{Post: *p},
		})
	}
}

func DeletePost() Handler {
	return func(rc *RouterContext, w http.ResponseWriter, r *http.Request) *HTTPError {
		uid, e := rc.callerID()
		if e != nil {
			return e
		}

		p, err := rc.store.PostBySlug(r.Context(), mux.Vars(r)["slug"])
		if err != nil {
			return handleStoreError(err, "fetch", "post")
		}
		if p.Author != uid {
			return handleStoreError(db.ErrForbidden, "delete", "post")
		}

		if err := rc.store.DeletePost(r.Context(), p.ID); err != nil {
			return handleStoreError(err, "delete", "post")
		}
		return writeJSON(w, http.StatusOK, MessageResponse{Message: "Post deleted"})
	}
}

func (rc *RouterContext) servePostList(w http.ResponseWriter, r *http.Request, f db.PostFilter) *HTTPError {
	posts, total, err := rc.store.ListPosts(r.Context(), f)
	if err != nil {
		return handleStoreError(err, "list", "posts")
	}

	views, e := rc.buildPostViews(r.Context(), posts)
	if e != nil {
		return e
	}

	page, limit := f.Page, f.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	return writeJSON(w, http.StatusOK, ListPostsResponse{
		Posts: views,
		Pagination: Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: int((total + int64(limit) - 1) / int64(limit)),
		},
	})
}

// buildPostViews decorates posts with the caller's reaction state and the
// resolved author and subcategory names. Dangling category references
// resolve to an empty name rather than failing the read.
func (rc *RouterContext) buildPostViews(ctx context.Context, posts []db.Post) ([]PostView, *HTTPError) {
	authorIDs := make([]primitive.ObjectID, 0, len(posts))
	seen := map[primitive.ObjectID]bool{}
	for i := range posts {
		if !seen[posts[i].Author] {
			seen[posts[i].Author] = true
			authorIDs = append(authorIDs, posts[i].Author)
		}
	}

	authors, err := rc.store.UsersByIDs(ctx, authorIDs)
	if err != nil {
		return nil, handleStoreError(err, "fetch", "users")
	}

	cats, err := rc.store.ListCategories(ctx)
	if err != nil {
		return nil, handleStoreError(err, "list", "categories")
	}
	catByID := make(map[primitive.ObjectID]db.Category, len(cats))
	for _, c := range cats {
		catByID[c.ID] = c
	}

	var uid primitive.ObjectID
	if rc.user != nil {
		uid, _ = primitive.ObjectIDFromHex(rc.user.ID)
	}

	views := make([]PostView, 0, len(posts))
	for i := range posts {
		p := posts[i]
		v := PostView{Post: p}
		if !uid.IsZero() {
			v.Liked = p.LikedByUser(uid)
			v.Disliked = p.DislikedByUser(uid)
		}
		if a, ok := authors[p.Author]; ok {
			v.AuthorName = a.Username
		}
		if c, ok := catByID[p.Category]; ok && !p.Subcategory.IsZero() {
			if sub := c.SubcategoryByID(p.Subcategory); sub != nil {
				v.SubcategoryName = sub.Name
			}
		}
		views = append(views, v)
	}
	return views, nil
}

// uniqueSlug derives a slug from the title and appends a random suffix when
// the plain one is taken.
func (rc *RouterContext) uniqueSlug(ctx context.Context, title string, exclude primitive.ObjectID) (string, *HTTPError) {
	s := slug.Make(title)
	taken, err := rc.store.SlugTaken(ctx, s, exclude)
	if err != nil {
		return "", handleStoreError(err, "check slug for", "post")
	}
	if taken {
		s = s + "-" + common.RandomString(8)
	}
	return s, nil
}

func (rc *RouterContext) publishedPost(r *http.Request) (*db.Post, *HTTPError) {
	p, err := rc.store.PostBySlug(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		return nil, handleStoreError(err, "fetch", "post")
	}
	if p.Status != db.StatusPublished {
		return nil, handleStoreError(db.ErrNotFound, "fetch", "post")
	}
	return p, nil
}

func postFilterFromQuery(r *http.Request) (db.PostFilter, *HTTPError) {
	q := r.URL.Query()

	f := db.PostFilter{
		Search: q.Get("search"),
		Status: q.Get("status"),
	}
	if f.Status == "" {
		f.Status = db.StatusPublished
	}
	f.Page, f.Limit = pageParams(r)

	for name, dst := range map[string]*primitive.ObjectID{
		"category":    &f.Category,
		"subcategory": &f.Subcategory,
		"author":      &f.Author,
	} {
		if raw := q.Get(name); raw != "" {
			id, e := parseObjectID(raw, name)
			if e != nil {
				return f, e
			}
			*dst = id
		}
	}
	return f, nil
}

func pageParams(r *http.Request) (page, limit int) {
	q := r.URL.Query()
	page, _ = strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(q.Get("limit"))
	if limit < 1 || limit > 100 {
		limit = 10
	}
	return page, limit
}

func parseObjectID(raw, name string) (primitive.ObjectID, *HTTPError) {
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, &HTTPError{
			IError:    err,
			Level:     1,
			Status:    http.StatusBadRequest,
			ErrorCode: ErrInvalidData,
			Error:     "invalid " + name,
		}
	}
	return id, nil
}

func resolveSubcategory(category *db.Category, raw string) (primitive.ObjectID, *HTTPError) {
	if raw == "" {
		return primitive.NilObjectID, nil
	}
	subID, e := parseObjectID(raw, "subcategoryId")
	if e != nil {
		return primitive.NilObjectID, e
	}
	if category.SubcategoryByID(subID) == nil {
		return primitive.NilObjectID, invalidData("subcategory does not belong to the selected category")
	}
	return subID, nil
}

func invalidData(msg string) *HTTPError {
	return &HTTPError{
		IError:    errors.New(msg),
		Level:     1,
		Status:    http.StatusBadRequest,
		ErrorCode: ErrInvalidData,
		Error:     msg,
	}
}
