package router

import "github.com/blogware/blog-backend/db"

type MessageResponse struct {
	Message string `json:"message"`
}

type UserInfo struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

type AuthResponse struct {
	Message string   `json:"message"`
	User    UserInfo `json:"user"`
}

type MeResponse struct {
	User UserInfo `json:"user"`
}

type LikeResponse struct {
	Message string `json:"message"`
	Likes   int    `json:"likes"`
	Liked   bool   `json:"liked"`
}

type DislikeResponse struct {
	Message  string `json:"message"`
	Dislikes int    `json:"dislikes"`
	Disliked bool   `json:"disliked"`
}

type ViewResponse struct {
	Status  string `json:"status"`
	Counted bool   `json:"counted"`
}

// PostView is a post decorated with the caller's reaction state and the
// resolved author and subcategory names.
type PostView struct {
	db.Post
	Liked           bool   `json:"liked"`
	Disliked        bool   `json:"disliked"`
	AuthorName      string `json:"authorName,omitempty"`
	SubcategoryName string `json:"subcategoryName,omitempty"`
}

type PostResponse struct {
	Message string   `json:"message,omitempty"`
	Post    PostView `json:"post"`
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

type ListPostsResponse struct {
	Posts      []PostView `json:"posts"`
	Pagination Pagination `json:"pagination"`
}

type CategoryResponse struct {
	Message  string      `json:"message,omitempty"`
	Category db.Category `json:"category"`
}

type ListCategoriesResponse struct {
	Categories []db.Category `json:"categories"`
}

type CommentView struct {
	db.Comment
	Author string `json:"author"`
}

type CommentsResponse struct {
	Comments []CommentView `json:"comments"`
}

type CommentResponse struct {
	Message string     `json:"message"`
	Comment db.Comment `json:"comment"`
}

type AnalyticsResponse struct {
	Views       int64           `json:"views"`
	ViewDetails []db.ViewDetail `json:"viewDetails"`
}
