package router

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ToggleLike flips the caller's like on a post. A like placed while a
// dislike is held removes the dislike in the same write.
func ToggleLike() Handler {
	return func(rc *RouterContext, w http.ResponseWriter, r *http.Request) *HTTPError {
		uid, e := rc.callerID()
		if e != nil {
			return e
		}

		p, err := rc.store.ToggleLike(r.Context(), mux.Vars(r)["slug"], uid)
		if err != nil {
			return handleStoreError(err, "toggle like on", "post")
		}

		liked := p.LikedByUser(uid)
		msg := "Like removed"
		if liked {
			msg = "Liked"
		}
		return writeJSON(w, http.StatusOK, LikeResponse{
			Message: msg,
			Likes:   p.Likes,
			Liked:   liked,
		})
	}
}

func ToggleDislike() Handler {
	return func(rc *RouterContext, w http.ResponseWriter, r *http.Request) *HTTPError {
		uid, e := rc.callerID()
		if e != nil {
			return e
		}

		p, err := rc.store.ToggleDislike(r.Context(), mux.Vars(r)["slug"], uid)
		if err != nil {
			return handleStoreError(err, "toggle dislike on", "post")
		}

		disliked := p.DislikedByUser(uid)
		msg := "Dislike removed"
		if disliked {
			msg = "Disliked"
		}
		return writeJSON(w, http.StatusOK, DislikeResponse{
			Message:  msg,
			Dislikes: p.Dislikes,
			Disliked: disliked,
		})
	}
}

func ListComments() Handler {
	return func(rc *RouterContext, w http.ResponseWriter, r *http.Request) *HTTPError {
		p, err := rc.store.PostBySlug(r.Context(), mux.Vars(r)["slug"])
		if err != nil {
			return handleStoreError(err, "fetch", "post")
		}

		authorIDs := make([]primitive.ObjectID, 0, len(p.Comments))
		for _, c := range p.Comments {
			authorIDs = append(authorIDs, c.UserID)
		}
		authors, err := rc.store.UsersByIDs(r.Context(), authorIDs)
		if err != nil {
			return handleStoreError(err, "fetch", "users")
		}

		out := make([]CommentView, 0, len(p.Comments))
		for _, c := range p.Comments {
			out = append(out, CommentView{Comment: c, Author: authors[c.UserID].Username})
		}
		return writeJSON(w, http.StatusOK, CommentsResponse{Comments: out})
	}
}

type commentRequest struct {
	Text string `json:"text"`
}

func AddComment() Handler {
	return func(rc *RouterContext, w http.ResponseWriter, r *http.Request) *HTTPError {
		uid, e := rc.callerID()
		if e != nil {
			return e
		}

		var req commentRequest
		if e := decodeJSON(r, &req); e != nil {
			return e
		}
		text := strings.TrimSpace(req.Text)
		if text == "" {
			return handleMissingDataError("text")
		}

		c, err := rc.store.AddComment(r.Context(), mux.Vars(r)["slug"], uid, text)
		if err != nil {
			return handleStoreError(err, "comment on", "post")
		}

		return writeJSON(w, http.StatusCreated, CommentResponse{
			Message: "Comment added",
			Comment: *c,
		})
	}
}

func EditComment() Handler {
	return func(rc *RouterContext, w http.ResponseWriter, r *http.Request) *HTTPError {
		uid, e := rc.callerID()
		if e != nil {
			return e
		}
		commentID, e := objectIDVar(r, "commentId")
		if e != nil {
			return e
		}

		var req commentRequest
		if e := decodeJSON(r, &req); e != nil {
			return e
		}
		text := strings.TrimSpace(req.Text)
		if text == "" {
			return handleMissingDataError("text")
		}

		err := rc.store.EditComment(r.Context(), mux.Vars(r)["slug"], commentID, uid, text)
		if err != nil {
			return handleStoreError(err, "edit", "comment")
		}
		return writeJSON(w, http.StatusOK, MessageResponse{Message: "Comment updated"})
	}
}

func DeleteComment() Handler {
	return func(rc *RouterContext, w http.ResponseWriter, r *http.Request) *HTTPError {
		uid, e := rc.callerID()
		if e != nil {
			return e
		}
		commentID, e := objectIDVar(r, "commentId")
		if e != nil {
			return e
		}

		err := rc.store.DeleteComment(r.Context(), mux.Vars(r)["slug"], commentID, uid)
		if err != nil {
			return handleStoreError(err, "delete", "comment")
		}
		return writeJSON(w, http.StatusOK, MessageResponse{Message: "Comment deleted"})
	}
}
