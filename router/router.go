package router

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/blogware/blog-backend/db"
	"github.com/blogware/blog-backend/log"
)

// Identity is the resolved caller of a request: the userId and role claims of
// a verified token. Handlers treat a nil Identity as a guest.
type Identity struct {
	ID   string
	Role string
}

// RouterContext carries per-request state through a handler chain. It is
// created fresh for every request; nothing in it outlives the request.
type RouterContext struct {
	store     db.Store
	secret    []byte
	user      *Identity
	sessionID string
}

type HTTPError struct {
	Level     int    `json:"-"`
	IError    error  `json:"-"`
	Status    int    `json:"status"`
	Error     string `json:"error"`
	ErrorCode string `json:"error_code"`
}

type Handler func(rc *RouterContext, w http.ResponseWriter, r *http.Request) *HTTPError

// Handle runs a chain of handlers against a fresh RouterContext and turns a
// returned *HTTPError into a response.
func Handle(s db.Store, secret []byte, handlers ...Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rc := &RouterContext{
			store:  s,
			secret: secret,
		}
		w.Header().Add("Content-Type", "application/json")

		for _, handler := range handlers {
			e := handler(rc, w, r)
			if e == nil {
				continue
			}

			// 3 levels of errors
			// Level 1: Don't log anything on the server, only return a response to the user
			// Level 2: Log the error as a warning on the server, but let the chain continue
			// Level 3: Log the error, cancel the request and return an appropriate response
			switch e.Level {
			case 1:
				w.WriteHeader(e.Status)
				err := json.NewEncoder(w).Encode(e)
				if err != nil {
					w.Header().Set("Content-Type", "text/plain")
					w.Write([]byte(http.StatusText(http.StatusInternalServerError)))
				}
				return

			case 2:
				log.Warn.Printf("%s %s: %v\n", r.Method, r.URL.Path, e.IError)

			case 3:
				log.Error.Printf("%s %s: %v\n", r.Method, r.URL.Path, e.IError)
				w.WriteHeader(e.Status)
				err := json.NewEncoder(w).Encode(e)
				if err != nil {
					w.Header().Set("Content-Type", "text/plain")
					w.Write([]byte(http.StatusText(http.StatusInternalServerError)))
				}
				return
			}
		}
	})
}

// Init wires every route of the API. Reads are public unless noted; writes
// require an identity, taxonomy writes an admin one.
func Init(s db.Store, secret []byte) *mux.Router {
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()

	// auth
	api.Handle("/auth/register", Handle(s, secret,
		Register(),
	)).Methods("POST")
	api.Handle("/auth/login", Handle(s, secret,
		Login(),
	)).Methods("POST")
	api.Handle("/auth/logout", Handle(s, secret,
		Logout(),
	)).Methods("POST")
	api.Handle("/auth/me", Handle(s, secret,
		resolveUser(), requireAuth(), Me(),
	)).Methods("GET")
	api.Handle("/dashboard", Handle(s, secret,
		resolveUser(), requireAuth(), Dashboard(),
	)).Methods("GET")

	// taxonomy
	api.Handle("/categories", Handle(s, secret,
		ListCategories(),
	)).Methods("GET")
	api.Handle("/categories", Handle(s, secret,
		resolveUser(), requireAuth(), requireAdmin(), CreateCategory(),
	)).Methods("POST")
	api.Handle("/categories/{id}", Handle(s, secret,
		resolveUser(), requireAuth(), requireAdmin(), RenameCategory(),
	)).Methods("PUT")
	api.Handle("/categories/{id}", Handle(s, secret,
		resolveUser(), requireAuth(), requireAdmin(), DeleteCategory(),
	)).Methods("DELETE")
	api.Handle("/categories/{id}/subcategories", Handle(s, secret,
		resolveUser(), requireAuth(), requireAdmin(), AddSubcategory(),
	)).Methods("POST")
	api.Handle("/categories/{id}/subcategories/{subId}", Handle(s, secret,
		resolveUser(), requireAuth(), requireAdmin(), RenameSubcategory(),
	)).Methods("PUT")
	api.Handle("/categories/{id}/subcategories/{subId}", Handle(s, secret,
		resolveUser(), requireAuth(), requireAdmin(), DeleteSubcategory(),
	)).Methods("DELETE")

	// posts; the fixed segments must be registered before {slug}
	api.Handle("/posts", Handle(s, secret,
		resolveUser(), ListPosts(),
	)).Methods("GET")
	api.Handle("/posts", Handle(s, secret,
		resolveUser(), requireAuth(), CreatePost(),
	)).Methods("POST")
	api.Handle("/posts/liked", Handle(s, secret,
		resolveUser(), requireAuth(), ListReactedPosts(true),
	)).Methods("GET")
	api.Handle("/posts/disliked", Handle(s, secret,
		resolveUser(), requireAuth(), ListReactedPosts(false),
	)).Methods("GET")
	api.Handle("/posts/{slug}", Handle(s, secret,
		resolveUser(), GetPost(),
	)).Methods("GET")
	api.Handle("/posts/{slug}", Handle(s, secret,
		resolveUser(), requireAuth(), UpdatePost(),
	)).Methods("PUT")
	api.Handle("/posts/{slug}", Handle(s, secret,
		resolveUser(), requireAuth(), DeletePost(),
	)).Methods("DELETE")

	// engagement
	api.Handle("/posts/{slug}/like", Handle(s, secret,
		resolveUser(), requireAuth(), ToggleLike(),
	)).Methods("POST")
	api.Handle("/posts/{slug}/dislike", Handle(s, secret,
		resolveUser(), requireAuth(), ToggleDislike(),
	)).Methods("POST")
	api.Handle("/posts/{slug}/comments", Handle(s, secret,
		ListComments(),
	)).Methods("GET")
	api.Handle("/posts/{slug}/comments", Handle(s, secret,
		resolveUser(), requireAuth(), AddComment(),
	)).Methods("POST")
	api.Handle("/posts/{slug}/comments/{commentId}", Handle(s, secret,
		resolveUser(), requireAuth(), EditComment(),
	)).Methods("PUT")
	api.Handle("/posts/{slug}/comments/{commentId}", Handle(s, secret,
		resolveUser(), requireAuth(), DeleteComment(),
	)).Methods("DELETE")

	// analytics
	api.Handle("/posts/{slug}/views", Handle(s, secret,
		resolveUser(), RecordView(),
	)).Methods("POST")
	api.Handle("/posts/{slug}/analytics", Handle(s, secret,
		resolveUser(), requireAuth(), requireAdmin(), PostAnalytics(),
	)).Methods("GET")

	return r
}

// resolveUser reads the token cookie and, when the token verifies, attaches
// the caller's identity to the context. Guests pass through with no identity
// and no error.
func resolveUser() Handler {
	return func(rc *RouterContext, w http.ResponseWriter, r *http.Request) *HTTPError {
		c, err := r.Cookie(tokenCookie)
		if err != nil || c.Value == "" {
			return nil
		}

		claims, err := parseToken(rc.secret, c.Value)
		if err != nil {
			return &HTTPError{IError: err, Level: 2}
		}

		rc.user = &Identity{ID: claims.UserID, Role: claims.Role}
		return nil
	}
}

func requireAuth() Handler {
	return func(rc *RouterContext, w http.ResponseWriter, r *http.Request) *HTTPError {
		if rc.user == nil {
			return &HTTPError{
				Level:     1,
				Status:    http.StatusUnauthorized,
				ErrorCode: ErrUnauthenticated,
				Error:     "authentication required",
			}
		}
		return nil
	}
}

func requireAdmin() Handler {
	return func(rc *RouterContext, w http.ResponseWriter, r *http.Request) *HTTPError {
		if rc.user == nil || (rc.user.Role != db.RoleAdmin && rc.user.Role != db.RoleSuperadmin) {
			return &HTTPError{
				Level:     1,
				Status:    http.StatusForbidden,
				ErrorCode: ErrForbidden,
				Error:     "admin access required",
			}
		}
		return nil
	}
}
