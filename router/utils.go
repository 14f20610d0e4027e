package router

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	sessionCookie = "blogSession"
	sessionMaxAge = 30 * 24 * time.Hour
)

// decodeJSON parses the JSON body of a request and handles the error
// appropriately
func decodeJSON(r *http.Request, dst interface{}) *HTTPError {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &HTTPError{
			IError:    err,
			Level:     1,
			Status:    http.StatusBadRequest,
			ErrorCode: ErrParsing,
			Error:     "malformed request body",
		}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) *HTTPError {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		return handleJSONError(err)
	}
	return nil
}

// objectIDVar parses a path variable as an ObjectID.
func objectIDVar(r *http.Request, name string) (primitive.ObjectID, *HTTPError) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)[name])
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

// callerID returns the authenticated caller's id. Handlers using it must run
// after requireAuth.
func (rc *RouterContext) callerID() (primitive.ObjectID, *HTTPError) {
	id, err := primitive.ObjectIDFromHex(rc.user.ID)
	if err != nil {
		return primitive.NilObjectID, &HTTPError{
			IError:    err,
			Level:     3,
			Status:    http.StatusUnauthorized,
			ErrorCode: ErrUnauthenticated,
			Error:     "invalid token subject",
		}
	}
	return id, nil
}

// visitorSession returns the stable per-session token of the request,
// issuing the long-lived cookie on first sight. The value is generated once
// and reused for the session's lifetime.
func visitorSession(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		return c.Value
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(sessionMaxAge / time.Second),
	})
	return id
}
