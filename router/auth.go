package router

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/blogware/blog-backend/db"
)

const (
	tokenCookie = "token"
	tokenTTL    = 24 * time.Hour
)

// Claims is the token payload: the user id and the role fixed at
// registration.
type Claims struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

func signToken(secret []byte, u *db.User) (string, error) {
	claims := &Claims{
		UserID: u.ID.Hex(),
		Role:   u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func parseToken(secret []byte, raw string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{},
		func(t *jwt.Token) (interface{}, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func Register() Handler {
	return func(rc *RouterContext, w http.ResponseWriter, r *http.Request) *HTTPError {
		var req registerRequest
		if e := decodeJSON(r, &req); e != nil {
			return e
		}

		req.Username = strings.TrimSpace(req.Username)
		if req.Username == "" {
			return handleMissingDataError("username")
		}
		if req.Password == "" {
			return handleMissingDataError("password")
		}

		role := req.Role
		switch role {
		case "":
			role = db.RoleUser
		case db.RoleUser, db.RoleAdmin, db.RoleSuperadmin:
		default:
			return &HTTPError{
				IError:    errors.New("unknown role " + role),
				Level:     1,
				Status:    http.StatusBadRequest,
				ErrorCode: ErrInvalidData,
				Error:     "unknown role",
			}
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return &HTTPError{
				IError:    err,
				Level:     3,
				Status:    http.StatusInternalServerError,
				ErrorCode: ErrInternal,
				Error:     http.StatusText(http.StatusInternalServerError),
			}
		}

		u := &db.User{Username: req.Username, Password: string(hash), Role: role}
		if err := rc.store.CreateUser(r.Context(), u); err != nil {
			return handleStoreError(err, "create", "user")
		}

		return writeJSON(w, http.StatusCreated, AuthResponse{
			Message: "User registered",
			User:    UserInfo{Username: u.Username, Role: u.Role},
		})
	}
}

func Login() Handler {
	return func(rc *RouterContext, w http.ResponseWriter, r *http.Request) *HTTPError {
		var req loginRequest
		if e := decodeJSON(r, &req); e != nil {
			return e
		}
		if req.Username == "" {
			return handleMissingDataError("username")
		}
		if req.Password == "" {
			return handleMissingDataError("password")
		}

		badCredentials := &HTTPError{
			IError:    errors.New("invalid credentials for " + req.Username),
			Level:     1,
			Status:    http.StatusUnauthorized,
			ErrorCode: ErrUnauthenticated,
			Error:     "invalid credentials",
		}

		u, err := rc.store.UserByName(r.Context(), req.Username)
		if errors.Is(err, db.ErrNotFound) {
			return badCredentials
		}
		if err != nil {
			return handleStoreError(err, "fetch", "user")
		}
		if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(req.Password)) != nil {
			return badCredentials
		}

		token, err := signToken(rc.secret, u)
		if err != nil {
			return &HTTPError{
				IError:    err,
				Level:     3,
				Status:    http.StatusInternalServerError,
				ErrorCode: ErrInternal,
				Error:     http.StatusText(http.StatusInternalServerError),
			}
		}

		http.SetCookie(w, &http.Cookie{
			Name:     tokenCookie,
			Value:    token,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
			MaxAge:   int(tokenTTL / time.Second),
		})

		return writeJSON(w, http.StatusOK, AuthResponse{
			Message: "Login successful",
			User:    UserInfo{Username: u.Username, Role: u.Role},
		})
	}
}

func Logout() Handler {
	return func(rc *RouterContext, w http.ResponseWriter, r *http.Request) *HTTPError {
		http.SetCookie(w, &http.Cookie{
			Name:     tokenCookie,
			Value:    "",
			Path:     "/",
			HttpOnly: true,
			Expires:  time.Unix(0, 0),
		})
		return writeJSON(w, http.StatusOK, MessageResponse{Message: "Logged out"})
	}
}

// Me returns the caller's account from a fresh store read rather than from
// the token, so a deleted user stops resolving immediately.
func Me() Handler {
	return func(rc *RouterContext, w http.ResponseWriter, r *http.Request) *HTTPError {
		id, e := rc.callerID()
		if e != nil {
			return e
		}

		u, err := rc.store.UserByID(r.Context(), id)
		if err != nil {
			return handleStoreError(err, "fetch", "user")
		}

		return writeJSON(w, http.StatusOK, MeResponse{
			User: UserInfo{Username: u.Username, Role: u.Role},
		})
	}
}

func Dashboard() Handler {
	return func(rc *RouterContext, w http.ResponseWriter, r *http.Request) *HTTPError {
		id, e := rc.callerID()
		if e != nil {
			return e
		}

		u, err := rc.store.UserByID(r.Context(), id)
		if err != nil {
			return handleStoreError(err, "fetch", "user")
		}

		return writeJSON(w, http.StatusOK, AuthResponse{
			Message: "Welcome to the dashboard",
			User:    UserInfo{Username: u.Username, Role: u.Role},
		})
	}
}
