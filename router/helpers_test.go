package router

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/blogware/blog-backend/db"
)

var testSecret = []byte("test-secret")

func seedUser(t *testing.T, s *memStore, name, role string) *db.User {
	t.Helper()
	u := &db.User{Username: name, Password: "irrelevant", Role: role}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

func seedCategory(t *testing.T, s *memStore, name string) *db.Category {
	t.Helper()
	c, err := s.CreateCategory(context.Background(), name)
	require.NoError(t, err)
	return c
}

func seedPost(t *testing.T, s *memStore, author, category primitive.ObjectID, title, slug, status string) *db.Post {
	t.Helper()
	p := &db.Post{
		Title:    title,
		Slug:     slug,
		Content:  "<p>hello</p>",
		Status:   status,
		Author:   author,
		Category: category,
	}
	require.NoError(t, s.CreatePost(context.Background(), p))
	return p
}

func authCookie(t *testing.T, u *db.User) *http.Cookie {
	t.Helper()
	tok, err := signToken(testSecret, u)
	require.NoError(t, err)
	return &http.Cookie{Name: tokenCookie, Value: tok}
}

func doJSON(t *testing.T, h http.Handler, method, path string, body interface{}, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(w.Body).Decode(dst))
}

func responseCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
