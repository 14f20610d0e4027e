package router

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/blogware/blog-backend/db"
)

func TestCategoryMutationsRequireAdmin(t *testing.T) {
	s := newMemStore()
	h := Init(s, testSecret)
	user := seedUser(t, s, "alice", db.RoleUser)

	w := doJSON(t, h, "POST", "/api/categories", map[string]string{"name": "tech"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, h, "POST", "/api/categories", map[string]string{"name": "tech"}, authCookie(t, user))
	require.Equal(t, http.StatusForbidden, w.Code)
	var e HTTPError
	decodeBody(t, w, &e)
	assert.Equal(t, ErrForbidden, e.ErrorCode)
}

func TestCreateCategoryNormalizesAndConflicts(t *testing.T) {
	s := newMemStore()
	h := Init(s, testSecret)
	admin := authCookie(t, seedUser(t, s, "root", db.RoleAdmin))

	w := doJSON(t, h, "POST", "/api/categories", map[string]string{"name": "  News  "}, admin)
	require.Equal(t, http.StatusCreated, w.Code)
	var cr CategoryResponse
	decodeBody(t, w, &cr)
	assert.Equal(t, "news", cr.Category.Name)

	// same name in a different case is the same category
	w = doJSON(t, h, "POST", "/api/categories", map[string]string{"name": "NEWS"}, admin)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, h, "POST", "/api/categories", map[string]string{"name": "   "}, admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRenameCategory(t *testing.T) {
	s := newMemStore()
	h := Init(s, testSecret)
	admin := authCookie(t, seedUser(t, s, "root", db.RoleAdmin))
	news := seedCategory(t, s, "news")
	seedCategory(t, s, "tech")

	w := doJSON(t, h, "PUT", "/api/categories/"+news.ID.Hex(), map[string]string{"name": "Tech"}, admin)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, h, "PUT", "/api/categories/"+news.ID.Hex(), map[string]string{"name": "World News"}, admin)
	require.Equal(t, http.StatusOK, w.Code)
	var cr CategoryResponse
	decodeBody(t, w, &cr)
	assert.Equal(t, "world news", cr.Category.Name)

	w = doJSON(t, h, "PUT", "/api/categories/"+primitive.NewObjectID().Hex(), map[string]string{"name": "x"}, admin)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, h, "PUT", "/api/categories/not-an-id", map[string]string{"name": "x"}, admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteCategory(t *testing.T) {
	s := newMemStore()
	h := Init(s, testSecret)
	admin := authCookie(t, seedUser(t, s, "root", db.RoleAdmin))
	news := seedCategory(t, s, "news")

	w := doJSON(t, h, "DELETE", "/api/categories/"+news.ID.Hex(), nil, admin)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, h, "DELETE", "/api/categories/"+news.ID.Hex(), nil, admin)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubcategoryLifecycle(t *testing.T) {
	s := newMemStore()
	h := Init(s, testSecret)
	admin := authCookie(t, seedUser(t, s, "root", db.RoleAdmin))
	news := seedCategory(t, s, "news")
	base := "/api/categories/" + news.ID.Hex() + "/subcategories"

	w := doJSON(t, h, "POST", base, map[string]string{"name": "Politics"}, admin)
	require.Equal(t, http.StatusCreated, w.Code)
	var cr CategoryResponse
	decodeBody(t, w, &cr)
	require.Len(t, cr.Category.Subcategories, 1)
	assert.Equal(t, "politics", cr.Category.Subcategories[0].Name)
	subID := cr.Category.Subcategories[0].ID

	w = doJSON(t, h, "POST", base, map[string]string{"name": "POLITICS"}, admin)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, h, "PUT", base+"/"+subID.Hex(), map[string]string{"name": "Economy"}, admin)
	require.Equal(t, http.StatusOK, w.Code)
	decodeBody(t, w, &cr)
	require.Len(t, cr.Category.Subcategories, 1)
	assert.Equal(t, "economy", cr.Category.Subcategories[0].Name)

	w = doJSON(t, h, "PUT", base+"/"+primitive.NewObjectID().Hex(), map[string]string{"name": "x"}, admin)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, h, "DELETE", base+"/"+subID.Hex(), nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	decodeBody(t, w, &cr)
	assert.Empty(t, cr.Category.Subcategories)

	w = doJSON(t, h, "DELETE", base+"/"+subID.Hex(), nil, admin)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListCategoriesIsPublicAndSorted(t *testing.T) {
	s := newMemStore()
	h := Init(s, testSecret)
	seedCategory(t, s, "tech")
	seedCategory(t, s, "art")
	seedCategory(t, s, "news")

	w := doJSON(t, h, "GET", "/api/categories", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var lr ListCategoriesResponse
	decodeBody(t, w, &lr)
	require.Len(t, lr.Categories, 3)
	assert.Equal(t, "art", lr.Categories[0].Name)
	assert.Equal(t, "news", lr.Categories[1].Name)
	assert.Equal(t, "tech", lr.Categories[2].Name)
}
