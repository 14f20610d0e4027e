package router

import (
	"net/http"

	"github.com/blogware/blog-backend/db"
)

type categoryRequest struct {
	Name string `json:"name"`
}

func ListCategories() Handler {
	return func(rc *RouterContext, w http.ResponseWriter, r *http.Request) *HTTPError {
		cats, err := rc.store.ListCategories(r.Context())
		if err != nil {
			return handleStoreError(err, "list", "categories")
		}
		return writeJSON(w, http.StatusOK, ListCategoriesResponse{Categories: cats})
	}
}

func CreateCategory() Handler {
	return func(rc *RouterContext, w http.ResponseWriter, r *http.Request) *HTTPError {
		var req categoryRequest
		if e := decodeJSON(r, &req); e != nil {
			return e
		}
		if db.NormalizeName(req.Name) == "" {
			return handleMissingDataError("name")
		}

		c, err := rc.store.CreateCategory(r.Context(), req.Name)
		if err != nil {
			return handleStoreError(err, "create", "category")
		}

		return writeJSON(w, http.StatusCreated, CategoryResponse{
			Message:  "Category created",
			Category: *c,
		})
	}
}

func RenameCategory() Handler {
	return func(rc *RouterContext, w http.ResponseWriter, r *http.Request) *HTTPError {
		id, e := objectIDVar(r, "id")
		if e != nil {
			return e
		}
		var req categoryRequest
		if e := decodeJSON(r, &req); e != nil {
			return e
		}
		if db.NormalizeName(req.Name) == "" {
			return handleMissingDataError("name")
		}

		c, err := rc.store.RenameCategory(r.Context(), id, req.Name)
		if err != nil {
			return handleStoreError(err, "rename", "category")
		}

		return writeJSON(w, http.StatusOK, CategoryResponse{
			Message:  "Category updated",
			Category: *c,
		})
	}
}

func DeleteCategory() Handler {
	return func(rc *RouterContext, w http.ResponseWriter, r *http.Request) *HTTPError {
		id, e := objectIDVar(r, "id")
		if e != nil {
			return e
		}

		if err := rc.store.DeleteCategory(r.Context(), id); err != nil {
			return handleStoreError(err, "delete", "category")
		}

		return writeJSON(w, http.StatusOK, MessageResponse{Message: "Category deleted"})
	}
}

func AddSubcategory() Handler {
	return func(rc *RouterContext, w http.ResponseWriter, r *http.Request) *HTTPError {
		id, e := objectIDVar(r, "id")
		if e != nil {
			return e
		}
		var req categoryRequest
		if e := decodeJSON(r, &req); e != nil {
			return e
		}
		if db.NormalizeName(req.Name) == "" {
			return handleMissingDataError("name")
		}

		c, err := rc.store.AddSubcategory(r.Context(), id, req.Name)
		if err != nil {
			return handleStoreError(err, "add subcategory to", "category")
		}

		return writeJSON(w, http.StatusCreated, CategoryResponse{
			Message:  "Subcategory added",
			Category: *c,
		})
	}
}

func RenameSubcategory() Handler {
	return func(rc *RouterContext, w http.ResponseWriter, r *http.Request) *HTTPError {
		id, e := objectIDVar(r, "id")
		if e != nil {
			return e
		}
		subID, e := objectIDVar(r, "subId")
		if e != nil {
			return e
		}
		var req categoryRequest
		if e := decodeJSON(r, &req); e != nil {
			return e
		}
		if db.NormalizeName(req.Name) == "" {
			return handleMissingDataError("name")
		}

		c, err := rc.store.RenameSubcategory(r.Context(), id, subID, req.Name)
		if err != nil {
			return handleStoreError(err, "rename", "subcategory")
		}

		return writeJSON(w, http.StatusOK, CategoryResponse{
			Message:  "Subcategory updated",
			Category: *c,
		})
	}
}

func DeleteSubcategory() Handler {
	return func(rc *RouterContext, w http.ResponseWriter, r *http.Request) *HTTPError {
		id, e := objectIDVar(r, "id")
		if e != nil {
			return e
		}
		subID, e := objectIDVar(r, "subId")
		if e != nil {
			return e
		}

		c, err := rc.store.DeleteSubcategory(r.Context(), id, subID)
		if err != nil {
			return handleStoreError(err, "delete", "subcategory")
		}

		return writeJSON(w, http.StatusOK, CategoryResponse{
			Message:  "Subcategory deleted",
			Category: *c,
		})
	}
}
