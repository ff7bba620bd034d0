package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/marks/internal/domain"
	"github.com/MrSnakeDoc/marks/internal/httpserver/deps"
	"github.com/MrSnakeDoc/marks/internal/httpserver/mw"
)

const maxAPIBody = 16 << 10

type bookmarksResponse struct {
	Bookmarks []domain.Bookmark `json:"bookmarks"`
}

func decodeInput(w http.ResponseWriter, r *http.Request) (domain.BookmarkInput, error) {
	var in domain.BookmarkInput
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAPIBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		return in, domain.ErrInvalidInput
	}
	return in.Normalize(), nil
}

// ListBookmarks returns the caller's bookmarks, newest first.
func ListBookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := mw.ClientFrom(r.Context()).Bookmarks(r.Context())
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, bookmarksResponse{Bookmarks: list})
	}
}

// CreateBookmark adds a bookmark from a JSON body.
func CreateBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in, err := decodeInput(w, r)
		if err != nil || !in.Complete() {
			writeError(w, d.Logger, domain.ErrInvalidInput)
			return
		}

		b, err := d.Actions.AddBookmark(r.Context(), mw.ClientFrom(r.Context()), in.Title, in.URL)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, b)
	}
}

// UpdateBookmark changes the title and/or url of a bookmark.
func UpdateBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in, err := decodeInput(w, r)
		if err != nil || (in.Title == "" && in.URL == "") {
			writeError(w, d.Logger, domain.ErrInvalidInput)
			return
		}

		b, err := d.Actions.UpdateBookmark(r.Context(), mw.ClientFrom(r.Context()), chi.URLParam(r, "id"), in.Title, in.URL)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, b)
	}
}

// DeleteBookmarkAPI removes a bookmark.
func DeleteBookmarkAPI(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Actions.DeleteBookmark(r.Context(), mw.ClientFrom(r.Context()), chi.URLParam(r, "id")); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
