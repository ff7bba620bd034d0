package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/marks/internal/actions"
	"github.com/MrSnakeDoc/marks/internal/domain"
	"github.com/MrSnakeDoc/marks/internal/httpserver/deps"
	"github.com/MrSnakeDoc/marks/internal/httpserver/mw"
	"github.com/MrSnakeDoc/marks/internal/logger"
)

type homePage struct {
	User      *domain.User
	Bookmarks []domain.Bookmark
}

// Home renders the bookmark list. The snapshot is served from the page
// cache when a mutation has not invalidated it.
func Home(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		user := mw.UserFrom(ctx)

		bookmarks, hit, err := d.Pages.GetCachedSnapshot(ctx, user.ID, actions.HomePath)
		if err != nil {
			d.Logger.Warn("page cache unavailable", logger.Error(err))
		}
		if !hit {
			bookmarks, err = mw.ClientFrom(ctx).Bookmarks(ctx)
			if err != nil {
				d.Logger.Error("failed to load bookmarks", logger.String("user_id", user.ID), logger.Error(err))
				http.Error(w, "failed to load bookmarks", http.StatusInternalServerError)
				return
			}
			if err := d.Pages.CacheSnapshot(ctx, user.ID, actions.HomePath, bookmarks); err != nil {
				d.Logger.Debug("failed to cache snapshot", logger.Error(err))
			}
		}

		render(w, d.Logger, http.StatusOK, "index.html", homePage{User: user, Bookmarks: bookmarks})
	}
}
