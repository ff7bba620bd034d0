package homepage

import (
	"github.com/MrSnakeDoc/marks/internal/domain"
)

// MapBookmarks converts a bookmarks.yaml into inputs. The bookmark name
// becomes the title, entries without href are skipped.
func MapBookmarks(config BookmarksConfig) []domain.BookmarkInput {
	var out []domain.BookmarkInput
	for _, category := range config {
		for _, bookmarkList := range category {
			for _, bookmarkMap := range bookmarkList {
				for name, entries := range bookmarkMap {
					// Each bookmark has a list with a single entry
					if len(entries) == 0 {
						continue
					}
					entry := entries[0]

					title := name
					if title == "" {
						title = entry.Abbr
					}
					if in := toInput(title, entry.Href); in != nil {
						out = append(out, *in)
					}
				}
			}
		}
	}
	return out
}

// MapServices converts a services.yaml into inputs, one per service with
// an absolute http(s) href.
func MapServices(config ServicesConfig) []domain.BookmarkInput {
	var out []domain.BookmarkInput
	for _, group := range config {
		for _, servicesList := range group {
			for _, serviceMap := range servicesList {
				for name, props := range serviceMap {
					if in := toInput(name, props.Href); in != nil {
						out = append(out, *in)
					}
				}
			}
		}
	}
	return out
}

func toInput(title, href string) *domain.BookmarkInput {
	in := domain.BookmarkInput{Title: title, URL: href}.Normalize()
	if in.Validate() != nil {
		return nil
	}
	return &in
}
