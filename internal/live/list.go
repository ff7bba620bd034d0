// Package live keeps a server-side copy of what one browser session shows
// and pushes it to the browser whenever it changes.
package live

import "github.com/MrSnakeDoc/marks/internal/domain"

// List is the ordered bookmark sequence of a view, newest first. It is not
// safe for concurrent use; a View confines it to its loop.
type List struct {
	items []domain.Bookmark
}

// NewList seeds a list from a server snapshot.
func NewList(snapshot []domain.Bookmark) *List {
	items := make([]domain.Bookmark, len(snapshot))
	copy(items, snapshot)
	return &List{items: items}
}

// Apply folds a change event into the list and reports whether it changed.
//
//   - INSERT prepends the new row, or replaces it in place if the id is
//     already listed.
//   - UPDATE replaces the matching row without moving it.
//   - DELETE removes the row matching the old id.
//
// Anything else is ignored.
func (l *List) Apply(ev domain.ChangeEvent) bool {
	switch ev.Kind {
	case domain.EventInsert:
		if ev.New == nil {
			return false
		}
		if i := l.Index(ev.New.ID); i >= 0 {
			l.items[i] = *ev.New
			return true
		}
		l.items = append([]domain.Bookmark{*ev.New}, l.items...)
		return true

	case domain.EventUpdate:
		if ev.New == nil {
			return false
		}
		i := l.Index(ev.New.ID)
		if i < 0 {
			return false
		}
		l.items[i] = *ev.New
		return true

	case domain.EventDelete:
		if ev.Old == nil {
			return false
		}
		_, _, ok := l.Remove(ev.Old.ID)
		return ok
	}
	return false
}

// Index returns the position of id, or -1.
func (l *List) Index(id string) int {
	for i := range l.items {
		if l.items[i].ID == id {
			return i
		}
	}
	return -1
}

// Remove drops id and returns the removed row with its former position.
func (l *List) Remove(id string) (domain.Bookmark, int, bool) {
	i := l.Index(id)
	if i < 0 {
		return domain.Bookmark{}, -1, false
	}
	b := l.items[i]
	l.items = append(l.items[:i], l.items[i+1:]...)
	return b, i, true
}

// Restore puts b back at position idx (clamped to the list length). It does
// nothing if b is listed again.
func (l *List) Restore(b domain.Bookmark, idx int) bool {
	if l.Index(b.ID) >= 0 {
		return false
	}
	if idx < 0 {
		idx = 0
	}
	if idx > len(l.items) {
		idx = len(l.items)
	}
	l.items = append(l.items, domain.Bookmark{})
	copy(l.items[idx+1:], l.items[idx:])
	l.items[idx] = b
	return true
}

// Len returns the number of listed bookmarks.
func (l *List) Len() int {
	return len(l.items)
}

// Items returns a copy of the sequence.
func (l *List) Items() []domain.Bookmark {
	out := make([]domain.Bookmark, len(l.items))
	copy(out, l.items)
	return out
}
