package domain

import (
	"strings"
	"time"
)

// EventKind is the type of row change carried by a ChangeEvent.
type EventKind string

const (
	EventInsert EventKind = "INSERT"
	EventUpdate EventKind = "UPDATE"
	EventDelete EventKind = "DELETE"

	// EventAll is the subscription filter matching every kind.
	EventAll = "*"
)

// ChangeEvent is one row-level notification from the change feed.
// Old is set for UPDATE and DELETE, New for INSERT and UPDATE.
type ChangeEvent struct {
	ID    string    `json:"id"`
	Kind  EventKind `json:"kind"`
	Table string    `json:"table"`
	Owner string    `json:"owner"`
	Old   *Bookmark `json:"old,omitempty"`
	New   *Bookmark `json:"new,omitempty"`
	At    time.Time `json:"at"`
}

// Matches reports whether the event passes a subscription filter.
// filter is either "*" or one of the event kinds (case-insensitive).
func (e ChangeEvent) Matches(table, filter string) bool {
	if table != "" && e.Table != table {
		return false
	}
	if filter == "" || filter == EventAll {
		return true
	}
	return strings.EqualFold(filter, string(e.Kind))
}

// ValidFilter reports whether filter is accepted by Matches.
func ValidFilter(filter string) bool {
	switch strings.ToUpper(filter) {
	case "", EventAll, string(EventInsert), string(EventUpdate), string(EventDelete):
		return true
	}
	return false
}
