package domain

import "testing"

func TestChangeEventMatches(t *testing.T) {
	ev := ChangeEvent{Kind: EventUpdate, Table: TableBookmarks}

	tests := []struct {
		name   string
		table  string
		filter string
		want   bool
	}{
		{name: "wildcard", table: TableBookmarks, filter: EventAll, want: true},
		{name: "empty filter", table: TableBookmarks, filter: "", want: true},
		{name: "same kind", table: TableBookmarks, filter: "UPDATE", want: true},
		{name: "lowercase kind", table: TableBookmarks, filter: "update", want: true},
		{name: "other kind", table: TableBookmarks, filter: "INSERT", want: false},
		{name: "other table", table: "users", filter: EventAll, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ev.Matches(tt.table, tt.filter); got != tt.want {
				t.Errorf("Matches(%q, %q) = %v, want %v", tt.table, tt.filter, got, tt.want)
			}
		})
	}
}

func TestBookmarkInputComplete(t *testing.T) {
	tests := []struct {
		name string
		in   BookmarkInput
		want bool
	}{
		{name: "both set", in: BookmarkInput{Title: "Docs", URL: "https://example.com"}, want: true},
		{name: "empty title", in: BookmarkInput{URL: "https://example.com"}, want: false},
		{name: "empty url", in: BookmarkInput{Title: "Docs"}, want: false},
		{name: "blank title", in: BookmarkInput{Title: "   ", URL: "https://example.com"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.Complete(); got != tt.want {
				t.Errorf("Complete() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidFilter(t *testing.T) {
	for _, f := range []string{"*", "", "insert", "UPDATE", "Delete"} {
		if !ValidFilter(f) {
			t.Errorf("ValidFilter(%q) = false, want true", f)
		}
	}
	if ValidFilter("TRUNCATE") {
		t.Error("ValidFilter(TRUNCATE) = true, want false")
	}
}
