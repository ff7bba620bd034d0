package routes

import (
	"sort"
	"testing"
)

func TestAllGroupsRegistered(t *testing.T) {
	got := Names()
	sort.Strings(got)
	want := []string{"actions", "api", "auth", "import", "live", "pages", "probes"}
	if len(got) != len(want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
