package utils

import "testing"

func TestRedactDSN(t *testing.T) {
	tests := []struct{ in, want string }{
		{"postgres://marks:secret@db:5432/marks?sslmode=disable", "postgres://***@db:5432/marks"},
		{"libsql://marks.turso.io?authToken=abc", "libsql://marks.turso.io"},
		{"file:marks.db", "file:marks.db"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := RedactDSN(tt.in); got != tt.want {
			t.Errorf("RedactDSN(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
