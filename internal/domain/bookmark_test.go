package domain

import (
	"errors"
	"testing"
)

func TestBookmarkInputValidate(t *testing.T) {
	tests := []struct {
		name string
		in   BookmarkInput
		want error
	}{
		{"https", BookmarkInput{Title: "Docs", URL: "https://example.com/a?b=c"}, nil},
		{"http upper scheme", BookmarkInput{Title: "Docs", URL: "HTTP://example.com"}, nil},
		{"padded", BookmarkInput{Title: " Docs ", URL: " https://example.com "}, nil},
		{"missing title", BookmarkInput{URL: "https://example.com"}, ErrInvalidInput},
		{"missing url", BookmarkInput{Title: "Docs"}, ErrInvalidInput},
		{"javascript", BookmarkInput{Title: "x", URL: "javascript:alert(1)"}, ErrInvalidURL},
		{"javascript mixed case", BookmarkInput{Title: "x", URL: "JaVaScRiPt:alert(1)"}, ErrInvalidURL},
		{"data", BookmarkInput{Title: "x", URL: "data:text/html,<b>hi</b>"}, ErrInvalidURL},
		{"relative", BookmarkInput{Title: "x", URL: "/settings"}, ErrInvalidURL},
		{"no host", BookmarkInput{Title: "x", URL: "https://"}, ErrInvalidURL},
		{"bare domain", BookmarkInput{Title: "x", URL: "example.com"}, ErrInvalidURL},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.in.Validate(); !errors.Is(err, tt.want) || (tt.want == nil && err != nil) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
	if !errors.Is(ErrInvalidURL, ErrInvalidInput) {
		t.Error("ErrInvalidURL should match ErrInvalidInput")
	}
}
