package homepage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const bookmarksYAML = `---
- Developer:
    - Github:
        - abbr: GH
          href: https://github.com/
    - Docs:
        - abbr: GD
          href: https://go.dev/doc/
- Social:
    - Reddit:
        - icon: reddit.png
          href: https://reddit.com/
`

const servicesYAML = `---
- Infrastructure:
    - AdGuard Home:
        icon: adguard-home.svg
        href: https://adguard.domain.ext
        description: Network-wide ads & trackers blocking DNS server
    - Traefik:
        href: https://traefik.domain.ext
        widget:
          type: traefik
          url: {{HOMEPAGE_VAR_TRAEFIK_URL}}
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to create test YAML file: %v", err)
	}
	return path
}

func TestLoaderLoadBookmarks(t *testing.T) {
	entries, err := NewLoader(writeFile(t, "bookmarks.yaml", bookmarksYAML)).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := []string{"https://github.com/", "https://go.dev/doc/", "https://reddit.com/"}
	if len(entries) != len(want) {
		t.Fatalf("Load() returned %d entries, want %d", len(entries), len(want))
	}
	for i, u := range want {
		if entries[i].URL != u {
			t.Errorf("entries[%d].URL = %q, want %q", i, entries[i].URL, u)
		}
	}
	if entries[0].Title != "Github" {
		t.Errorf("entries[0].Title = %q, want Github", entries[0].Title)
	}
}

func TestLoaderLoadServices(t *testing.T) {
	entries, err := NewLoader(writeFile(t, "services.yaml", servicesYAML)).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Load() returned %d entries, want 2", len(entries))
	}
	if entries[0].Title != "AdGuard Home" || entries[0].URL != "https://adguard.domain.ext" {
		t.Errorf("entries[0] = %+v", entries[0])
	}
}

func TestLoaderLoadMultipleFilesDedupes(t *testing.T) {
	dup := `---
- Again:
    - GitHub mirror:
        - href: https://github.com/
`
	entries, err := NewLoader(
		writeFile(t, "bookmarks.yaml", bookmarksYAML),
		writeFile(t, "services.yaml", servicesYAML),
		writeFile(t, "more.yaml", dup),
	).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(entries) != 5 {
		t.Errorf("Load() returned %d entries, want 5", len(entries))
	}
}

func TestLoaderLoadWithTemplateVariables(t *testing.T) {
	content := `---
- Infrastructure:
    - AdGuard Home:
        href: {{HOMEPAGE_VAR_ADGUARD_URL}}
    - Traefik:
        href: https://traefik.domain.ext
`
	entries, err := NewLoader(writeFile(t, "services.yaml", content)).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(entries) != 1 || entries[0].Title != "Traefik" {
		t.Errorf("Load() = %+v, want only Traefik", entries)
	}
}

func TestLoaderLoadErrors(t *testing.T) {
	if _, err := NewLoader("/nonexistent/path/bookmarks.yaml").Load(); err == nil {
		t.Error("Load() with non-existent file should return error")
	}

	_, err := NewLoader(writeFile(t, "other.yaml", "title: not homepage\n")).Load()
	if !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("Load() on foreign yaml error = %v, want ErrUnknownFormat", err)
	}

	if _, err := NewLoader(writeFile(t, "empty.yaml", "")).Load(); err == nil {
		t.Error("Load() with empty file should return error")
	}
}

func TestStripTemplateVariablesFunc(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
	}{
		{
			name:     "single template variable",
			input:    []byte("url: {{HOMEPAGE_VAR_URL}}"),
			expected: "url: \"\"",
		},
		{
			name:     "two variables",
			input:    []byte("user: {{HOMEPAGE_VAR_USER}}\npass: {{HOMEPAGE_FILE_PASS}}"),
			expected: "user: \"\"\npass: \"\"",
		},
		{
			name:     "no template variables",
			input:    []byte("plain text"),
			expected: "plain text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := stripTemplateVariables(tt.input)
			if string(result) != tt.expected {
				t.Errorf("stripTemplateVariables() = %q, want %q", string(result), tt.expected)
			}
		})
	}
}
