package homepage

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/MrSnakeDoc/marks/internal/domain"
)

// ErrUnknownFormat is returned for YAML that is neither a Homepage
// bookmarks.yaml nor a services.yaml.
var ErrUnknownFormat = errors.New("not a homepage bookmarks or services file")

var templateVar = regexp.MustCompile(`\{\{[^}]+\}\}`)

// Loader reads Homepage bookmarks.yaml and services.yaml files and turns
// their links into bookmark inputs.
type Loader struct {
	paths []string
}

// NewLoader creates a loader over one or more files. The format of each
// file is detected from its structure.
func NewLoader(paths ...string) *Loader {
	return &Loader{paths: paths}
}

// Load parses every file and returns the entries in file order, without
// duplicate URLs.
func (l *Loader) Load() ([]domain.BookmarkInput, error) {
	var all []domain.BookmarkInput
	for _, p := range l.paths {
		entries, err := loadFile(p)
		if err != nil {
			return nil, err
		}
		all = append(all, entries...)
	}

	all = dedupe(all)
	if len(all) == 0 {
		return nil, fmt.Errorf("no valid links found in %v", l.paths)
	}
	return all, nil
}

func loadFile(path string) ([]domain.BookmarkInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read homepage file: %w", err)
	}
	entries, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return entries, nil
}

// parse tries the bookmarks layout first. The two layouts differ one level
// down (a list of entries vs a mapping), so at most one decodes.
func parse(data []byte) ([]domain.BookmarkInput, error) {
	data = stripTemplateVariables(data)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var bookmarks BookmarksConfig
	if err := yaml.Unmarshal(data, &bookmarks); err == nil {
		return MapBookmarks(bookmarks), nil
	}

	var services ServicesConfig
	if err := yaml.Unmarshal(data, &services); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownFormat, err)
	}
	return MapServices(services), nil
}

// stripTemplateVariables removes Homepage template variables from YAML
// Example: {{HOMEPAGE_VAR_ADGUARD_USER}} -> ""
func stripTemplateVariables(data []byte) []byte {
	return templateVar.ReplaceAll(data, []byte(`""`))
}

func dedupe(entries []domain.BookmarkInput) []domain.BookmarkInput {
	seen := make(map[string]struct{}, len(entries))
	out := entries[:0]
	for _, e := range entries {
		if _, ok := seen[e.URL]; ok {
			continue
		}
		seen[e.URL] = struct{}{}
		out = append(out, e)
	}
	return out
}
