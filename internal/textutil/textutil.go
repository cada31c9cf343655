package textutil

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// TitleFromStem turns a filename stem into a human-readable title:
// separators become spaces and each word is title-cased.
func TitleFromStem(stem string) string {
	cleaned := strings.NewReplacer("-", " ", "_", " ", ".", " ").Replace(strings.TrimSpace(stem))
	fields := strings.Fields(cleaned)
	if len(fields) == 0 {
		return "Untitled"
	}
	return titleCaser.String(strings.Join(fields, " "))
}

// NormalizeTags lowercases, trims, and de-duplicates a tag list while keeping
// first-seen order.
func NormalizeTags(tags []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		cleaned := strings.ToLower(strings.TrimSpace(tag))
		if cleaned == "" {
			continue
		}
		if _, dup := seen[cleaned]; dup {
			continue
		}
		seen[cleaned] = struct{}{}
		out = append(out, cleaned)
	}
	return out
}
