package manifest

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"kiln/internal/content"
)

const (
	// DefaultPageSize is used when the configuration leaves the page size unset.
	DefaultPageSize = 200

	excerptLimit       = 240
	readingWordsPerMin = 200
)

// Item is the slim document representation distributed to the front-end.
type Item struct {
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Summary     string    `json:"summary,omitempty"`
	Excerpt     string    `json:"excerpt,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	Hero        string    `json:"hero,omitempty"`
	PublishedAt time.Time `json:"published_at,omitempty"`
	WordCount   int       `json:"word_count"`
	ReadingTime int       `json:"reading_time_minutes"`
	AssetCount  int       `json:"asset_count"`
	HasMedia    bool      `json:"has_media"`
}

// Page is one chunk of the paginated manifest.
type Page struct {
	ID          string    `json:"id"`
	Page        int       `json:"page"`
	TotalPages  int       `json:"total_pages"`
	TotalItems  int       `json:"total_items"`
	Items       []Item    `json:"items"`
	GeneratedAt time.Time `json:"generated_at"`
}

// BuildPages chunks published documents into manifest pages. Documents are
// ordered newest first, ties broken by title then slug so output is stable.
// An empty input still yields a single empty page, keeping the front-end
// contract simple: page 001 always exists.
func BuildPages(documents []*content.Document, prefix string, pageSize int, now time.Time) []Page {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	sorted := make([]*content.Document, len(documents))
	copy(sorted, documents)
	sort.SliceStable(sorted, func(a, b int) bool {
		if !sorted[a].PublishedAt.Equal(sorted[b].PublishedAt) {
			return sorted[a].PublishedAt.After(sorted[b].PublishedAt)
		}
		titleA := strings.ToLower(sorted[a].Meta.Title)
		titleB := strings.ToLower(sorted[b].Meta.Title)
		if titleA != titleB {
			return titleA < titleB
		}
		return sorted[a].Meta.Slug < sorted[b].Meta.Slug
	})

	totalItems := len(sorted)
	totalPages := (totalItems + pageSize - 1) / pageSize
	if totalPages == 0 {
		totalPages = 1
	}

	pages := make([]Page, 0, totalPages)
	for pageNum := 1; pageNum <= totalPages; pageNum++ {
		start := (pageNum - 1) * pageSize
		end := start + pageSize
		if end > totalItems {
			end = totalItems
		}
		items := make([]Item, 0, end-start)
		for _, doc := range sorted[start:end] {
			items = append(items, toItem(doc))
		}
		pages = append(pages, Page{
			ID:          fmt.Sprintf("%s-%03d", prefix, pageNum),
			Page:        pageNum,
			TotalPages:  totalPages,
			TotalItems:  totalItems,
			Items:       items,
			GeneratedAt: now,
		})
	}
	return pages
}

func toItem(doc *content.Document) Item {
	plain := extractPlainText(doc.Body)
	wordCount := 0
	if plain != "" {
		wordCount = len(strings.Fields(plain))
	}

	excerpt := strings.TrimSpace(doc.Meta.Summary)
	if excerpt == "" && plain != "" {
		excerpt = truncate(plain, excerptLimit)
	}

	assetCount := len(doc.Meta.Assets)
	if strings.TrimSpace(doc.Meta.Hero) != "" {
		assetCount++
	}

	return Item{
		Slug:        doc.Meta.Slug,
		Title:       doc.Meta.Title,
		Summary:     doc.Meta.Summary,
		Excerpt:     excerpt,
		Tags:        doc.Meta.Tags,
		Hero:        doc.Meta.Hero,
		PublishedAt: doc.PublishedAt,
		WordCount:   wordCount,
		ReadingTime: readingTime(wordCount),
		AssetCount:  assetCount,
		HasMedia:    assetCount > 0,
	}
}

var (
	mdImagePattern = regexp.MustCompile(`!\[[^\]]*\]\([^)]+\)`)
	mdLinkPattern  = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	mdCodePattern  = regexp.MustCompile("`([^`]+)`")
)

// extractPlainText strips lightweight markdown decoration so word counts and
// excerpts reflect readable prose.
func extractPlainText(body string) string {
	var parts []string
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		line = mdImagePattern.ReplaceAllString(line, "")
		line = mdLinkPattern.ReplaceAllString(line, "$1")
		line = mdCodePattern.ReplaceAllString(line, "$1")
		line = strings.TrimSpace(strings.TrimLeft(line, "#>*-0123456789. "))
		if line != "" {
			parts = append(parts, line)
		}
	}
	return strings.Join(parts, " ")
}

func truncate(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	cut := text[:limit]
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "…"
}

func readingTime(wordCount int) int {
	if wordCount == 0 {
		return 0
	}
	return int(math.Max(1, math.Ceil(float64(wordCount)/readingWordsPerMin)))
}
