package content

import (
	"path"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"kiln/internal/services"
	"kiln/internal/textutil"
)

const frontMatterDelimiter = "---"

// ParseDocument splits YAML front matter from the body and decodes it. A
// document without front matter is legal (defaults apply); front matter that
// fails to decode is a schema violation and therefore fatal.
func ParseDocument(logicalPath string, data []byte) (*Document, error) {
	meta, body, err := splitFrontMatter(string(data))
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "content", "parse", logicalPath, err)
	}

	doc := &Document{Path: logicalPath, Meta: meta, Body: body}
	applyDefaults(doc)
	return doc, nil
}

func splitFrontMatter(raw string) (DocMeta, string, error) {
	var meta DocMeta
	trimmed := strings.TrimPrefix(raw, "\uFEFF")
	if !strings.HasPrefix(trimmed, frontMatterDelimiter+"\n") && trimmed != frontMatterDelimiter {
		return meta, raw, nil
	}
	rest := trimmed[len(frontMatterDelimiter)+1:]
	end := strings.Index(rest, "\n"+frontMatterDelimiter)
	if end < 0 {
		return meta, "", errUnterminatedFrontMatter
	}
	block := rest[:end]
	body := rest[end+len(frontMatterDelimiter)+1:]
	if idx := strings.Index(body, "\n"); idx >= 0 {
		body = body[idx+1:]
	} else {
		body = ""
	}
	if err := yaml.Unmarshal([]byte(block), &meta); err != nil {
		return meta, "", err
	}
	return meta, body, nil
}

var errUnterminatedFrontMatter = yamlError("unterminated front matter block")

type yamlError string

func (e yamlError) Error() string { return string(e) }

func applyDefaults(doc *Document) {
	stem := strings.TrimSuffix(path.Base(doc.Path), path.Ext(doc.Path))
	if strings.TrimSpace(doc.Meta.Slug) == "" {
		doc.Meta.Slug = slugify(stem)
	}
	if strings.TrimSpace(doc.Meta.Title) == "" {
		doc.Meta.Title = textutil.TitleFromStem(stem)
	}
	if doc.Meta.Status == "" {
		doc.Meta.Status = StatusPublished
	}
	if strings.TrimSpace(doc.Meta.Date) != "" {
		for _, layout := range []string{time.RFC3339, "2006-01-02"} {
			if ts, err := time.Parse(layout, doc.Meta.Date); err == nil {
				doc.PublishedAt = ts.UTC()
				break
			}
		}
	}
}

func slugify(stem string) string {
	lowered := strings.ToLower(strings.TrimSpace(stem))
	var b strings.Builder
	lastDash := true
	for _, r := range lowered {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
