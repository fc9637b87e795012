package ingest

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Harshitk-cp/topicgraph/internal/domain"
	"gopkg.in/yaml.v3"
)

// ArticleKind is the occurrence kind a markdown body is imported as.
const ArticleKind = "article"

// ParseFrontmatter reads a markdown document whose YAML front matter holds
// an import record. A non-empty body becomes an article occurrence. When
// the front matter names neither id nor title, the file's base name is the
// id.
func ParseFrontmatter(filename string, content []byte) (domain.ImportRecord, error) {
	raw, body, err := splitFrontmatter(string(content))
	if err != nil {
		return domain.ImportRecord{}, fmt.Errorf("%s: %w", filename, err)
	}
	if raw == nil {
		raw = map[string]any{}
	}

	rec, err := DecodeRecord(raw)
	if err != nil {
		return domain.ImportRecord{}, fmt.Errorf("%s: %w", filename, err)
	}

	if rec.ID == "" && len(rec.Title) == 0 {
		base := filepath.Base(filename)
		rec.ID = strings.TrimSuffix(base, filepath.Ext(base))
	}

	if body = strings.TrimSpace(body); body != "" {
		rec.Occurrences = append(rec.Occurrences, domain.OccurrenceGroup{
			Kind:  ArticleKind,
			Items: []domain.OccurrenceInput{{Content: body}},
		})
	}
	return rec, nil
}

// splitFrontmatter separates a leading "---" delimited YAML block from the
// body. Documents without front matter are all body.
func splitFrontmatter(content string) (map[string]any, string, error) {
	const delimiter = "---"
	content = strings.TrimPrefix(content, "\ufeff")
	if !strings.HasPrefix(content, delimiter+"\n") && !strings.HasPrefix(content, delimiter+"\r\n") {
		return nil, content, nil
	}

	rest := strings.TrimLeft(content[len(delimiter):], "\r")[1:]
	var block, body string
	if strings.HasPrefix(rest, delimiter) {
		body = rest[len(delimiter):]
	} else {
		end := strings.Index(rest, "\n"+delimiter)
		if end == -1 {
			return nil, "", fmt.Errorf("no closing front matter delimiter")
		}
		block = rest[:end]
		body = rest[end+1+len(delimiter):]
	}
	body = strings.TrimLeft(body, "\r\n")

	var raw map[string]any
	if err := yaml.Unmarshal([]byte(block), &raw); err != nil {
		return nil, "", fmt.Errorf("parse front matter: %w", err)
	}
	return raw, body, nil
}
