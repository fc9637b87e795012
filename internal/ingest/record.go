// Package ingest turns raw import input (JSON or YAML maps, markdown
// documents with front matter, spreadsheet rows) into typed import records.
package ingest

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/Harshitk-cp/topicgraph/internal/domain"
)

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// DecodeRecord normalizes a raw record map. Map keys are visited in
// sorted order so the same input always yields the same record. Malformed
// parts are dropped and reported in rec.Warnings; only an unusable id is
// an error.
func DecodeRecord(raw map[string]any) (domain.ImportRecord, error) {
	d := &decoder{}

	id, err := scalar(raw["id"])
	if err != nil {
		return domain.ImportRecord{}, domain.NewValidationError("id", err.Error())
	}
	d.rec.ID = strings.TrimSpace(id)

	for _, key := range sortedKeys(raw) {
		v := raw[key]
		switch key {
		case "id":
		case "title":
			d.rec.Title = d.names(v)
		case "desc", "description":
			if s := d.str(key, v); s != "" {
				d.rec.Description = s
			}
		case "author":
			d.rec.Author = d.str(key, v)
		case "kind":
			d.rec.Kind = d.str(key, v)
		case "created_at":
			d.rec.CreatedAt = d.date(v)
		case "occurrences":
			d.occurrences(v)
		case "links":
			d.links(v)
		default:
			d.warn(key, "unknown field, ignored")
		}
	}
	return d.rec, nil
}

type decoder struct {
	rec domain.ImportRecord
}

func (d *decoder) warn(key, msg string) {
	d.rec.Warnings = append(d.rec.Warnings, domain.ResolutionWarning{
		RecordID: d.rec.ID,
		Key:      key,
		Message:  msg,
	})
}

func (d *decoder) str(key string, v any) string {
	s, err := scalar(v)
	if err != nil {
		d.warn(key, err.Error())
		return ""
	}
	return strings.TrimSpace(s)
}

func (d *decoder) names(v any) []domain.NameInput {
	var out []domain.NameInput
	for _, item := range asList(v) {
		switch it := item.(type) {
		case map[string]any:
			name := d.str("title", it["name"])
			if name == "" {
				d.warn("title", "title entry without a name, skipped")
				continue
			}
			out = append(out, domain.NameInput{Name: name, Scopes: d.scopes("title", it["scopes"])})
		default:
			if name := d.str("title", it); name != "" {
				out = append(out, domain.PlainName(name))
			}
		}
	}
	return out
}

func (d *decoder) scopes(key string, v any) []string {
	var out []string
	for _, item := range asList(v) {
		if s := d.str(key, item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (d *decoder) date(v any) *time.Time {
	switch t := v.(type) {
	case nil:
		return nil
	case time.Time:
		u := t.UTC()
		return &u
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range dateLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				u := ts.UTC()
				return &u
			}
		}
		d.warn("created_at", fmt.Sprintf("unparseable date %q, ignored", s))
	default:
		d.warn("created_at", fmt.Sprintf("unexpected %T, ignored", v))
	}
	return nil
}

func (d *decoder) occurrences(v any) {
	m, ok := v.(map[string]any)
	if !ok {
		if v != nil {
			d.warn("occurrences", "expected a map of kind to items, ignored")
		}
		return
	}
	for _, kind := range sortedKeys(m) {
		group := domain.OccurrenceGroup{Kind: kind}
		for _, item := range asList(m[kind]) {
			occ, ok := d.occurrence(kind, item)
			if ok {
				group.Items = append(group.Items, occ)
			}
		}
		if len(group.Items) > 0 {
			d.rec.Occurrences = append(d.rec.Occurrences, group)
		}
	}
}

func (d *decoder) occurrence(kind string, item any) (domain.OccurrenceInput, bool) {
	if m, ok := item.(map[string]any); ok {
		occ := domain.OccurrenceInput{
			URI:     d.str(kind, m["uri"]),
			Content: d.str(kind, m["content"]),
			Scopes:  d.scopes(kind, m["scopes"]),
		}
		if (occ.URI == "") == (occ.Content == "") {
			d.warn(kind, "occurrence needs exactly one of uri and content, skipped")
			return domain.OccurrenceInput{}, false
		}
		return occ, true
	}

	s := d.str(kind, item)
	if s == "" {
		return domain.OccurrenceInput{}, false
	}
	if looksLikeURI(s) {
		return domain.OccurrenceInput{URI: s}, true
	}
	return domain.OccurrenceInput{Content: s}, true
}

func (d *decoder) links(v any) {
	m, ok := v.(map[string]any)
	if !ok {
		if v != nil {
			d.warn("links", "expected a map of relation to targets, ignored")
		}
		return
	}
	for _, key := range sortedKeys(m) {
		items := asList(m[key])
		switch key {
		case domain.LinkAliasFor:
			d.rec.AliasFor = append(d.rec.AliasFor, d.scopes(key, items)...)
		case domain.LinkOccurrence:
			for _, uri := range d.scopes(key, items) {
				if !looksLikeURI(uri) {
					d.warn(key, fmt.Sprintf("malformed link %q, skipped", uri))
					continue
				}
				d.rec.OccurrenceLinks = append(d.rec.OccurrenceLinks, uri)
			}
		default:
			links := domain.RelationLinks{Key: key}
			for _, item := range items {
				if t, ok := d.target(key, item); ok {
					links.Targets = append(links.Targets, t)
				}
			}
			if len(links.Targets) > 0 {
				d.rec.Relations = append(d.rec.Relations, links)
			}
		}
	}
}

func (d *decoder) target(key string, item any) (domain.LinkTarget, bool) {
	if m, ok := item.(map[string]any); ok {
		t := domain.LinkTarget{T2: d.str(key, m["t2"]), Scopes: d.scopes(key, m["scopes"])}
		if t.T2 == "" {
			d.warn(key, "link without t2, skipped")
			return domain.LinkTarget{}, false
		}
		return t, true
	}
	s := d.str(key, item)
	if s == "" {
		return domain.LinkTarget{}, false
	}
	return domain.LinkTarget{T2: s}, true
}

func scalar(v any) (string, error) {
	switch s := v.(type) {
	case nil:
		return "", nil
	case string:
		return s, nil
	case bool, int, int64, float64, uint64:
		return fmt.Sprint(s), nil
	default:
		return "", fmt.Errorf("expected a string, got %T", v)
	}
}

func asList(v any) []any {
	switch l := v.(type) {
	case nil:
		return nil
	case []any:
		return l
	case []string:
		out := make([]any, len(l))
		for i, s := range l {
			out[i] = s
		}
		return out
	default:
		return []any{v}
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func looksLikeURI(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.Scheme != "" && u.Host != ""
}
