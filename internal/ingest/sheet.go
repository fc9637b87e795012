package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/Harshitk-cp/topicgraph/internal/domain"
)

// Column markers in spreadsheet headers.
const (
	MarkerTitle      = '#'
	MarkerKind       = '='
	MarkerLink       = '@'
	MarkerOccurrence = '&'
)

// headerPattern matches name[scope1,scope2]MARKERkey.
var headerPattern = regexp.MustCompile(`^([^\[#=@&]*)(?:\[([^\]]*)\])?([#=@&])(.*)$`)

// Column is a parsed spreadsheet header.
type Column struct {
	Label  string
	Scopes []string
	Marker rune
	Key    string
}

// ParseHeader parses a spreadsheet column header. Headers without a marker
// are plain record fields (id, author, created_at, description).
func ParseHeader(h string) Column {
	h = strings.TrimSpace(h)
	m := headerPattern.FindStringSubmatch(h)
	if m == nil {
		return Column{Label: h, Key: strings.ToLower(h)}
	}
	col := Column{
		Label:  strings.TrimSpace(m[1]),
		Marker: rune(m[3][0]),
		Key:    strings.TrimSpace(m[4]),
	}
	for _, s := range strings.Split(m[2], ",") {
		if s = strings.TrimSpace(s); s != "" {
			col.Scopes = append(col.Scopes, s)
		}
	}
	return col
}

// ParseSheet reads CSV rows into import records. The first row holds the
// headers; empty rows are skipped.
func ParseSheet(r io.Reader) ([]domain.ImportRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := make([]Column, len(header))
	for i, h := range header {
		cols[i] = ParseHeader(h)
	}

	var records []domain.ImportRecord
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return records, fmt.Errorf("row %d: %w", line, err)
		}
		raw := rowRecord(cols, row)
		if len(raw) == 0 {
			continue
		}
		rec, err := DecodeRecord(raw)
		if err != nil {
			return records, fmt.Errorf("row %d: %w", line, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// rowRecord translates one row into the raw record shape DecodeRecord
// reads, so spreadsheet imports share the JSON import path.
func rowRecord(cols []Column, row []string) map[string]any {
	raw := map[string]any{}
	var titles []any
	occurrences := map[string]any{}
	links := map[string]any{}

	for i, cell := range row {
		if i >= len(cols) {
			break
		}
		cell = strings.TrimSpace(cell)
		if cell == "" {
			continue
		}
		col := cols[i]
		switch col.Marker {
		case MarkerTitle:
			titles = append(titles, map[string]any{"name": cell, "scopes": stringsToAny(col.Scopes)})
		case MarkerKind:
			raw["kind"] = cell
		case MarkerLink:
			links[col.Key] = append(listOf(links[col.Key]), linkCells(col, cell)...)
		case MarkerOccurrence:
			item := map[string]any{"scopes": stringsToAny(col.Scopes)}
			if looksLikeURI(cell) {
				item["uri"] = cell
			} else {
				item["content"] = cell
			}
			occurrences[col.Key] = append(listOf(occurrences[col.Key]), item)
		default:
			raw[col.Key] = cell
		}
	}

	if len(titles) > 0 {
		raw["title"] = titles
	}
	if len(occurrences) > 0 {
		raw["occurrences"] = occurrences
	}
	if len(links) > 0 {
		raw["links"] = links
	}
	return raw
}

func linkCells(col Column, cell string) []any {
	var out []any
	for _, v := range strings.Split(cell, ";") {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if col.Key == domain.LinkAliasFor || col.Key == domain.LinkOccurrence {
			out = append(out, v)
			continue
		}
		out = append(out, map[string]any{"t2": v, "scopes": stringsToAny(col.Scopes)})
	}
	return out
}

func listOf(v any) []any {
	l, _ := v.([]any)
	return l
}

func stringsToAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
