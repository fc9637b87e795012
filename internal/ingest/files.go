package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Harshitk-cp/topicgraph/internal/domain"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// maxParallelFiles bounds concurrent file parsing.
const maxParallelFiles = 8

// LoadFiles parses import files concurrently and returns their records in
// path order. The format is chosen by extension: .md and .markdown (front
// matter), .csv (spreadsheet), .json and .yaml/.yml (a record or a list
// of records).
func LoadFiles(ctx context.Context, paths []string) ([]domain.ImportRecord, error) {
	results := make([][]domain.ImportRecord, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelFiles)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			content, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			recs, err := ParseFile(path, content)
			if err != nil {
				return err
			}
			results[i] = recs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []domain.ImportRecord
	for _, recs := range results {
		out = append(out, recs...)
	}
	return out, nil
}

// ParseFile parses the content of one import file.
func ParseFile(path string, content []byte) ([]domain.ImportRecord, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		rec, err := ParseFrontmatter(path, content)
		if err != nil {
			return nil, err
		}
		return []domain.ImportRecord{rec}, nil
	case ".csv":
		recs, err := ParseSheet(bytes.NewReader(content))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return recs, nil
	case ".json":
		var v any
		if err := json.Unmarshal(content, &v); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return DecodeAny(path, v)
	case ".yaml", ".yml":
		var v any
		if err := yaml.Unmarshal(content, &v); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return DecodeAny(path, v)
	default:
		return nil, fmt.Errorf("%s: unsupported file type", path)
	}
}

// DecodeAny decodes a single raw record or a list of them.
func DecodeAny(source string, v any) ([]domain.ImportRecord, error) {
	var raws []any
	switch t := v.(type) {
	case map[string]any:
		raws = []any{t}
	case []any:
		raws = t
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("%s: expected a record or a list of records, got %T", source, v)
	}

	out := make([]domain.ImportRecord, 0, len(raws))
	for i, r := range raws {
		m, ok := r.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s: record %d: expected an object, got %T", source, i, r)
		}
		rec, err := DecodeRecord(m)
		if err != nil {
			return nil, fmt.Errorf("%s: record %d: %w", source, i, err)
		}
		out = append(out, rec)
	}
	return out, nil
}
