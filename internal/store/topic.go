package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Harshitk-cp/topicgraph/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const topicSchema = `
CREATE TABLE IF NOT EXISTS topics (
	id           TEXT PRIMARY KEY,
	kind         TEXT NOT NULL DEFAULT '',
	names        JSONB NOT NULL DEFAULT '[]',
	occurrences  JSONB NOT NULL DEFAULT '[]',
	associations JSONB NOT NULL DEFAULT '[]',
	created_at   TIMESTAMPTZ NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS topics_kind_idx ON topics (kind);
`

// TopicStore keeps one row per topic. Names, occurrences and associations
// are stored as JSONB arrays and always written whole.
type TopicStore struct {
	db *pgxpool.Pool
}

func NewTopicStore(db *pgxpool.Pool) *TopicStore {
	return &TopicStore{db: db}
}

// EnsureSchema creates the topics table if it does not exist.
func (s *TopicStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, topicSchema)
	return err
}

func (s *TopicStore) FetchByID(ctx context.Context, id string) (*domain.Topic, error) {
	t := &domain.Topic{}
	var names, occurrences, associations []byte
	err := s.db.QueryRow(ctx,
		`SELECT id, kind, names, occurrences, associations, created_at, updated_at
		 FROM topics WHERE id = $1`,
		id,
	).Scan(&t.ID, &t.Kind, &names, &occurrences, &associations, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal(names, &t.Names); err != nil {
		return nil, fmt.Errorf("topic %s names: %w", id, err)
	}
	if err := json.Unmarshal(occurrences, &t.Occurrences); err != nil {
		return nil, fmt.Errorf("topic %s occurrences: %w", id, err)
	}
	if err := json.Unmarshal(associations, &t.Associations); err != nil {
		return nil, fmt.Errorf("topic %s associations: %w", id, err)
	}
	return t, nil
}

// BulkUpsert writes all topics in one transaction. Existing rows are
// replaced field by field; created_at keeps the earliest value.
func (s *TopicStore) BulkUpsert(ctx context.Context, topics []*domain.Topic) error {
	if len(topics) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, t := range topics {
		names, err := json.Marshal(t.Names)
		if err != nil {
			return fmt.Errorf("topic %s names: %w", t.ID, err)
		}
		occurrences, err := json.Marshal(t.Occurrences)
		if err != nil {
			return fmt.Errorf("topic %s occurrences: %w", t.ID, err)
		}
		associations, err := json.Marshal(t.Associations)
		if err != nil {
			return fmt.Errorf("topic %s associations: %w", t.ID, err)
		}
		batch.Queue(
			`INSERT INTO topics (id, kind, names, occurrences, associations, created_at, updated_at)
			 VALUES ($1, $2, $3::jsonb, $4::jsonb, $5::jsonb, $6, $7)
			 ON CONFLICT (id) DO UPDATE SET
			     kind = EXCLUDED.kind,
			     names = EXCLUDED.names,
			     occurrences = EXCLUDED.occurrences,
			     associations = EXCLUDED.associations,
			     created_at = LEAST(topics.created_at, EXCLUDED.created_at),
			     updated_at = EXCLUDED.updated_at`,
			t.ID, t.Kind, string(names), string(occurrences), string(associations), t.CreatedAt, t.UpdatedAt,
		)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	br := tx.SendBatch(ctx, batch)
	for _, t := range topics {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("upsert topic %s: %w", t.ID, err)
		}
	}
	if err := br.Close(); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
