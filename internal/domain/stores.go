package domain

import "context"

// TopicStore is the persistence provider behind the topic cache.
// FetchByID returns store.ErrNotFound for unknown ids. BulkUpsert is keyed
// by id and overwrites the full names, occurrences and associations arrays.
type TopicStore interface {
	FetchByID(ctx context.Context, id string) (*Topic, error)
	BulkUpsert(ctx context.Context, topics []*Topic) error
}

// TopicSink receives a copy of every committed batch (graph mirrors).
type TopicSink interface {
	BulkUpsert(ctx context.Context, topics []*Topic) error
}
