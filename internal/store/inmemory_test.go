package store

import (
	"context"
	"testing"
	"time"

	"github.com/Harshitk-cp/topicgraph/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryTopicStore_FetchUnknown(t *testing.T) {
	s := NewMemoryTopicStore()
	_, err := s.FetchByID(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryTopicStore_RoundTripIsolated(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryTopicStore()

	topic := domain.NewTopic("example.org/t/foo", time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, topic.AddName("Foo", nil, -1))
	require.NoError(t, s.BulkUpsert(ctx, []*domain.Topic{topic}))

	// Mutating the caller's copy must not reach the store.
	require.NoError(t, topic.AddName("Bar", nil, -1))

	got, err := s.FetchByID(ctx, "example.org/t/foo")
	require.NoError(t, err)
	assert.False(t, got.Dirty())
	require.Len(t, got.Names, 1)
	assert.Equal(t, "Foo", got.Names[0].Name)

	got.Names[0].Name = "changed"
	again, err := s.FetchByID(ctx, "example.org/t/foo")
	require.NoError(t, err)
	assert.Equal(t, "Foo", again.Names[0].Name)

	assert.Equal(t, []string{"example.org/t/foo"}, s.IDs())
	assert.Equal(t, 1, s.Upserts())
}

func TestMemoryTopicStore_UpsertReplaces(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryTopicStore()
	now := time.Now().UTC()

	a := domain.NewTopic("a", now)
	require.NoError(t, s.BulkUpsert(ctx, []*domain.Topic{a, nil}))
	a.SetKind("k")
	require.NoError(t, s.BulkUpsert(ctx, []*domain.Topic{a}))

	got, err := s.FetchByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "k", got.Kind)
	assert.Equal(t, 1, s.Len())
}

func TestMemoryTopicStore_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewMemoryTopicStore()
	err := s.BulkUpsert(ctx, []*domain.Topic{domain.NewTopic("a", time.Now())})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, s.Len())
}

func TestTopicProps_RoundTrip(t *testing.T) {
	created := time.Date(2019, 5, 1, 12, 0, 0, 0, time.UTC)
	topic := domain.NewTopic("example.org/t/foo", created)
	require.NoError(t, topic.AddName("Foo", []string{"en"}, -1))
	require.NoError(t, topic.AddOccurrence(domain.Occurrence{URI: "https://foo.example"}))
	require.NoError(t, topic.AddAssociation(domain.AssociationInput{T2: "bar", Kind: "mention", R1: "r1", R2: "r2", OneWay: true}, nil))

	props, err := topicProps(topic)
	require.NoError(t, err)
	assert.Equal(t, "Foo", props["name"])

	got, err := topicFromProps(props)
	require.NoError(t, err)
	assert.Equal(t, topic.ID, got.ID)
	assert.Equal(t, topic.Names, got.Names)
	assert.Equal(t, topic.Occurrences, got.Occurrences)
	assert.Equal(t, topic.Associations, got.Associations)
	assert.True(t, created.Equal(got.CreatedAt))
}

func TestOpenBackends_DefaultsToMemory(t *testing.T) {
	b, err := OpenBackends(context.Background(), BackendConfig{}, nil)
	require.NoError(t, err)
	defer b.Close()

	_, ok := b.Store.(*MemoryTopicStore)
	assert.True(t, ok)
	assert.Empty(t, b.Mirrors)
	assert.Nil(t, b.Ping)
}

func TestOpenBackends_PrimaryNeedsItsConnection(t *testing.T) {
	ctx := context.Background()
	for _, primary := range []string{PrimaryPostgres, PrimaryNeo4j, "sqlite"} {
		t.Run(primary, func(t *testing.T) {
			b, err := OpenBackends(ctx, BackendConfig{Primary: primary}, nil)
			require.Error(t, err)
			assert.Nil(t, b)
		})
	}

	b, err := OpenBackends(ctx, BackendConfig{Primary: PrimaryMemory}, nil)
	require.NoError(t, err)
	defer b.Close()
	_, ok := b.Store.(*MemoryTopicStore)
	assert.True(t, ok)
}
