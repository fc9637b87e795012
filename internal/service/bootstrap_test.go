package service

import (
	"context"
	"testing"

	"github.com/Harshitk-cp/topicgraph/internal/domain"
	"github.com/Harshitk-cp/topicgraph/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBootstrap_CreatesVocabulary(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryTopicStore()
	svc := NewImportService(s, testImportConfig, nil, nil)

	report, err := svc.Bootstrap(ctx)
	require.NoError(t, err)
	assert.Equal(t, 37, report.TopicsUpserted)

	for _, id := range []string{
		domain.KindPerson, domain.KindLanguage, domain.KindWebsite,
		"lore.pub/t/en", "lore.pub/t/sv",
		"lore.pub/t/inclusion", "lore.pub/t/part", "lore.pub/t/whole",
		"lore.pub/t/alternative_naming", "lore.pub/t/authorship",
	} {
		_, err := s.FetchByID(ctx, id)
		assert.NoError(t, err, id)
	}

	en, err := s.FetchByID(ctx, "lore.pub/t/en")
	require.NoError(t, err)
	assert.Equal(t, domain.KindLanguage, en.Kind)
	assert.Equal(t, "English", en.DisplayName())

	inclusion, err := s.FetchByID(ctx, "lore.pub/t/inclusion")
	require.NoError(t, err)
	assert.Equal(t, domain.KindAssociation, inclusion.Kind)
	assert.Equal(t, []domain.Name{
		{Name: "is part of", Scopes: []string{"lore.pub/t/part"}},
		{Name: "includes", Scopes: []string{"lore.pub/t/whole"}},
	}, inclusion.Names)

	correlation, err := s.FetchByID(ctx, "lore.pub/t/correlation")
	require.NoError(t, err)
	assert.Len(t, correlation.Names, 1)
}

func TestBootstrap_Idempotent(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryTopicStore()
	svc := NewImportService(s, testImportConfig, nil, nil)

	_, err := svc.Bootstrap(ctx)
	require.NoError(t, err)
	before, err := s.FetchByID(ctx, "lore.pub/t/inclusion")
	require.NoError(t, err)

	report, err := svc.Bootstrap(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, report.TopicsUpserted)
	assert.Equal(t, 1, s.Upserts())

	after, err := s.FetchByID(ctx, "lore.pub/t/inclusion")
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestBootstrap_ResolvesRelationsIntoReservedNamespace(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryTopicStore()
	svc := NewImportService(s, testImportConfig, nil, nil)
	_, err := svc.Bootstrap(ctx)
	require.NoError(t, err)

	_, err = svc.ImportBatch(ctx, []domain.ImportRecord{{
		ID:        "oslo",
		Relations: []domain.RelationLinks{{Key: "part_of", Targets: []domain.LinkTarget{{T2: "norway", Scopes: []string{"en"}}}}},
	}}, BatchOptions{})
	require.NoError(t, err)

	oslo, err := svc.Topic(ctx, "oslo")
	require.NoError(t, err)
	assert.Equal(t, []domain.Association{{
		R1: "lore.pub/t/part", Kind: "lore.pub/t/inclusion", R2: "lore.pub/t/whole",
		T2: "lore.pub/w/norway", Scopes: []string{},
	}}, oslo.Associations)
}
