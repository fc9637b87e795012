package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTopic(id string) *Topic {
	return NewTopic(id, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))
}

func resolverFor(topics ...*Topic) ResolveFunc {
	byID := make(map[string]*Topic, len(topics))
	for _, t := range topics {
		byID[t.ID] = t
	}
	return func(id string) (*Topic, error) {
		t, ok := byID[id]
		if !ok {
			return nil, errors.New("unknown topic " + id)
		}
		return t, nil
	}
}

func nameList(t *Topic) []string {
	out := make([]string, len(t.Names))
	for i, n := range t.Names {
		out[i] = n.Name
	}
	return out
}

func TestAddName(t *testing.T) {
	t.Run("rejects empty name", func(t *testing.T) {
		topic := newTestTopic("t1")
		err := topic.AddName("  ", nil, -1)
		require.Error(t, err)
		assert.True(t, IsValidationError(err))
		assert.Empty(t, topic.Names)
	})

	t.Run("cleans scopes", func(t *testing.T) {
		topic := newTestTopic("t1")
		require.NoError(t, topic.AddName("Foo", []string{"sv", "en", "en"}, -1))
		assert.Equal(t, []string{"en", "sv"}, topic.Names[0].Scopes)
	})

	t.Run("is idempotent", func(t *testing.T) {
		topic := newTestTopic("t1")
		require.NoError(t, topic.AddName("Foo", []string{"en"}, -1))
		topic.MarkClean()
		require.NoError(t, topic.AddName("Foo", []string{"en"}, -1))
		assert.Len(t, topic.Names, 1)
		assert.False(t, topic.Dirty())
	})

	t.Run("same name with other scopes is a new entry", func(t *testing.T) {
		topic := newTestTopic("t1")
		require.NoError(t, topic.AddName("Foo", []string{"en"}, -1))
		require.NoError(t, topic.AddName("Foo", []string{"sv"}, -1))
		assert.Len(t, topic.Names, 2)
	})

	t.Run("lowercase variant keeps first", func(t *testing.T) {
		topic := newTestTopic("t1")
		require.NoError(t, topic.AddName("Foo", nil, -1))
		require.NoError(t, topic.AddName("foo", nil, -1))
		assert.Equal(t, []string{"Foo"}, nameList(topic))
	})

	t.Run("capitalized variant is promoted", func(t *testing.T) {
		topic := newTestTopic("t1")
		require.NoError(t, topic.AddName("foo", nil, -1))
		require.NoError(t, topic.AddName("Foo", nil, -1))
		assert.Equal(t, "Foo", topic.Names[0].Name)
		assert.Equal(t, []string{"Foo", "foo"}, nameList(topic))
	})

	t.Run("capitalized variant of capitalized name goes after", func(t *testing.T) {
		topic := newTestTopic("t1")
		require.NoError(t, topic.AddName("Bar", nil, -1))
		require.NoError(t, topic.AddName("Foo", nil, -1))
		require.NoError(t, topic.AddName("FOO", nil, -1))
		assert.Equal(t, []string{"Bar", "Foo", "FOO"}, nameList(topic))
	})

	t.Run("explicit index", func(t *testing.T) {
		topic := newTestTopic("t1")
		require.NoError(t, topic.AddName("B", nil, -1))
		require.NoError(t, topic.AddName("A", nil, 0))
		require.NoError(t, topic.AddName("C", nil, 99))
		assert.Equal(t, []string{"A", "B", "C"}, nameList(topic))
	})
}

func TestFindNames(t *testing.T) {
	topic := newTestTopic("t1")
	require.NoError(t, topic.AddName("English t1", []string{"en"}, -1))
	require.NoError(t, topic.AddName("Svensk t1", []string{"sv", "canon"}, -1))
	require.NoError(t, topic.AddName("english T1", []string{"en", "canon"}, -1))

	assert.Len(t, topic.FindNames(NameQuery{}), 3)
	assert.Len(t, topic.FindNames(NameQuery{Scopes: []string{"canon"}}), 2)
	assert.Len(t, topic.FindNames(NameQuery{Name: "English t1"}), 1)
	assert.Len(t, topic.FindNames(NameQuery{Name: "english t1", CaseInsensitive: true}), 2)
	assert.Empty(t, topic.FindNames(NameQuery{Name: "english t1"}))

	first := topic.FindNames(NameQuery{Scopes: []string{"canon"}, First: true})
	require.Len(t, first, 1)
	assert.Equal(t, 1, first[0].Index)
	assert.Equal(t, "Svensk t1", first[0].Value.Name)
}

func TestAddOccurrence(t *testing.T) {
	t.Run("requires uri or content", func(t *testing.T) {
		topic := newTestTopic("t1")
		err := topic.AddOccurrence(Occurrence{})
		assert.True(t, IsValidationError(err))
	})

	t.Run("rejects both uri and content", func(t *testing.T) {
		topic := newTestTopic("t1")
		err := topic.AddOccurrence(Occurrence{URI: "https://x", Content: "x"})
		assert.True(t, IsValidationError(err))
	})

	t.Run("defaults kind", func(t *testing.T) {
		topic := newTestTopic("t1")
		require.NoError(t, topic.AddOccurrence(Occurrence{URI: "https://lore.pub"}))
		require.NoError(t, topic.AddOccurrence(Occurrence{Content: "A topic"}))
		assert.Equal(t, KindWebsite, topic.Occurrences[0].Kind)
		assert.Equal(t, KindDescription, topic.Occurrences[1].Kind)
	})

	t.Run("is idempotent regardless of scope order", func(t *testing.T) {
		topic := newTestTopic("t1")
		require.NoError(t, topic.AddOccurrence(Occurrence{Content: "desc", Scopes: []string{"sv", "en"}}))
		require.NoError(t, topic.AddOccurrence(Occurrence{Content: "desc", Scopes: []string{"en", "sv"}}))
		require.NoError(t, topic.AddOccurrence(Occurrence{Content: "desc", Kind: KindDescription, Scopes: []string{"en", "sv"}}))
		assert.Len(t, topic.Occurrences, 1)
	})

	t.Run("different scopes are distinct", func(t *testing.T) {
		topic := newTestTopic("t1")
		require.NoError(t, topic.AddOccurrence(Occurrence{Content: "desc", Scopes: []string{"en"}}))
		require.NoError(t, topic.AddOccurrence(Occurrence{Content: "desc"}))
		assert.Len(t, topic.Occurrences, 2)
	})
}

func TestFindOccurrences(t *testing.T) {
	topic := newTestTopic("t1")
	require.NoError(t, topic.AddOccurrence(Occurrence{URI: "https://a", Scopes: []string{"en"}}))
	require.NoError(t, topic.AddOccurrence(Occurrence{Content: "text", Kind: KindArticle, Scopes: []string{"en", "canon"}}))
	require.NoError(t, topic.AddOccurrence(Occurrence{Content: "text"}))

	assert.Len(t, topic.FindOccurrences(OccurrenceQuery{Content: "text"}), 2)
	assert.Len(t, topic.FindOccurrences(OccurrenceQuery{Content: "text", Kind: KindArticle}), 1)
	assert.Len(t, topic.FindOccurrences(OccurrenceQuery{Scopes: []string{"en"}}), 2)
	assert.Empty(t, topic.FindOccurrences(OccurrenceQuery{URI: "https://a", Kind: KindArticle}))
	assert.Len(t, topic.FindOccurrences(OccurrenceQuery{First: true}), 1)
}

func TestAddAssociation(t *testing.T) {
	t.Run("writes reciprocal", func(t *testing.T) {
		a, b := newTestTopic("a"), newTestTopic("b")
		err := a.AddAssociation(AssociationInput{T2: "b", Kind: "alternative_naming", R1: "alias", R2: "primary"}, resolverFor(a, b))
		require.NoError(t, err)

		assert.Equal(t, []Association{{R1: "alias", Kind: "alternative_naming", R2: "primary", T2: "b", Scopes: []string{}}}, a.Associations)
		got := b.FindAssociations(AssociationQuery{R1: "primary", Kind: "alternative_naming", R2: "alias", T2: "a"})
		assert.Len(t, got, 1)
	})

	t.Run("is idempotent", func(t *testing.T) {
		a, b := newTestTopic("a"), newTestTopic("b")
		in := AssociationInput{T2: "b", Kind: "link", R1: "source", R2: "target"}
		require.NoError(t, a.AddAssociation(in, resolverFor(a, b)))
		require.NoError(t, a.AddAssociation(in, resolverFor(a, b)))
		in.Scopes = []string{"canon"}
		require.NoError(t, a.AddAssociation(in, resolverFor(a, b)))
		assert.Len(t, a.Associations, 1)
		assert.Len(t, b.Associations, 1)
	})

	t.Run("heals missing reciprocal", func(t *testing.T) {
		a, b := newTestTopic("a"), newTestTopic("b")
		in := AssociationInput{T2: "b", Kind: "link", R1: "source", R2: "target", OneWay: true}
		require.NoError(t, a.AddAssociation(in, nil))
		assert.Empty(t, b.Associations)

		in.OneWay = false
		require.NoError(t, a.AddAssociation(in, resolverFor(a, b)))
		assert.Len(t, a.Associations, 1)
		assert.Len(t, b.Associations, 1)
	})

	t.Run("drops language scopes", func(t *testing.T) {
		a, b := newTestTopic("a"), newTestTopic("b")
		in := AssociationInput{T2: "b", Kind: "link", R1: "source", R2: "target", Scopes: []string{"en", "canon", BaseNamespace + "/sv"}}
		require.NoError(t, a.AddAssociation(in, resolverFor(a, b)))
		assert.Equal(t, []string{"canon"}, a.Associations[0].Scopes)
		assert.Equal(t, []string{"canon"}, b.Associations[0].Scopes)
	})

	t.Run("drops language scopes of the given vocabulary", func(t *testing.T) {
		a, b := newTestTopic("a"), newTestTopic("b")
		vocab := NewVocabulary("example.org/t", "example.org/t", "example.org/w")
		in := AssociationInput{
			T2: "b", Kind: "link", R1: "source", R2: "target",
			Scopes:     []string{"example.org/w/en", "example.org/t/sv", "example.org/w/canon"},
			Vocabulary: vocab,
		}
		require.NoError(t, a.AddAssociation(in, resolverFor(a, b)))
		assert.Equal(t, []string{"example.org/w/canon"}, a.Associations[0].Scopes)
		assert.Equal(t, []string{"example.org/w/canon"}, b.Associations[0].Scopes)
	})

	t.Run("empty roles are part of the key", func(t *testing.T) {
		a, b := newTestTopic("a"), newTestTopic("b")
		require.NoError(t, a.AddAssociation(AssociationInput{T2: "b", Kind: "link", R1: "source", R2: "target"}, resolverFor(a, b)))
		require.NoError(t, a.AddAssociation(AssociationInput{T2: "b", Kind: "link"}, resolverFor(a, b)))

		assert.Equal(t, []Association{
			{R1: "source", Kind: "link", R2: "target", T2: "b", Scopes: []string{}},
			{Kind: "link", T2: "b", Scopes: []string{}},
		}, a.Associations)
		assert.Len(t, b.Associations, 2)

		require.NoError(t, a.AddAssociation(AssociationInput{T2: "b", Kind: "link"}, resolverFor(a, b)))
		assert.Len(t, a.Associations, 2)
	})

	t.Run("validates input", func(t *testing.T) {
		a := newTestTopic("a")
		assert.True(t, IsValidationError(a.AddAssociation(AssociationInput{Kind: "link"}, nil)))
		assert.True(t, IsValidationError(a.AddAssociation(AssociationInput{T2: "b"}, nil)))
	})

	t.Run("two-way without resolver fails", func(t *testing.T) {
		a := newTestTopic("a")
		err := a.AddAssociation(AssociationInput{T2: "b", Kind: "link"}, nil)
		require.Error(t, err)
		assert.False(t, IsValidationError(err))
	})

	t.Run("resolver error is wrapped", func(t *testing.T) {
		a := newTestTopic("a")
		err := a.AddAssociation(AssociationInput{T2: "missing", Kind: "link"}, resolverFor(a))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing")
	})
}

func TestObserveCreatedAt(t *testing.T) {
	topic := newTestTopic("t1")
	topic.MarkClean()

	early := time.Date(2019, 6, 1, 0, 0, 0, 0, time.UTC)
	late := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.True(t, topic.ObserveCreatedAt(early))
	assert.Equal(t, early, topic.CreatedAt)
	assert.True(t, topic.Dirty())

	assert.False(t, topic.ObserveCreatedAt(late))
	assert.False(t, topic.ObserveCreatedAt(time.Time{}))
	assert.Equal(t, early, topic.CreatedAt)
}

func TestSetKind(t *testing.T) {
	topic := newTestTopic("t1")
	assert.True(t, topic.SetKind("person"))
	assert.False(t, topic.SetKind("person"))
	assert.False(t, topic.SetKind(""))
	assert.Equal(t, "person", topic.Kind)
}

func TestClone(t *testing.T) {
	topic := newTestTopic("t1")
	require.NoError(t, topic.AddName("Foo", []string{"en"}, -1))
	clone := topic.Clone()
	clone.Names[0].Scopes[0] = "sv"
	clone.Names[0].Name = "Bar"
	assert.Equal(t, "Foo", topic.Names[0].Name)
	assert.Equal(t, []string{"en"}, topic.Names[0].Scopes)
}
