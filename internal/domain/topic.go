package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Name is a display name for a topic, valid within its scopes.
type Name struct {
	Name   string   `json:"name"`
	Scopes []string `json:"scopes"`
}

// Occurrence is a fact attached to a topic: either a URI or inline content,
// typed by a kind topic. Exactly one of URI and Content is set.
type Occurrence struct {
	URI     string   `json:"uri,omitempty"`
	Content string   `json:"content,omitempty"`
	Kind    string   `json:"kind"`
	Scopes  []string `json:"scopes"`
}

// Association reads as "this topic plays R1 in a Kind relation with T2,
// who plays R2".
type Association struct {
	R1     string   `json:"r1"`
	Kind   string   `json:"kind"`
	R2     string   `json:"r2"`
	T2     string   `json:"t2"`
	Scopes []string `json:"scopes"`
}

// Topic is a node in the knowledge graph. All references to other topics
// (Kind, scopes, association targets) are plain ids resolved on demand.
type Topic struct {
	ID           string        `json:"id"`
	Kind         string        `json:"kind,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
	Names        []Name        `json:"names"`
	Occurrences  []Occurrence  `json:"occurrences"`
	Associations []Association `json:"associations"`

	dirty bool
}

func NewTopic(id string, now time.Time) *Topic {
	return &Topic{
		ID:           id,
		CreatedAt:    now,
		UpdatedAt:    now,
		Names:        []Name{},
		Occurrences:  []Occurrence{},
		Associations: []Association{},
		dirty:        true,
	}
}

// Dirty reports whether the topic changed since it was loaded or last saved.
func (t *Topic) Dirty() bool { return t.dirty }

func (t *Topic) MarkClean() { t.dirty = false }

func (t *Topic) touch() {
	t.UpdatedAt = time.Now().UTC()
	t.dirty = true
}

// DisplayName returns the canonical (first) name, or the id if unnamed.
func (t *Topic) DisplayName() string {
	if len(t.Names) > 0 {
		return t.Names[0].Name
	}
	return t.ID
}

// SetKind overwrites the topic kind. Returns true if it changed.
func (t *Topic) SetKind(kind string) bool {
	if kind == "" || kind == t.Kind {
		return false
	}
	t.Kind = kind
	t.touch()
	return true
}

// ObserveCreatedAt keeps the earliest known creation date.
func (t *Topic) ObserveCreatedAt(ts time.Time) bool {
	if ts.IsZero() {
		return false
	}
	if !t.CreatedAt.IsZero() && !ts.Before(t.CreatedAt) {
		return false
	}
	t.CreatedAt = ts.UTC()
	t.touch()
	return true
}

// Clone returns a deep copy that shares no slices with t.
func (t *Topic) Clone() *Topic {
	c := *t
	c.Names = make([]Name, len(t.Names))
	for i, n := range t.Names {
		c.Names[i] = Name{Name: n.Name, Scopes: slices.Clone(n.Scopes)}
	}
	c.Occurrences = make([]Occurrence, len(t.Occurrences))
	for i, o := range t.Occurrences {
		o.Scopes = slices.Clone(o.Scopes)
		c.Occurrences[i] = o
	}
	c.Associations = make([]Association, len(t.Associations))
	for i, a := range t.Associations {
		a.Scopes = slices.Clone(a.Scopes)
		c.Associations[i] = a
	}
	return &c
}

// Match is a finder result: the element and its position in the collection.
type Match[T any] struct {
	Index int
	Value T
}

// NameQuery selects names. Zero-valued fields are unspecified.
type NameQuery struct {
	Name            string
	Scopes          []string
	CaseInsensitive bool
	First           bool
}

func (t *Topic) FindNames(q NameQuery) []Match[Name] {
	var out []Match[Name]
	for i, n := range t.Names {
		if q.Name != "" && n.Name != q.Name {
			if !q.CaseInsensitive || !strings.EqualFold(n.Name, q.Name) {
				continue
			}
		}
		if !IsSubset(q.Scopes, n.Scopes) {
			continue
		}
		out = append(out, Match[Name]{Index: i, Value: n})
		if q.First {
			break
		}
	}
	return out
}

// OccurrenceQuery selects occurrences. All specified fields must hold.
type OccurrenceQuery struct {
	URI     string
	Content string
	Kind    string
	Scopes  []string
	First   bool
}

func (t *Topic) FindOccurrences(q OccurrenceQuery) []Match[Occurrence] {
	var out []Match[Occurrence]
	for i, o := range t.Occurrences {
		if q.URI != "" && o.URI != q.URI {
			continue
		}
		if q.Content != "" && o.Content != q.Content {
			continue
		}
		if q.Kind != "" && o.Kind != q.Kind {
			continue
		}
		if !IsSubset(q.Scopes, o.Scopes) {
			continue
		}
		out = append(out, Match[Occurrence]{Index: i, Value: o})
		if q.First {
			break
		}
	}
	return out
}

// AssociationQuery selects associations. All specified fields must hold.
type AssociationQuery struct {
	R1     string
	Kind   string
	R2     string
	T2     string
	Scopes []string
	First  bool
}

func (t *Topic) FindAssociations(q AssociationQuery) []Match[Association] {
	var out []Match[Association]
	for i, a := range t.Associations {
		if q.R1 != "" && a.R1 != q.R1 {
			continue
		}
		if q.Kind != "" && a.Kind != q.Kind {
			continue
		}
		if q.R2 != "" && a.R2 != q.R2 {
			continue
		}
		if q.T2 != "" && a.T2 != q.T2 {
			continue
		}
		if !IsSubset(q.Scopes, a.Scopes) {
			continue
		}
		out = append(out, Match[Association]{Index: i, Value: a})
		if q.First {
			break
		}
	}
	return out
}

// AddName adds a name unless an equal one already exists. A name differing
// only in case from an existing entry with the same scopes is placed next
// to it: a capitalized candidate goes before a lowercase entry, otherwise
// after it, and a lowercase variant of an existing name is dropped.
// index >= 0 inserts at that position when no variant exists.
func (t *Topic) AddName(name string, scopes []string, index int) error {
	if strings.TrimSpace(name) == "" {
		return NewValidationError("name", "name is required")
	}
	scopes = CleanScopes(scopes)
	key := ScopeKey(scopes)

	var variants []Match[Name]
	for _, m := range t.FindNames(NameQuery{Name: name, CaseInsensitive: true}) {
		if ScopeKey(m.Value.Scopes) != key {
			continue
		}
		if m.Value.Name == name {
			return nil
		}
		variants = append(variants, m)
	}

	entry := Name{Name: name, Scopes: scopes}
	switch {
	case len(variants) > 0:
		anchor := variants[0]
		if !isCapitalized(name) {
			return nil
		}
		pos := anchor.Index + 1
		if !isCapitalized(anchor.Value.Name) {
			pos = anchor.Index
		}
		t.Names = slices.Insert(t.Names, pos, entry)
	case index >= 0 && index < len(t.Names):
		t.Names = slices.Insert(t.Names, index, entry)
	default:
		t.Names = append(t.Names, entry)
	}
	t.touch()
	return nil
}

func isCapitalized(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsUpper(r)
}

// AddOccurrence adds an occurrence unless an identical one exists. Kind
// defaults to website for URIs and description for content.
func (t *Topic) AddOccurrence(o Occurrence) error {
	switch {
	case o.URI == "" && o.Content == "":
		return NewValidationError("occurrence", "uri or content is required")
	case o.URI != "" && o.Content != "":
		return NewValidationError("occurrence", "uri and content are mutually exclusive")
	}
	if o.Kind == "" {
		if o.URI != "" {
			o.Kind = KindWebsite
		} else {
			o.Kind = KindDescription
		}
	}
	o.Scopes = CleanScopes(o.Scopes)

	key := ScopeKey(o.Scopes)
	for _, m := range t.FindOccurrences(OccurrenceQuery{URI: o.URI, Content: o.Content, Kind: o.Kind}) {
		if m.Value.URI == o.URI && m.Value.Content == o.Content && ScopeKey(m.Value.Scopes) == key {
			return nil
		}
	}
	t.Occurrences = append(t.Occurrences, o)
	t.touch()
	return nil
}

// ResolveFunc fetches or creates the topic with the given id.
type ResolveFunc func(id string) (*Topic, error)

// AssociationInput describes an association to add. Unless OneWay is set
// the reciprocal is written on the target topic.
type AssociationInput struct {
	T2     string
	Kind   string
	R1     string
	R2     string
	Scopes []string
	OneWay bool
	// Vocabulary recognizes the language scopes to drop; nil means
	// DefaultVocabulary.
	Vocabulary *Vocabulary
}

// AddAssociation adds an association and, for two-way links, its
// reciprocal on the target. Language scopes are dropped. An existing
// association with exactly the same (r1, kind, r2, t2) counts as found
// even when its scopes differ.
func (t *Topic) AddAssociation(in AssociationInput, resolve ResolveFunc) error {
	if in.T2 == "" {
		return NewValidationError("t2", "association target is required")
	}
	if in.Kind == "" {
		return NewValidationError("kind", "association kind is required")
	}
	vocab := in.Vocabulary
	if vocab == nil {
		vocab = DefaultVocabulary
	}
	scopes := CleanScopesFunc(in.Scopes, vocab.IsLanguageScope)

	if !t.hasAssociation(in.R1, in.Kind, in.R2, in.T2) {
		t.Associations = append(t.Associations, Association{
			R1: in.R1, Kind: in.Kind, R2: in.R2, T2: in.T2, Scopes: scopes,
		})
		t.touch()
	}

	if in.OneWay {
		return nil
	}
	if resolve == nil {
		return fmt.Errorf("reciprocal association for %s: no resolver", in.T2)
	}
	other, err := resolve(in.T2)
	if err != nil {
		return fmt.Errorf("resolve association target %s: %w", in.T2, err)
	}
	if other == nil {
		return fmt.Errorf("resolve association target %s: not found", in.T2)
	}

	if !other.hasAssociation(in.R2, in.Kind, in.R1, t.ID) {
		other.Associations = append(other.Associations, Association{
			R1: in.R2, Kind: in.Kind, R2: in.R1, T2: t.ID, Scopes: slices.Clone(scopes),
		})
		other.touch()
	}
	return nil
}

// hasAssociation compares the whole (r1, kind, r2, t2) key; unlike
// FindAssociations, empty roles match only empty roles.
func (t *Topic) hasAssociation(r1, kind, r2, t2 string) bool {
	return slices.ContainsFunc(t.Associations, func(a Association) bool {
		return a.R1 == r1 && a.Kind == kind && a.R2 == r2 && a.T2 == t2
	})
}
