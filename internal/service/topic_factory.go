package service

import (
	"context"
	"strings"
	"time"

	"github.com/Harshitk-cp/topicgraph/internal/domain"
	"go.uber.org/zap"
)

// ImportContext carries everything a factory needs for one batch. It
// replaces any notion of a current user or global registry.
type ImportContext struct {
	// Bases are the namespaces probed, in order, when resolving ids.
	Bases []string
	// ReservedNamespace topics are never modified once they exist.
	ReservedNamespace string
	// DefaultScopes are added to every name, occurrence and association.
	DefaultScopes []string
	// DefaultAssociations are added (one-way) to every newly created topic.
	// Their target, kind and roles are resolved like any other id.
	DefaultAssociations []domain.AssociationInput
	Cache               *TopicCache
}

// MakeTopicInput describes a topic to fetch or create and merge into.
type MakeTopicInput struct {
	ID          string
	Names       []domain.NameInput
	Description string
	Kind        string
	CreatedAt   *time.Time
	IsUser      bool
}

// UpsertResult reports what MakeTopic did.
type UpsertResult struct {
	Topic     *domain.Topic
	Created   bool
	Protected bool
}

// AssociationVocabulary is the set of topics created by MakeAssociation.
type AssociationVocabulary struct {
	Kind  *domain.Topic
	Role1 *domain.Topic
	Role2 *domain.Topic
}

// TopicFactory turns import input into topics. It is safe to run any
// number of times over the same input; it never persists anything itself.
type TopicFactory struct {
	ictx   ImportContext
	cache  *TopicCache
	vocab  *domain.Vocabulary
	logger *zap.Logger
	now    func() time.Time
}

func NewTopicFactory(ictx ImportContext, logger *zap.Logger) *TopicFactory {
	if ictx.Cache == nil {
		ictx.Cache = NewTopicCache(nil, nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TopicFactory{
		ictx:   ictx,
		cache:  ictx.Cache,
		vocab:  domain.NewVocabulary(ictx.ReservedNamespace, ictx.Bases...),
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (f *TopicFactory) Cache() *TopicCache {
	return f.cache
}

// Vocabulary returns the well-known ids of the reserved namespace.
func (f *TopicFactory) Vocabulary() *domain.Vocabulary {
	return f.vocab
}

// Basify resolves an id or name against the factory bases.
func (f *TopicFactory) Basify(ctx context.Context, candidate string) (string, error) {
	return Basify(ctx, candidate, f.ictx.Bases, f.cache.Exists)
}

// ScopeIDs basifies scopes and appends the factory default scopes.
func (f *TopicFactory) ScopeIDs(ctx context.Context, scopes []string) ([]string, error) {
	out := make([]string, 0, len(scopes)+len(f.ictx.DefaultScopes))
	for _, s := range append(append([]string{}, scopes...), f.ictx.DefaultScopes...) {
		if strings.TrimSpace(s) == "" {
			continue
		}
		id, err := f.Basify(ctx, Slugify(s))
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return domain.CleanScopes(out), nil
}

// IsProtected reports whether id lies in the reserved namespace.
func (f *TopicFactory) IsProtected(id string) bool {
	ns := strings.TrimRight(f.ictx.ReservedNamespace, "/")
	return ns != "" && strings.HasPrefix(id, ns+"/")
}

// MakeTopic fetches or creates a topic and merges the input into it.
func (f *TopicFactory) MakeTopic(ctx context.Context, in MakeTopicInput) (*domain.Topic, error) {
	res, err := f.Upsert(ctx, in)
	if err != nil {
		return nil, err
	}
	return res.Topic, nil
}

// Upsert is MakeTopic reporting whether the topic was created or left
// untouched because it is protected.
func (f *TopicFactory) Upsert(ctx context.Context, in MakeTopicInput) (UpsertResult, error) {
	candidate := in.ID
	if candidate == "" {
		for _, n := range in.Names {
			if strings.TrimSpace(n.Name) != "" {
				candidate = n.Name
				break
			}
		}
	}
	if strings.TrimSpace(candidate) == "" {
		return UpsertResult{}, domain.NewValidationError("id", "topic needs an id or a name")
	}
	if in.IsUser && !strings.HasSuffix(candidate, domain.UserMarker) && !userPattern.MatchString(candidate) {
		candidate += domain.UserMarker
	}

	slug := Slugify(candidate)
	if slug == "" || slug == domain.UserMarker {
		return UpsertResult{}, domain.NewValidationError("id", "id "+candidate+" has no usable characters")
	}
	basedID, err := f.Basify(ctx, slug)
	if err != nil {
		return UpsertResult{}, err
	}

	names := in.Names
	if len(names) == 1 && names[0].Name == basedID {
		names = nil
	}

	t, created, err := f.cache.FetchOrCreate(ctx, basedID, f.now())
	if err != nil {
		return UpsertResult{}, err
	}
	if created {
		f.logger.Debug("topic created", zap.String("topic_id", basedID))
	}

	if !created && f.IsProtected(basedID) {
		return UpsertResult{Topic: t, Protected: true}, nil
	}

	for _, n := range names {
		if strings.TrimSpace(n.Name) == "" {
			continue
		}
		scopes, err := f.ScopeIDs(ctx, n.Scopes)
		if err != nil {
			return UpsertResult{}, err
		}
		if err := t.AddName(n.Name, scopes, -1); err != nil {
			return UpsertResult{}, err
		}
	}

	if in.Description != "" {
		scopes, err := f.ScopeIDs(ctx, nil)
		if err != nil {
			return UpsertResult{}, err
		}
		err = t.AddOccurrence(domain.Occurrence{Content: in.Description, Kind: f.vocab.Description, Scopes: scopes})
		if err != nil {
			return UpsertResult{}, err
		}
	}

	if in.Kind != "" {
		kind, err := f.Basify(ctx, Slugify(in.Kind))
		if err != nil {
			return UpsertResult{}, err
		}
		t.SetKind(kind)
	}

	if in.CreatedAt != nil {
		t.ObserveCreatedAt(*in.CreatedAt)
	}

	if created {
		for _, tmpl := range f.ictx.DefaultAssociations {
			in, err := f.resolveAssociation(ctx, tmpl)
			if err != nil {
				return UpsertResult{}, err
			}
			if in.T2 == t.ID {
				continue
			}
			in.OneWay = true
			if err := t.AddAssociation(in, nil); err != nil {
				return UpsertResult{}, err
			}
		}
	}

	return UpsertResult{Topic: t, Created: created}, nil
}

// Resolver returns a ResolveFunc that fetches or creates topics by id.
func (f *TopicFactory) Resolver(ctx context.Context) domain.ResolveFunc {
	return func(id string) (*domain.Topic, error) {
		return f.MakeTopic(ctx, MakeTopicInput{ID: id})
	}
}

// Link adds a two-way association of the given relation between t and the
// topic named by target, creating the target if needed.
func (f *TopicFactory) Link(ctx context.Context, t *domain.Topic, target string, rel domain.Relation, scopes []string) (*domain.Topic, error) {
	other, err := f.MakeTopic(ctx, MakeTopicInput{ID: target})
	if err != nil {
		return nil, err
	}

	in, err := f.resolveAssociation(ctx, domain.AssociationInput{
		T2: other.ID, Kind: rel.Kind, R1: rel.R1, R2: rel.R2, Scopes: scopes,
	})
	if err != nil {
		return nil, err
	}

	resolve := func(id string) (*domain.Topic, error) {
		if id == other.ID {
			return other, nil
		}
		return f.Resolver(ctx)(id)
	}
	if err := t.AddAssociation(in, resolve); err != nil {
		return nil, err
	}
	return other, nil
}

// MakeAssociation creates the vocabulary for an association type: a kind
// topic named by each directional verb, scoped by the role that reads it,
// and the two role topics.
func (f *TopicFactory) MakeAssociation(ctx context.Context, label, role1, verb1, role2, verb2 string) (*AssociationVocabulary, error) {
	r1, err := f.MakeTopic(ctx, MakeTopicInput{Names: []domain.NameInput{domain.PlainName(role1)}, Kind: f.vocab.Role})
	if err != nil {
		return nil, err
	}
	r2, err := f.MakeTopic(ctx, MakeTopicInput{Names: []domain.NameInput{domain.PlainName(role2)}, Kind: f.vocab.Role})
	if err != nil {
		return nil, err
	}
	kind, err := f.MakeTopic(ctx, MakeTopicInput{
		ID: label,
		Names: []domain.NameInput{
			domain.ScopedName(verb1, r1.ID),
			domain.ScopedName(verb2, r2.ID),
		},
		Kind: f.vocab.Association,
	})
	if err != nil {
		return nil, err
	}
	return &AssociationVocabulary{Kind: kind, Role1: r1, Role2: r2}, nil
}

// resolveAssociation basifies the target, kind and roles of in, resolves
// its scopes and binds it to the factory vocabulary.
func (f *TopicFactory) resolveAssociation(ctx context.Context, in domain.AssociationInput) (domain.AssociationInput, error) {
	var err error
	if in.T2, err = f.Basify(ctx, Slugify(in.T2)); err != nil {
		return in, err
	}
	if in.Kind, err = f.Basify(ctx, Slugify(in.Kind)); err != nil {
		return in, err
	}
	if in.R1 != "" {
		if in.R1, err = f.Basify(ctx, Slugify(in.R1)); err != nil {
			return in, err
		}
	}
	if in.R2 != "" {
		if in.R2, err = f.Basify(ctx, Slugify(in.R2)); err != nil {
			return in, err
		}
	}
	if in.Scopes, err = f.ScopeIDs(ctx, in.Scopes); err != nil {
		return in, err
	}
	in.Vocabulary = f.vocab
	return in, nil
}
