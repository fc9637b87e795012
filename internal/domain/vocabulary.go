package domain

import "strings"

// BaseNamespace holds the system's own bootstrap vocabulary. Topics under it
// are authoritative and are never altered by ordinary imports once they exist.
const BaseNamespace = "lore.pub/t"

// Well-known topic ids in the base namespace.
const (
	KindWebsite     = BaseNamespace + "/website"
	KindDescription = BaseNamespace + "/description"
	KindArticle     = BaseNamespace + "/article"
	KindPerson      = BaseNamespace + "/person"
	KindRole        = BaseNamespace + "/role"
	KindAssociation = BaseNamespace + "/association"
	KindLanguage    = BaseNamespace + "/language"
)

// UserMarker is appended to a candidate id to ask for a user-style
// identity (name@domain) instead of a path under a namespace.
const UserMarker = "@"

// LanguageCodes are the ISO 639-1 codes recognized as language scopes.
var LanguageCodes = []string{"da", "de", "en", "es", "fi", "fr", "is", "it", "no", "sv"}

var languageSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(LanguageCodes))
	for _, c := range LanguageCodes {
		m[c] = struct{}{}
	}
	return m
}()

// Vocabulary holds the well-known topic ids of one reserved namespace and
// recognizes language scopes under it and under the resolution bases.
type Vocabulary struct {
	Namespace   string
	Website     string
	Description string
	Article     string
	Person      string
	Role        string
	Association string
	Language    string

	languageNamespaces []string
}

// NewVocabulary derives the well-known ids from namespace. Language codes
// directly under namespace or any of bases count as language scopes. An
// empty namespace means BaseNamespace.
func NewVocabulary(namespace string, bases ...string) *Vocabulary {
	namespace = strings.TrimRight(namespace, "/")
	if namespace == "" {
		namespace = BaseNamespace
	}
	v := &Vocabulary{
		Namespace:   namespace,
		Website:     namespace + "/website",
		Description: namespace + "/description",
		Article:     namespace + "/article",
		Person:      namespace + "/person",
		Role:        namespace + "/role",
		Association: namespace + "/association",
		Language:    namespace + "/language",
	}
	v.languageNamespaces = append(v.languageNamespaces, namespace)
	for _, b := range bases {
		if b = strings.TrimRight(b, "/"); b != "" && b != namespace {
			v.languageNamespaces = append(v.languageNamespaces, b)
		}
	}
	return v
}

// DefaultVocabulary is the vocabulary of BaseNamespace.
var DefaultVocabulary = NewVocabulary(BaseNamespace)

// IsLanguageScope reports whether id is a bare language code ("en") or a
// code directly under one of the vocabulary's namespaces ("lore.pub/w/en").
func (v *Vocabulary) IsLanguageScope(id string) bool {
	if _, ok := languageSet[id]; ok {
		return true
	}
	for _, ns := range v.languageNamespaces {
		if code, ok := strings.CutPrefix(id, ns+"/"); ok {
			if _, ok := languageSet[code]; ok {
				return true
			}
		}
	}
	return false
}

// IsLanguageScope is DefaultVocabulary.IsLanguageScope.
func IsLanguageScope(id string) bool {
	return DefaultVocabulary.IsLanguageScope(id)
}

// Relation is the (kind, r1, r2) triple an import link key expands to.
type Relation struct {
	Kind string
	R1   string
	R2   string
}

// Link keys with a special meaning in import records.
const (
	LinkAliasFor   = "alias_for"
	LinkOccurrence = "occurrence"
)

// AliasRelation links an alias topic to its primary topic.
var AliasRelation = Relation{Kind: "alternative_naming", R1: "alias", R2: "primary"}

// AuthorRelation links a work to its author.
var AuthorRelation = Relation{Kind: "authorship", R1: "work", R2: "author"}

// Relations maps import link keys to the association they create.
var Relations = map[string]Relation{
	"mention":     {Kind: "link", R1: "source", R2: "target"},
	"category":    {Kind: "categorization", R1: "sample", R2: "category"},
	"part_of":     {Kind: "inclusion", R1: "part", R2: "whole"},
	"ruler":       {Kind: "rulership", R1: "demesne", R2: "ruler"},
	"correlation": {Kind: "correlation", R1: "relation", R2: "relation"},
}

// LookupRelation returns the relation for an import link key.
func LookupRelation(key string) (Relation, bool) {
	r, ok := Relations[key]
	return r, ok
}
