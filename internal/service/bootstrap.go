package service

import (
	"context"
	"fmt"

	"github.com/Harshitk-cp/topicgraph/internal/domain"
)

var vocabularyKinds = []struct {
	id, name string
}{
	{"language", "Language"},
	{"person", "Person"},
	{"role", "Role"},
	{"association", "Association"},
	{"website", "Website"},
	{"description", "Description"},
	{"article", "Article"},
}

var languageNames = map[string]string{
	"da": "Danish", "de": "German", "en": "English", "es": "Spanish", "fi": "Finnish",
	"fr": "French", "is": "Icelandic", "it": "Italian", "no": "Norwegian", "sv": "Swedish",
}

type associationVerbs struct {
	rel          domain.Relation
	verb1, verb2 string
}

var vocabularyAssociations = []associationVerbs{
	{domain.Relations["mention"], "links to", "is linked from"},
	{domain.Relations["category"], "is categorized as", "contains"},
	{domain.Relations["part_of"], "is part of", "includes"},
	{domain.Relations["ruler"], "is ruled by", "rules"},
	{domain.Relations["correlation"], "correlates with", "correlates with"},
	{domain.AliasRelation, "is an alias of", "has alias"},
	{domain.AuthorRelation, "is written by", "is author of"},
}

// Bootstrap creates the base-namespace topics every import relies on:
// kinds, language scopes and one association vocabulary per relation.
// f must resolve unqualified ids into the reserved namespace.
func Bootstrap(ctx context.Context, f *TopicFactory) error {
	for _, k := range vocabularyKinds {
		_, err := f.MakeTopic(ctx, MakeTopicInput{ID: k.id, Names: []domain.NameInput{domain.PlainName(k.name)}})
		if err != nil {
			return fmt.Errorf("bootstrap kind %s: %w", k.id, err)
		}
	}

	for _, code := range domain.LanguageCodes {
		_, err := f.MakeTopic(ctx, MakeTopicInput{
			ID:    code,
			Names: []domain.NameInput{domain.PlainName(languageNames[code])},
			Kind:  f.Vocabulary().Language,
		})
		if err != nil {
			return fmt.Errorf("bootstrap language %s: %w", code, err)
		}
	}

	for _, a := range vocabularyAssociations {
		if _, err := f.MakeAssociation(ctx, a.rel.Kind, a.rel.R1, a.verb1, a.rel.R2, a.verb2); err != nil {
			return fmt.Errorf("bootstrap association %s: %w", a.rel.Kind, err)
		}
	}
	return nil
}
