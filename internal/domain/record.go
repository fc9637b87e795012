package domain

import (
	"time"

	"github.com/google/uuid"
)

// NameInput is a name as supplied by an import adapter. A plain name has
// no scopes of its own; factory default scopes still apply.
type NameInput struct {
	Name   string   `json:"name"`
	Scopes []string `json:"scopes,omitempty"`
}

func PlainName(name string) NameInput {
	return NameInput{Name: name}
}

func ScopedName(name string, scopes ...string) NameInput {
	return NameInput{Name: name, Scopes: scopes}
}

// OccurrenceInput is one occurrence item of an import record.
type OccurrenceInput struct {
	URI     string   `json:"uri,omitempty"`
	Content string   `json:"content,omitempty"`
	Scopes  []string `json:"scopes,omitempty"`
}

// OccurrenceGroup holds the occurrences of one kind key, in input order.
type OccurrenceGroup struct {
	Kind  string            `json:"kind"`
	Items []OccurrenceInput `json:"items"`
}

// LinkTarget is one target of a relation link.
type LinkTarget struct {
	T2     string   `json:"t2"`
	Scopes []string `json:"scopes,omitempty"`
}

// RelationLinks holds the targets of one relation key, in input order.
type RelationLinks struct {
	Key     string       `json:"key"`
	Targets []LinkTarget `json:"targets"`
}

// ImportRecord is the typed form of a raw import record produced by the
// markdown, spreadsheet and JSON adapters.
type ImportRecord struct {
	ID              string            `json:"id,omitempty"`
	Title           []NameInput       `json:"title,omitempty"`
	Description     string            `json:"description,omitempty"`
	Author          string            `json:"author,omitempty"`
	Kind            string            `json:"kind,omitempty"`
	CreatedAt       *time.Time        `json:"created_at,omitempty"`
	Occurrences     []OccurrenceGroup `json:"occurrences,omitempty"`
	AliasFor        []string          `json:"alias_for,omitempty"`
	OccurrenceLinks []string          `json:"occurrence_links,omitempty"`
	Relations       []RelationLinks   `json:"relations,omitempty"`

	// Warnings raised while decoding the raw record; reported with the
	// record's import outcome.
	Warnings []ResolutionWarning `json:"-"`
}

// Label identifies the record in logs and reports.
func (r ImportRecord) Label() string {
	if r.ID != "" {
		return r.ID
	}
	if len(r.Title) > 0 {
		return r.Title[0].Name
	}
	return ""
}

type ImportStatus string

const (
	ImportOK      ImportStatus = "ok"
	ImportWarned  ImportStatus = "warned"
	ImportSkipped ImportStatus = "skipped"
	ImportFailed  ImportStatus = "failed"
)

// ImportOutcome is the result of importing a single record.
type ImportOutcome struct {
	Index    int                 `json:"index"`
	Record   string              `json:"record,omitempty"`
	TopicID  string              `json:"topic_id,omitempty"`
	Status   ImportStatus        `json:"status"`
	Warnings []ResolutionWarning `json:"warnings,omitempty"`
	Error    string              `json:"error,omitempty"`
}

// ImportReport summarizes one import batch.
type ImportReport struct {
	BatchID        uuid.UUID       `json:"batch_id"`
	StartedAt      time.Time       `json:"started_at"`
	FinishedAt     time.Time       `json:"finished_at"`
	DryRun         bool            `json:"dry_run"`
	Outcomes       []ImportOutcome `json:"outcomes"`
	TopicsUpserted int             `json:"topics_upserted"`
	CacheHits      int             `json:"cache_hits"`
	CacheMisses    int             `json:"cache_misses"`
}

// Count returns how many outcomes have the given status.
func (r *ImportReport) Count(status ImportStatus) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}
