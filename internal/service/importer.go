package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Harshitk-cp/topicgraph/internal/domain"
	"github.com/Harshitk-cp/topicgraph/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ImportConfig holds the namespace and scope settings shared by all batches.
type ImportConfig struct {
	Bases               []string
	ReservedNamespace   string
	DefaultScopes       []string
	DefaultAssociations []domain.AssociationInput
}

// BatchOptions tune a single batch.
type BatchOptions struct {
	// DefaultScopes are added to the service-wide default scopes.
	DefaultScopes []string
	// DryRun builds the topic graph but commits nothing.
	DryRun bool
}

// ParseDefaultAssociations reads "relation=target" entries such as
// "category=imported" into default associations. The relation is an import
// link key; target, kind and roles are resolved when a topic is created.
func ParseDefaultAssociations(entries []string) ([]domain.AssociationInput, error) {
	out := make([]domain.AssociationInput, 0, len(entries))
	for _, e := range entries {
		key, target, ok := strings.Cut(e, "=")
		key, target = strings.TrimSpace(key), strings.TrimSpace(target)
		if !ok || key == "" || target == "" {
			return nil, domain.NewValidationError("default_associations", fmt.Sprintf("%q is not relation=target", e))
		}
		rel, ok := domain.LookupRelation(key)
		if !ok {
			return nil, domain.NewValidationError("default_associations", fmt.Sprintf("unknown relation %q", key))
		}
		out = append(out, domain.AssociationInput{T2: target, Kind: rel.Kind, R1: rel.R1, R2: rel.R2})
	}
	return out, nil
}

// ImportService runs import batches: records are applied one by one to a
// batch-local topic cache, then all changed topics are written with a
// single bulk upsert. Batches never run concurrently.
type ImportService struct {
	store   domain.TopicStore
	mirrors []domain.TopicSink
	cfg     ImportConfig
	metrics *ImportMetrics
	logger  *zap.Logger

	mu sync.Mutex
}

func NewImportService(topicStore domain.TopicStore, cfg ImportConfig, metrics *ImportMetrics, logger *zap.Logger) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportService{
		store:   topicStore,
		cfg:     cfg,
		metrics: metrics,
		logger:  logger,
	}
}

// AddMirror registers a sink that receives every committed batch.
// Mirror failures are logged and do not fail the batch.
func (s *ImportService) AddMirror(sink domain.TopicSink) {
	s.mirrors = append(s.mirrors, sink)
}

// NewFactory builds a factory with a fresh cache for one batch.
func (s *ImportService) NewFactory(opts BatchOptions) *TopicFactory {
	scopes := append(append([]string{}, s.cfg.DefaultScopes...), opts.DefaultScopes...)
	return NewTopicFactory(ImportContext{
		Bases:               s.cfg.Bases,
		ReservedNamespace:   s.cfg.ReservedNamespace,
		DefaultScopes:       scopes,
		DefaultAssociations: s.cfg.DefaultAssociations,
		Cache:               NewTopicCache(s.store, s.metrics),
	}, s.logger)
}

// Topic returns the stored topic for id. Short ids and names are slugified
// and resolved against the configured bases, as imports do.
func (s *ImportService) Topic(ctx context.Context, id string) (*domain.Topic, error) {
	f := s.NewFactory(BatchOptions{})
	basedID, err := f.Basify(ctx, Slugify(id))
	if err != nil {
		return nil, err
	}
	t, err := f.Cache().Fetch(ctx, basedID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, store.ErrNotFound
	}
	return t, nil
}

// ImportBatch imports records in order and commits the result. A failing
// record is reported and skipped; only store errors fail the batch.
func (s *ImportService) ImportBatch(ctx context.Context, records []domain.ImportRecord, opts BatchOptions) (*domain.ImportReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := &domain.ImportReport{
		BatchID:   uuid.New(),
		StartedAt: time.Now().UTC(),
		DryRun:    opts.DryRun,
		Outcomes:  make([]domain.ImportOutcome, 0, len(records)),
	}
	log := s.logger.With(zap.String("batch_id", report.BatchID.String()))
	f := s.NewFactory(opts)

	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("import batch interrupted after %d records: %w", i, err)
		}
		outcome := s.ImportRecord(ctx, f, rec)
		outcome.Index = i
		report.Outcomes = append(report.Outcomes, outcome)
		s.metrics.recordOutcome(outcome.Status)

		switch outcome.Status {
		case domain.ImportFailed:
			log.Warn("record import failed",
				zap.Int("index", i),
				zap.String("record", outcome.Record),
				zap.String("error", outcome.Error))
		case domain.ImportSkipped:
			log.Info("record targets a protected topic, skipped",
				zap.Int("index", i),
				zap.String("topic_id", outcome.TopicID))
		}
	}

	if err := s.commit(ctx, f, report, log); err != nil {
		return report, err
	}
	return report, nil
}

// Bootstrap creates the reserved-namespace vocabulary. Running it again
// changes nothing.
func (s *ImportService) Bootstrap(ctx context.Context) (*domain.ImportReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := &domain.ImportReport{BatchID: uuid.New(), StartedAt: time.Now().UTC()}
	log := s.logger.With(zap.String("batch_id", report.BatchID.String()))

	reserved := s.cfg.ReservedNamespace
	if reserved == "" {
		reserved = domain.BaseNamespace
	}
	f := NewTopicFactory(ImportContext{
		Bases:             []string{reserved},
		ReservedNamespace: reserved,
		Cache:             NewTopicCache(s.store, s.metrics),
	}, s.logger)

	if err := Bootstrap(ctx, f); err != nil {
		return report, err
	}
	if err := s.commit(ctx, f, report, log); err != nil {
		return report, err
	}
	return report, nil
}

func (s *ImportService) commit(ctx context.Context, f *TopicFactory, report *domain.ImportReport, log *zap.Logger) error {
	dirty := f.Cache().Dirty()
	stats := f.Cache().Stats()
	report.CacheHits = stats.Hits
	report.CacheMisses = stats.Misses
	report.TopicsUpserted = len(dirty)
	defer func() {
		report.FinishedAt = time.Now().UTC()
		s.metrics.observeBatch(report.FinishedAt.Sub(report.StartedAt))
	}()

	if report.DryRun || len(dirty) == 0 {
		log.Info("import batch finished",
			zap.Int("records", len(report.Outcomes)),
			zap.Int("changed_topics", len(dirty)),
			zap.Bool("dry_run", report.DryRun))
		return nil
	}

	if s.store == nil {
		return errors.New("import batch: no topic store configured")
	}
	if err := s.store.BulkUpsert(ctx, dirty); err != nil {
		return fmt.Errorf("bulk upsert %d topics: %w", len(dirty), err)
	}
	for _, m := range s.mirrors {
		if err := m.BulkUpsert(ctx, dirty); err != nil {
			log.Warn("topic mirror upsert failed (continuing)", zap.Error(err))
		}
	}
	for _, t := range dirty {
		t.MarkClean()
	}
	s.metrics.upserted(len(dirty))

	log.Info("import batch committed",
		zap.Int("records", len(report.Outcomes)),
		zap.Int("ok", report.Count(domain.ImportOK)),
		zap.Int("warned", report.Count(domain.ImportWarned)),
		zap.Int("skipped", report.Count(domain.ImportSkipped)),
		zap.Int("failed", report.Count(domain.ImportFailed)),
		zap.Int("topics_upserted", len(dirty)),
		zap.Int("cache_hits", stats.Hits),
		zap.Int("cache_misses", stats.Misses))
	return nil
}

// ImportRecord applies one record to the factory's topic graph.
func (s *ImportService) ImportRecord(ctx context.Context, f *TopicFactory, rec domain.ImportRecord) domain.ImportOutcome {
	out := domain.ImportOutcome{Record: rec.Label()}
	out.Warnings = append(out.Warnings, rec.Warnings...)
	warn := func(key, msg string) {
		w := domain.ResolutionWarning{RecordID: out.Record, Key: key, Message: msg}
		out.Warnings = append(out.Warnings, w)
		s.logger.Warn("import warning",
			zap.String("record_id", w.RecordID),
			zap.String("key", w.Key),
			zap.String("message", w.Message))
	}
	fail := func(err error) domain.ImportOutcome {
		out.Status = domain.ImportFailed
		out.Error = err.Error()
		return out
	}

	res, err := f.Upsert(ctx, MakeTopicInput{
		ID:          rec.ID,
		Names:       rec.Title,
		Description: rec.Description,
		Kind:        rec.Kind,
		CreatedAt:   rec.CreatedAt,
	})
	if err != nil {
		return fail(err)
	}
	t := res.Topic
	out.TopicID = t.ID
	if res.Protected {
		out.Status = domain.ImportSkipped
		return out
	}

	if rec.Author != "" {
		author, err := f.MakeTopic(ctx, MakeTopicInput{
			Names:  []domain.NameInput{domain.PlainName(rec.Author)},
			Kind:   f.Vocabulary().Person,
			IsUser: true,
		})
		if err != nil {
			return fail(fmt.Errorf("author %q: %w", rec.Author, err))
		}
		if _, err := f.Link(ctx, t, author.ID, domain.AuthorRelation, nil); err != nil {
			return fail(fmt.Errorf("author %q: %w", rec.Author, err))
		}
	}

	for _, group := range rec.Occurrences {
		kind, err := f.Basify(ctx, Slugify(group.Kind))
		if err != nil {
			return fail(fmt.Errorf("occurrence kind %q: %w", group.Kind, err))
		}
		for _, item := range group.Items {
			scopes, err := f.ScopeIDs(ctx, item.Scopes)
			if err != nil {
				return fail(err)
			}
			occ := domain.Occurrence{URI: item.URI, Content: item.Content, Kind: kind, Scopes: scopes}
			if err := t.AddOccurrence(occ); err != nil {
				return fail(fmt.Errorf("occurrence %q: %w", group.Kind, err))
			}
		}
	}

	for _, uri := range rec.OccurrenceLinks {
		scopes, err := f.ScopeIDs(ctx, nil)
		if err != nil {
			return fail(err)
		}
		if err := t.AddOccurrence(domain.Occurrence{URI: uri, Kind: f.Vocabulary().Website, Scopes: scopes}); err != nil {
			return fail(fmt.Errorf("occurrence link %q: %w", uri, err))
		}
	}

	for _, alias := range rec.AliasFor {
		if strings.TrimSpace(alias) == "" {
			warn(domain.LinkAliasFor, "empty alias target")
			continue
		}
		primaryID, err := f.Basify(ctx, Slugify(alias))
		if err != nil {
			return fail(err)
		}
		existing, err := f.Cache().Fetch(ctx, primaryID)
		if err != nil {
			return fail(err)
		}
		if existing != nil && !res.Created && primaryID != t.ID {
			// Both topics already existed: they should be merged, which is
			// not supported. Link them and leave the merge to an operator.
			warn(domain.LinkAliasFor, fmt.Sprintf("%s and %s are aliases and should be merged", t.ID, primaryID))
		}
		if _, err := f.Link(ctx, t, primaryID, domain.AliasRelation, nil); err != nil {
			return fail(fmt.Errorf("alias %q: %w", alias, err))
		}
	}

	for _, links := range rec.Relations {
		rel, ok := domain.LookupRelation(links.Key)
		if !ok {
			warn(links.Key, "unknown relation key, skipped")
			continue
		}
		for _, target := range links.Targets {
			if strings.TrimSpace(target.T2) == "" {
				warn(links.Key, "link without target, skipped")
				continue
			}
			if _, err := f.Link(ctx, t, target.T2, rel, target.Scopes); err != nil {
				return fail(fmt.Errorf("%s link to %q: %w", links.Key, target.T2, err))
			}
		}
	}

	out.Status = domain.ImportOK
	if len(out.Warnings) > 0 {
		out.Status = domain.ImportWarned
	}
	return out
}
