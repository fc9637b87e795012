package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/Harshitk-cp/topicgraph/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Primary store names.
const (
	PrimaryMemory   = "memory"
	PrimaryPostgres = "postgres"
	PrimaryNeo4j    = "neo4j"
)

// BackendConfig selects the stores to open. An empty Primary means
// postgres when DatabaseURL is set and memory otherwise. Neo4j mirrors the
// primary store when Neo4jURI is set and it is not the primary itself.
type BackendConfig struct {
	Primary       string
	DatabaseURL   string
	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string
	Neo4jDatabase string
}

// Backends are the opened stores. Close releases them.
type Backends struct {
	Store   domain.TopicStore
	Mirrors []domain.TopicSink
	Ping    func(ctx context.Context) error

	closers []func()
}

// OpenBackends connects the primary store and the optional graph mirror and
// makes sure their schemas exist.
func OpenBackends(ctx context.Context, cfg BackendConfig, logger *zap.Logger) (*Backends, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	primary := cfg.Primary
	if primary == "" {
		primary = PrimaryMemory
		if cfg.DatabaseURL != "" {
			primary = PrimaryPostgres
		}
	}

	b := &Backends{}
	var err error
	switch primary {
	case PrimaryMemory:
		logger.Warn("topics are kept in memory only")
		b.Store = NewMemoryTopicStore()
	case PrimaryPostgres:
		err = b.openPostgres(ctx, cfg, logger)
	case PrimaryNeo4j:
		var graph *Neo4jTopicStore
		if graph, err = b.openNeo4j(ctx, cfg, logger); err == nil {
			b.Store = graph
			b.Ping = graph.Ping
		}
	default:
		err = fmt.Errorf("unknown topic store %q", primary)
	}
	if err != nil {
		b.Close()
		return nil, err
	}

	if primary != PrimaryNeo4j && cfg.Neo4jURI != "" {
		graph, err := b.openNeo4j(ctx, cfg, logger)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.Mirrors = append(b.Mirrors, graph)
		logger.Info("neo4j mirror enabled", zap.String("uri", cfg.Neo4jURI))
	}
	return b, nil
}

func (b *Backends) openPostgres(ctx context.Context, cfg BackendConfig, logger *zap.Logger) error {
	if cfg.DatabaseURL == "" {
		return errors.New("postgres topic store needs DATABASE_URL")
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	b.closers = append(b.closers, pool.Close)
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	topics := NewTopicStore(pool)
	if err := topics.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("create topic schema: %w", err)
	}
	logger.Info("connected to database")
	b.Store = topics
	b.Ping = pool.Ping
	return nil
}

func (b *Backends) openNeo4j(ctx context.Context, cfg BackendConfig, logger *zap.Logger) (*Neo4jTopicStore, error) {
	if cfg.Neo4jURI == "" {
		return nil, errors.New("neo4j topic store needs NEO4J_URI")
	}
	driver, err := NewNeo4jDriver(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword)
	if err != nil {
		return nil, err
	}
	b.closers = append(b.closers, func() { _ = driver.Close(context.Background()) })
	graph := NewNeo4jTopicStore(driver, cfg.Neo4jDatabase, logger)
	graph.EnsureSchema(ctx)
	return graph, nil
}

func (b *Backends) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
	b.closers = nil
}
