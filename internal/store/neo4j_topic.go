package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Harshitk-cp/topicgraph/internal/domain"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

// Neo4jTopicStore mirrors topics into a property graph: one :Topic node
// per topic and one :ASSOCIATED edge per association. Names, occurrences
// and associations are also kept as JSON properties so a topic can be
// read back without walking edges.
type Neo4jTopicStore struct {
	driver   neo4j.DriverWithContext
	database string
	logger   *zap.Logger
}

func NewNeo4jTopicStore(driver neo4j.DriverWithContext, database string, logger *zap.Logger) *Neo4jTopicStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Neo4jTopicStore{driver: driver, database: database, logger: logger}
}

// NewNeo4jDriver opens a driver and verifies connectivity.
func NewNeo4jDriver(ctx context.Context, uri, user, password string) (neo4j.DriverWithContext, error) {
	if user == "" {
		user = "neo4j"
	}
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""), func(cfg *neo4j.Config) {
		cfg.SocketConnectTimeout = 10 * time.Second
	})
	if err != nil {
		return nil, fmt.Errorf("neo4j: init driver: %w", err)
	}
	vctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := driver.VerifyConnectivity(vctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("neo4j: verify connectivity: %w", err)
	}
	return driver, nil
}

// Ping verifies the driver can still reach the server.
func (s *Neo4jTopicStore) Ping(ctx context.Context) error {
	return s.driver.VerifyConnectivity(ctx)
}

// EnsureSchema creates the topic id constraint. Failures are logged.
func (s *Neo4jTopicStore) EnsureSchema(ctx context.Context) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite, DatabaseName: s.database})
	defer session.Close(ctx)

	res, err := session.Run(ctx, `CREATE CONSTRAINT topic_id_unique IF NOT EXISTS FOR (t:Topic) REQUIRE t.id IS UNIQUE`, nil)
	if err != nil {
		s.logger.Warn("neo4j schema init failed (continuing)", zap.Error(err))
		return
	}
	_, _ = res.Consume(ctx)
}

func (s *Neo4jTopicStore) FetchByID(ctx context.Context, id string) (*domain.Topic, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead, DatabaseName: s.database})
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `MATCH (t:Topic {id: $id}) RETURN t`, map[string]any{"id": id})
		if err != nil {
			return nil, err
		}
		if !res.Next(ctx) {
			return nil, res.Err()
		}
		node, _, err := neo4j.GetRecordValue[neo4j.Node](res.Record(), "t")
		if err != nil {
			return nil, err
		}
		return node.Props, nil
	})
	if err != nil {
		return nil, err
	}
	props, ok := out.(map[string]any)
	if !ok || props == nil {
		return nil, ErrNotFound
	}
	return topicFromProps(props)
}

// BulkUpsert merges topic nodes and replaces their outgoing association
// edges in one write transaction.
func (s *Neo4jTopicStore) BulkUpsert(ctx context.Context, topics []*domain.Topic) error {
	if len(topics) == 0 {
		return nil
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	nodes := make([]map[string]any, 0, len(topics))
	edges := make([]map[string]any, 0)
	ids := make([]string, 0, len(topics))
	for _, t := range topics {
		props, err := topicProps(t)
		if err != nil {
			return err
		}
		props["synced_at"] = now
		nodes = append(nodes, props)
		ids = append(ids, t.ID)
		for _, a := range t.Associations {
			edges = append(edges, map[string]any{
				"src":    t.ID,
				"dst":    a.T2,
				"kind":   a.Kind,
				"r1":     a.R1,
				"r2":     a.R2,
				"scopes": a.Scopes,
			})
		}
	}

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite, DatabaseName: s.database})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		steps := []struct {
			query  string
			params map[string]any
		}{
			{`
UNWIND $nodes AS n
MERGE (t:Topic {id: n.id})
SET t += n
`, map[string]any{"nodes": nodes}},
			{`
UNWIND $ids AS id
MATCH (:Topic {id: id})-[e:ASSOCIATED]->()
DELETE e
`, map[string]any{"ids": ids}},
			{`
UNWIND $edges AS e
MATCH (a:Topic {id: e.src})
MERGE (b:Topic {id: e.dst})
CREATE (a)-[x:ASSOCIATED]->(b)
SET x.kind = e.kind, x.r1 = e.r1, x.r2 = e.r2, x.scopes = e.scopes
`, map[string]any{"edges": edges}},
		}
		for _, st := range steps {
			res, err := tx.Run(ctx, st.query, st.params)
			if err != nil {
				return nil, err
			}
			if _, err := res.Consume(ctx); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("neo4j upsert %d topics: %w", len(topics), err)
	}
	return nil
}

func topicProps(t *domain.Topic) (map[string]any, error) {
	names, err := json.Marshal(t.Names)
	if err != nil {
		return nil, err
	}
	occurrences, err := json.Marshal(t.Occurrences)
	if err != nil {
		return nil, err
	}
	associations, err := json.Marshal(t.Associations)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"id":                t.ID,
		"kind":              t.Kind,
		"name":              t.DisplayName(),
		"names_json":        string(names),
		"occurrences_json":  string(occurrences),
		"associations_json": string(associations),
		"created_at":        t.CreatedAt.UTC().Format(time.RFC3339Nano),
		"updated_at":        t.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}, nil
}

func topicFromProps(props map[string]any) (*domain.Topic, error) {
	str := func(k string) string {
		v, _ := props[k].(string)
		return v
	}
	t := &domain.Topic{ID: str("id"), Kind: str("kind")}
	for _, f := range []struct {
		key string
		dst any
	}{
		{"names_json", &t.Names},
		{"occurrences_json", &t.Occurrences},
		{"associations_json", &t.Associations},
	} {
		raw := str(f.key)
		if raw == "" {
			continue
		}
		if err := json.Unmarshal([]byte(raw), f.dst); err != nil {
			return nil, fmt.Errorf("topic %s %s: %w", t.ID, f.key, err)
		}
	}
	if ts, err := time.Parse(time.RFC3339Nano, str("created_at")); err == nil {
		t.CreatedAt = ts
	}
	if ts, err := time.Parse(time.RFC3339Nano, str("updated_at")); err == nil {
		t.UpdatedAt = ts
	}
	return t, nil
}
