package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Load reads the .env file named by TOPICGRAPH_ENV (or .env by default),
// then its .secret sidecar. Missing files are not an error; all settings
// are flat env vars read on demand.
func Load() error {
	envFile := os.Getenv("TOPICGRAPH_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	_ = godotenv.Load(envFile)
	_ = godotenv.Load(envFile + ".secret")

	return nil
}

// AppEnv returns the deployment environment. Defaults to "production".
func AppEnv() string {
	env := os.Getenv("APP_ENV")
	if env == "" {
		return "production"
	}
	return env
}

func IsDevelopment() bool {
	return AppEnv() == "development"
}

func ServerPort() int {
	port, err := strconv.Atoi(os.Getenv("SERVER_PORT"))
	if err != nil {
		return 8080
	}
	return port
}

func ServerAddr() string {
	return fmt.Sprintf(":%d", ServerPort())
}

// DatabaseURL is the Postgres connection string. When empty the server
// and CLI fall back to an in-memory topic store.
func DatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

// Neo4jURI enables the graph mirror when set.
func Neo4jURI() string {
	return strings.TrimSpace(os.Getenv("NEO4J_URI"))
}

func Neo4jUser() string {
	u := strings.TrimSpace(os.Getenv("NEO4J_USER"))
	if u == "" {
		return "neo4j"
	}
	return u
}

func Neo4jPassword() string {
	return os.Getenv("NEO4J_PASSWORD")
}

func Neo4jDatabase() string {
	return strings.TrimSpace(os.Getenv("NEO4J_DATABASE"))
}

// TopicBases returns the namespaces ids are resolved against, in probe
// order. Defaults to the reserved namespace followed by lore.pub/w.
func TopicBases() []string {
	bases := splitList(os.Getenv("TOPIC_BASES"))
	if len(bases) == 0 {
		return []string{"lore.pub/t", "lore.pub/w"}
	}
	return bases
}

// ReservedNamespace holds the protected bootstrap vocabulary.
func ReservedNamespace() string {
	ns := strings.TrimSpace(os.Getenv("RESERVED_NAMESPACE"))
	if ns == "" {
		return "lore.pub/t"
	}
	return ns
}

// DefaultScopes are added to everything every import writes.
func DefaultScopes() []string {
	return splitList(os.Getenv("DEFAULT_SCOPES"))
}

// DefaultAssociations lists "relation=target" links added to every topic
// an import creates, e.g. "category=imported".
func DefaultAssociations() []string {
	return splitList(os.Getenv("DEFAULT_ASSOCIATIONS"))
}

// TopicStore names the primary store: "postgres", "neo4j" or "memory".
// Empty picks postgres when DATABASE_URL is set and memory otherwise.
func TopicStore() string {
	return strings.ToLower(strings.TrimSpace(os.Getenv("TOPIC_STORE")))
}

// MaxImportBatch caps the records accepted by one import request.
// Defaults to 1000 if not set.
func MaxImportBatch() int {
	n, err := strconv.Atoi(os.Getenv("MAX_IMPORT_BATCH"))
	if err != nil || n <= 0 {
		return 1000
	}
	return n
}

// RateLimitRPS returns requests per second limit.
// Defaults to 100 if not set.
func RateLimitRPS() float64 {
	rps, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64)
	if err != nil || rps <= 0 {
		return 100
	}
	return rps
}

// RateLimitBurst returns the burst size for rate limiting.
// Defaults to 20 if not set.
func RateLimitBurst() int {
	burst, err := strconv.Atoi(os.Getenv("RATE_LIMIT_BURST"))
	if err != nil || burst <= 0 {
		return 20
	}
	return burst
}

// LogLevel returns the log level (debug, info, warn, error).
// Defaults to "info" if not set.
func LogLevel() string {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return "info"
	}
	return level
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
