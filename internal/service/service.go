// Package service assembles the resolver, syncer and graph builder from
// environment configuration. The server, the worker and the CLI share it.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/lineage/internal/storage"
	"github.com/OFFIS-RIT/lineage/internal/util"
	"github.com/OFFIS-RIT/lineage/pkg/archive"
	"github.com/OFFIS-RIT/lineage/pkg/graph"
	"github.com/OFFIS-RIT/lineage/pkg/influence"
	"github.com/OFFIS-RIT/lineage/pkg/leaselock"
	"github.com/OFFIS-RIT/lineage/pkg/logger"
	"github.com/OFFIS-RIT/lineage/pkg/resolver"
	"github.com/OFFIS-RIT/lineage/pkg/store"
	"github.com/OFFIS-RIT/lineage/pkg/store/memory"
	pgstore "github.com/OFFIS-RIT/lineage/pkg/store/pgx"
	"github.com/OFFIS-RIT/lineage/pkg/wiki"

	"github.com/golang-migrate/migrate/v4"
	"github.com/jackc/pgx/v5/pgxpool"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

type Config struct {
	DatabaseURL    string
	MigrationsPath string
	// Memory keeps all state in process. DatabaseURL is ignored.
	Memory bool
	// Archive enables the S3 page archive when AWS_BUCKET is set.
	Archive bool

	Wiki             wiki.ClientParams
	RejectionTTL     time.Duration
	InfluenceTTL     time.Duration
	GraphParallelism int

	// Source replaces the MediaWiki client when set.
	Source wiki.Source
}

// ConfigFromEnv reads the configuration documented in the README.
func ConfigFromEnv() Config {
	return Config{
		DatabaseURL:    util.GetEnv("DATABASE_URL"),
		MigrationsPath: util.GetEnvString("MIGRATIONS_PATH", "file://migrations"),
		Memory:         util.GetEnvBool("MEMORY_STORE", false),
		Archive:        true,
		Wiki: wiki.ClientParams{
			BaseURL:    util.GetEnvString("WIKI_API_URL", wiki.DefaultBaseURL),
			UserAgent:  util.GetEnvString("WIKI_USER_AGENT", wiki.DefaultUserAgent),
			RateLimit:  util.GetEnvNumeric("WIKI_RATE_LIMIT", 5),
			Burst:      util.GetEnvInt("WIKI_BURST", 5),
			MaxRetries: util.GetEnvInt("WIKI_MAX_RETRIES", 3),
			Timeout:    util.GetEnvDuration("WIKI_TIMEOUT", 15*time.Second),
		},
		RejectionTTL:     util.GetEnvDuration("REJECTION_TTL", 720*time.Hour),
		InfluenceTTL:     util.GetEnvDuration("INFLUENCE_TTL", 168*time.Hour),
		GraphParallelism: util.GetEnvInt("GRAPH_PARALLELISM", 4),
	}
}

type Services struct {
	Store    store.ArtistStore
	Source   wiki.Source
	Resolver *resolver.Resolver
	Syncer   *influence.Syncer
	Builder  *graph.Builder

	pool *pgxpool.Pool
}

func New(ctx context.Context, cfg Config) (*Services, error) {
	s := &Services{}

	var locker leaselock.Locker
	if cfg.Memory {
		s.Store = memory.New()
		locker = leaselock.NewLocal()
	} else {
		if cfg.DatabaseURL == "" {
			return nil, errors.New("DATABASE_URL is not set")
		}
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		s.pool = pool
		s.Store = pgstore.NewArtistDBStorage(pool)
		locker = leaselock.New(pool)
	}

	s.Source = cfg.Source
	if s.Source == nil {
		s.Source = wiki.NewClient(cfg.Wiki)
	}
	if cfg.Archive {
		bucket, err := storage.NewBucketFromEnv(ctx)
		if err != nil {
			s.Close()
			return nil, err
		}
		if bucket != nil {
			logger.Info("[Service] Archiving pages", "bucket", bucket.Name)
			s.Source = archive.New(s.Source, bucket)
		}
	}

	s.Resolver = resolver.New(s.Store, s.Source, resolver.Options{
		RejectionTTL: cfg.RejectionTTL,
	})
	s.Syncer = influence.NewSyncer(s.Resolver, s.Source, s.Store, locker, influence.Options{
		TTL: cfg.InfluenceTTL,
	})
	s.Builder = graph.NewBuilder(s.Resolver, s.Syncer, s.Store, graph.Options{
		Parallelism: cfg.GraphParallelism,
	})

	return s, nil
}

func (s *Services) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Migrate applies all pending migrations from source to the database.
func Migrate(databaseURL, source string) error {
	m, err := migrate.New(source, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to read migration version: %w", err)
	}
	logger.Info("[Service] Migrations applied", "version", version, "dirty", dirty)
	return nil
}
