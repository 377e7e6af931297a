package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/qdrant/go-client/qdrant"
	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/faq-vectorstore/internal/domain/faq"
	"github.com/yanqian/faq-vectorstore/internal/infra/config"
	"github.com/yanqian/faq-vectorstore/internal/infra/dataset"
	"github.com/yanqian/faq-vectorstore/internal/infra/embedder"
	"github.com/yanqian/faq-vectorstore/internal/infra/lock"
	"github.com/yanqian/faq-vectorstore/internal/infra/querystats"
	"github.com/yanqian/faq-vectorstore/internal/infra/vectorstore"
)

func provideFAQConfig(cfg *config.Config) faq.Config {
	return faq.Config{
		Collection:    cfg.Store.Collection,
		DatasetName:   cfg.Dataset.Name,
		DatasetSplit:  cfg.Dataset.Split,
		QuestionField: cfg.Dataset.QuestionField,
		AnswerField:   cfg.Dataset.AnswerField,
		TopK:          cfg.Search.TopK,
		BatchSize:     cfg.Embedding.BatchSize,
	}
}

func provideVectorStore(cfg *config.Config, logger *slog.Logger) (faq.VectorStore, func(), error) {
	store, err := openVectorStore(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := store.Close(); err != nil {
			logger.Warn("vector store close failed", "error", err)
		}
	}
	return store, cleanup, nil
}

func openVectorStore(cfg *config.Config, logger *slog.Logger) (faq.VectorStore, error) {
	switch cfg.Store.Driver {
	case "memory":
		logger.Info("faq memory vector store enabled")
		return vectorstore.NewMemoryStore(), nil
	case "postgres":
		return openPostgresStore(cfg, logger)
	case "qdrant":
		client, err := qdrant.NewClient(&qdrant.Config{
			Host:   cfg.Store.Qdrant.Host,
			Port:   cfg.Store.Qdrant.Port,
			APIKey: cfg.Store.Qdrant.APIKey,
			UseTLS: cfg.Store.Qdrant.UseTLS,
		})
		if err != nil {
			return nil, fmt.Errorf("connect qdrant: %w", err)
		}
		logger.Info("faq qdrant vector store enabled", "host", cfg.Store.Qdrant.Host, "port", cfg.Store.Qdrant.Port)
		return vectorstore.NewQdrantStore(client, cfg.Store.Collection), nil
	default:
		store, err := vectorstore.OpenSQLiteStore(cfg.Store.Dir, cfg.Store.Collection)
		if err != nil {
			return nil, err
		}
		logger.Info("faq sqlite vector store enabled", "dir", cfg.Store.Dir)
		return store, nil
	}
}

func openPostgresStore(cfg *config.Config, logger *slog.Logger) (faq.VectorStore, error) {
	poolConfig, err := pgxpool.ParseConfig(strings.TrimSpace(cfg.Store.Postgres.DSN))
	if err != nil {
		return nil, fmt.Errorf("invalid postgres dsn: %w", err)
	}
	if cfg.Store.Postgres.MaxConns > 0 {
		poolConfig.MaxConns = cfg.Store.Postgres.MaxConns
	}
	if cfg.Store.Postgres.MinConns > 0 {
		poolConfig.MinConns = cfg.Store.Postgres.MinConns
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("initialize postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	store, err := vectorstore.NewPostgresStore(ctx, pool, cfg.Store.Collection)
	if err != nil {
		pool.Close()
		return nil, err
	}
	logger.Info("faq postgres vector store enabled")
	return store, nil
}

func provideEmbedder(cfg *config.Config, logger *slog.Logger) faq.Embedder {
	switch cfg.Embedding.Provider {
	case "openai":
		return embedder.NewOpenAIEmbedder(cfg.Embedding.APIKey, cfg.Embedding.BaseURL, cfg.Embedding.Model, logger)
	case "deterministic":
		logger.Info("deterministic embedder enabled, results are lexical only", "dimensions", cfg.Embedding.Dimensions)
		return embedder.NewDeterministicEmbedder(cfg.Embedding.Dimensions)
	default:
		return embedder.NewHuggingFaceEmbedder(cfg.Embedding.APIKey, cfg.Embedding.BaseURL, cfg.Embedding.Model, logger)
	}
}

func provideDatasetSource(cfg *config.Config, logger *slog.Logger) faq.DatasetSource {
	hub := dataset.NewHubSource(cfg.Dataset.HubURL, cfg.Dataset.Token, cfg.Dataset.Subset, cfg.Dataset.PageSize)
	var object faq.DatasetSource
	if store := cfg.Dataset.ObjectStore; strings.TrimSpace(store.Endpoint) != "" {
		src, err := dataset.NewObjectSource(store.Endpoint, store.AccessKey, store.SecretKey, store.Region, logger)
		if err != nil {
			logger.Error("object storage unavailable, s3:// datasets disabled", "error", err)
		} else {
			object = src
		}
	}
	return dataset.NewRouter(hub, dataset.NewFileSource(), object)
}

// provideValkeyClient returns a nil client when Valkey is disabled or
// unreachable; dependents fall back to process-local implementations.
func provideValkeyClient(cfg *config.Config, logger *slog.Logger) (valkey.Client, func()) {
	noop := func() {}
	if !cfg.Valkey.Enabled {
		return nil, noop
	}
	opt, err := buildValkeyOptions(cfg.Valkey.Addr)
	if err != nil {
		logger.Error("invalid valkey configuration, falling back to memory", "error", err)
		return nil, noop
	}
	client, err := valkey.NewClient(opt)
	if err != nil {
		logger.Error("failed to create valkey client, falling back to memory", "error", err)
		return nil, noop
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		logger.Error("valkey ping failed, falling back to memory", "error", err)
		client.Close()
		return nil, noop
	}
	logger.Info("valkey enabled", "addr", cfg.Valkey.Addr)
	return client, client.Close
}

func buildValkeyOptions(addr string) (valkey.ClientOption, error) {
	if strings.Contains(addr, "://") {
		return valkey.ParseURL(addr)
	}
	return valkey.ClientOption{InitAddress: []string{addr}}, nil
}

func provideLocker(cfg *config.Config, client valkey.Client) faq.Locker {
	if client == nil {
		return lock.NewMemoryLocker()
	}
	return lock.NewValkeyLocker(client, cfg.Valkey.Prefix, cfg.Valkey.LockTTL)
}

// provideQueryStats prefers Valkey, then the vector store's own database.
// Process memory only backs the memory driver, where nothing persists anyway.
func provideQueryStats(cfg *config.Config, client valkey.Client, store faq.VectorStore, logger *slog.Logger) (faq.QueryStats, error) {
	if client != nil {
		return querystats.NewValkeyStore(client, cfg.Valkey.Prefix, cfg.Store.Collection), nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	switch s := store.(type) {
	case *vectorstore.SQLiteStore:
		return querystats.NewSQLiteStore(ctx, s.DB(), cfg.Store.Collection)
	case *vectorstore.PostgresStore:
		return querystats.NewPostgresStore(ctx, s.Pool(), cfg.Store.Collection)
	case *vectorstore.MemoryStore:
		return querystats.NewMemoryStore(), nil
	default:
		logger.Warn("query statistics disabled, enable valkey for trending", "driver", cfg.Store.Driver)
		return querystats.Unavailable{}, nil
	}
}
