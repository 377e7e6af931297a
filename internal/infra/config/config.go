package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config aggregates runtime configuration used across the FAQ store.
type Config struct {
	Store     StoreConfig     `yaml:"store"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Dataset   DatasetConfig   `yaml:"dataset"`
	Search    SearchConfig    `yaml:"search"`
	Valkey    ValkeyConfig    `yaml:"valkey"`
}

// StoreConfig selects and configures the vector store backend.
type StoreConfig struct {
	Driver     string         `yaml:"driver" validate:"oneof=sqlite postgres qdrant memory"`
	Dir        string         `yaml:"dir"`
	Collection string         `yaml:"collection" validate:"required"`
	Postgres   PostgresConfig `yaml:"postgres"`
	Qdrant     QdrantConfig   `yaml:"qdrant"`
}

// PostgresConfig contains DSN and pooling settings.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"maxConns" validate:"gte=0"`
	MinConns int32  `yaml:"minConns" validate:"gte=0"`
}

// QdrantConfig points at a Qdrant gRPC endpoint.
type QdrantConfig struct {
	Host   string `yaml:"host"`
	Port   int    `yaml:"port" validate:"gte=0,lte=65535"`
	APIKey string `yaml:"apiKey"`
	UseTLS bool   `yaml:"useTls"`
}

// EmbeddingConfig selects the embedding provider.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider" validate:"oneof=huggingface openai deterministic"`
	Model      string `yaml:"model"`
	APIKey     string `yaml:"apiKey"`
	BaseURL    string `yaml:"baseUrl"`
	Dimensions int    `yaml:"dimensions" validate:"gte=0"`
	BatchSize  int    `yaml:"batchSize" validate:"gt=0"`
}

// DatasetConfig names the dataset used to seed an empty collection.
type DatasetConfig struct {
	Name          string            `yaml:"name" validate:"required"`
	Split         string            `yaml:"split" validate:"required"`
	Subset        string            `yaml:"subset"`
	QuestionField string            `yaml:"questionField" validate:"required"`
	AnswerField   string            `yaml:"answerField" validate:"required"`
	HubURL        string            `yaml:"hubUrl"`
	PageSize      int               `yaml:"pageSize" validate:"gte=0"`
	Token         string            `yaml:"token"`
	ObjectStore   ObjectStoreConfig `yaml:"objectStore"`
}

// ObjectStoreConfig contains S3-compatible credentials for s3:// datasets.
type ObjectStoreConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Region    string `yaml:"region"`
}

// SearchConfig controls query defaults.
type SearchConfig struct {
	TopK int `yaml:"topK" validate:"gt=0"`
}

// ValkeyConfig enables the shared population lock and query statistics.
type ValkeyConfig struct {
	Enabled bool          `yaml:"enabled"`
	Addr    string        `yaml:"addr"`
	Prefix  string        `yaml:"prefix"`
	LockTTL time.Duration `yaml:"lockTtl"`
}

// Load reads configuration from a YAML file and environment variables.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)
	applyDefaultModel(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FAQ_STORE_DRIVER"); v != "" {
		cfg.Store.Driver = strings.ToLower(v)
	}
	if v := os.Getenv("FAQ_STORE_DIR"); v != "" {
		cfg.Store.Dir = v
	}
	if v := os.Getenv("FAQ_COLLECTION"); v != "" {
		cfg.Store.Collection = v
	}
	if v := os.Getenv("FAQ_POSTGRES_DSN"); v != "" {
		cfg.Store.Postgres.DSN = v
	}
	if v := os.Getenv("FAQ_POSTGRES_MAX_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Store.Postgres.MaxConns = int32(parsed)
		}
	}
	if v := os.Getenv("FAQ_POSTGRES_MIN_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Store.Postgres.MinConns = int32(parsed)
		}
	}
	if v := os.Getenv("FAQ_QDRANT_HOST"); v != "" {
		cfg.Store.Qdrant.Host = v
	}
	if v := os.Getenv("FAQ_QDRANT_PORT"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Store.Qdrant.Port = parsed
		}
	}
	if v := os.Getenv("FAQ_QDRANT_API_KEY"); v != "" {
		cfg.Store.Qdrant.APIKey = v
	}
	if v := os.Getenv("FAQ_EMBEDDING_PROVIDER"); v != "" {
		cfg.Embedding.Provider = strings.ToLower(v)
	}
	if v := os.Getenv("FAQ_EMBEDDING_MODEL"); v != "" {
		cfg.Embedding.Model = v
	}
	if v := os.Getenv("FAQ_EMBEDDING_API_KEY"); v != "" {
		cfg.Embedding.APIKey = v
	}
	if v := os.Getenv("FAQ_EMBEDDING_BASE_URL"); v != "" {
		cfg.Embedding.BaseURL = v
	}
	if cfg.Embedding.APIKey == "" {
		cfg.Embedding.APIKey = providerKeyFromEnv(cfg.Embedding.Provider)
	}
	if v := os.Getenv("FAQ_DATASET_NAME"); v != "" {
		cfg.Dataset.Name = v
	}
	if v := os.Getenv("FAQ_DATASET_SPLIT"); v != "" {
		cfg.Dataset.Split = v
	}
	if v := os.Getenv("FAQ_DATASET_SUBSET"); v != "" {
		cfg.Dataset.Subset = v
	}
	if v := os.Getenv("FAQ_DATASET_TOKEN"); v != "" {
		cfg.Dataset.Token = v
	}
	if cfg.Dataset.Token == "" && cfg.Embedding.Provider == "huggingface" {
		cfg.Dataset.Token = cfg.Embedding.APIKey
	}
	if v := os.Getenv("FAQ_S3_ENDPOINT"); v != "" {
		cfg.Dataset.ObjectStore.Endpoint = v
	}
	if v := os.Getenv("FAQ_S3_ACCESS_KEY"); v != "" {
		cfg.Dataset.ObjectStore.AccessKey = v
	}
	if v := os.Getenv("FAQ_S3_SECRET_KEY"); v != "" {
		cfg.Dataset.ObjectStore.SecretKey = v
	}
	if v := os.Getenv("FAQ_S3_REGION"); v != "" {
		cfg.Dataset.ObjectStore.Region = v
	}
	if v := os.Getenv("FAQ_SEARCH_TOP_K"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Search.TopK = parsed
		}
	}
	if v := os.Getenv("FAQ_VALKEY_ENABLED"); v != "" {
		cfg.Valkey.Enabled = v == "1" || strings.EqualFold(v, "true")
	}
	if v := os.Getenv("FAQ_VALKEY_ADDR"); v != "" {
		cfg.Valkey.Addr = v
	}
}

// defaultModels holds the embedding model used when none is configured.
var defaultModels = map[string]string{
	"huggingface": "sentence-transformers/all-MiniLM-L6-v2",
	"openai":      "text-embedding-3-small",
}

// applyDefaultModel fills the model for the selected provider. It runs after
// env overrides so switching provider also switches the default model.
func applyDefaultModel(cfg *Config) {
	if strings.TrimSpace(cfg.Embedding.Model) != "" {
		return
	}
	cfg.Embedding.Model = defaultModels[cfg.Embedding.Provider]
}

func providerKeyFromEnv(provider string) string {
	switch provider {
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	case "huggingface":
		if v := os.Getenv("HUGGINGFACEHUB_API_TOKEN"); v != "" {
			return v
		}
		return os.Getenv("HF_TOKEN")
	}
	return ""
}

func defaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Driver:     "sqlite",
			Dir:        "data/faq_db",
			Collection: "faq",
			Postgres: PostgresConfig{
				MaxConns: 4,
				MinConns: 0,
			},
			Qdrant: QdrantConfig{
				Host: "localhost",
				Port: 6334,
			},
		},
		Embedding: EmbeddingConfig{
			Provider:   "huggingface",
			Dimensions: 64,
			BatchSize:  32,
		},
		Dataset: DatasetConfig{
			Name:          "MakTek/Customer_support_faqs_dataset",
			Split:         "train",
			Subset:        "default",
			QuestionField: "question",
			AnswerField:   "answer",
			HubURL:        "https://datasets-server.huggingface.co",
			PageSize:      100,
		},
		Search: SearchConfig{
			TopK: 2,
		},
		Valkey: ValkeyConfig{
			Prefix:  "faqstore",
			LockTTL: 5 * time.Minute,
		},
	}
}

var validate = validator.New()

// Validate ensures the configuration is structurally usable. Whether the model
// or dataset actually exists is left to the providers.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			f := verrs[0]
			return fmt.Errorf("%s failed %q check (value %v)", f.Namespace(), f.Tag(), f.Value())
		}
		return err
	}
	switch c.Store.Driver {
	case "sqlite":
		if strings.TrimSpace(c.Store.Dir) == "" {
			return errors.New("store.dir cannot be empty for the sqlite driver")
		}
	case "postgres":
		if strings.TrimSpace(c.Store.Postgres.DSN) == "" {
			return errors.New("store.postgres.dsn cannot be empty for the postgres driver")
		}
	case "qdrant":
		if strings.TrimSpace(c.Store.Qdrant.Host) == "" {
			return errors.New("store.qdrant.host cannot be empty for the qdrant driver")
		}
	}
	if c.Embedding.Provider != "deterministic" && strings.TrimSpace(c.Embedding.Model) == "" {
		return errors.New("embedding.model cannot be empty")
	}
	if c.Valkey.Enabled && strings.TrimSpace(c.Valkey.Addr) == "" {
		return errors.New("valkey.addr cannot be empty when valkey is enabled")
	}
	if c.Valkey.LockTTL < 0 {
		return errors.New("valkey.lockTtl cannot be negative")
	}
	return nil
}
