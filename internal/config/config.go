package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Vectorization methods.
const (
	VectorizerTFIDF     = "tfidf"
	VectorizerEmbedding = "embedding"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Corpus     CorpusConfig     `mapstructure:"corpus"`
	Vectorizer VectorizerConfig `mapstructure:"vectorizer"`
	Embedding  EmbeddingConfig  `mapstructure:"embedding"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Qdrant     QdrantConfig     `mapstructure:"qdrant"`
	Recommend  RecommendConfig  `mapstructure:"recommend"`
	History    HistoryConfig    `mapstructure:"history"`
}

type ServerConfig struct {
	Port int        `mapstructure:"port"`
	Mode string     `mapstructure:"mode"`
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	AllowAllOrigins bool     `mapstructure:"allow_all_origins"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // sqlite or postgres
	Path            string        `mapstructure:"path"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// DSN returns the driver-specific data source name.
func (c *DatabaseConfig) DSN() string {
	if c.Driver == "postgres" {
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
	}
	return c.Path
}

// CorpusConfig locates the movie CSV. Source "local" reads Path; "s3" reads Key from object storage.
type CorpusConfig struct {
	Source    string `mapstructure:"source"`
	Path      string `mapstructure:"path"`
	Key       string `mapstructure:"key"`
	BatchSize int    `mapstructure:"batch_size"`
}

type VectorizerConfig struct {
	Method      string `mapstructure:"method"`
	MaxFeatures int    `mapstructure:"max_features"`
}

// CacheConfig locates the vector cache object. Backend "local" stores under Dir; "s3" uses Storage.
type CacheConfig struct {
	Backend string `mapstructure:"backend"`
	Dir     string `mapstructure:"dir"`
	Key     string `mapstructure:"key"`
}

type StorageConfig struct {
	Type      string `mapstructure:"type"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
}

type QdrantConfig struct {
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	Collection string `mapstructure:"collection"`
	APIKey     string `mapstructure:"api_key"`
	UseTLS     bool   `mapstructure:"use_tls"`
	BatchSize  int    `mapstructure:"batch_size"`
}

type RecommendConfig struct {
	DefaultK       int      `mapstructure:"default_k"`
	MaxK           int      `mapstructure:"max_k"`
	ExcludedGenres []string `mapstructure:"excluded_genres"`
}

type HistoryConfig struct {
	RecentLimit int `mapstructure:"recent_limit"`
}

func Load(configPath string) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Secrets and deployment knobs with conventional names
	v.BindEnv("database.driver", "DB_DRIVER")
	v.BindEnv("database.password", "DB_PASSWORD")
	v.BindEnv("embedding.api_key", "JINA_API_KEY", "OPENAI_API_KEY")
	v.BindEnv("embedding.base_url", "OPENAI_BASE_URL")
	v.BindEnv("storage.endpoint", "S3_ENDPOINT")
	v.BindEnv("storage.access_key", "S3_ACCESS_KEY")
	v.BindEnv("storage.secret_key", "S3_SECRET_KEY")
	v.BindEnv("storage.bucket", "S3_BUCKET")
	v.BindEnv("qdrant.host", "QDRANT_HOST")
	v.BindEnv("qdrant.port", "QDRANT_PORT")
	v.BindEnv("qdrant.api_key", "QDRANT_API_KEY")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.cors.allow_all_origins", true)
	v.SetDefault("server.cors.allowed_origins", []string{})
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/search_history.db")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("corpus.source", "local")
	v.SetDefault("corpus.path", "./data/imdb_movies.csv")
	v.SetDefault("corpus.key", "corpus/imdb_movies.csv")
	v.SetDefault("corpus.batch_size", 1000)
	v.SetDefault("vectorizer.method", VectorizerTFIDF)
	v.SetDefault("vectorizer.max_features", 4096)
	v.SetDefault("embedding.provider", "jina")
	v.SetDefault("embedding.model", "jina-embeddings-v3")
	v.SetDefault("embedding.dimensions", 1024)
	v.SetDefault("embedding.batch_size", 64)
	v.SetDefault("cache.backend", "local")
	v.SetDefault("cache.dir", "./data")
	v.SetDefault("cache.key", "movie_vectors.bin")
	v.SetDefault("storage.use_ssl", true)
	v.SetDefault("storage.bucket", "cinematch")
	v.SetDefault("qdrant.host", "localhost")
	v.SetDefault("qdrant.port", 6334)
	v.SetDefault("qdrant.collection", "movies")
	v.SetDefault("qdrant.batch_size", 256)
	v.SetDefault("recommend.default_k", 5)
	v.SetDefault("recommend.max_k", 50)
	v.SetDefault("recommend.excluded_genres", []string{"animation", "family", "children"})
	v.SetDefault("history.recent_limit", 5)
}

// Validate checks option combinations that would otherwise fail deep inside the build.
func (c *Config) Validate() error {
	switch c.Vectorizer.Method {
	case VectorizerTFIDF:
		if c.Vectorizer.MaxFeatures <= 0 {
			return fmt.Errorf("vectorizer: max_features must be positive")
		}
	case VectorizerEmbedding:
		if err := c.Embedding.Validate(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("vectorizer: unknown method %q", c.Vectorizer.Method)
	}

	switch c.Corpus.Source {
	case "local", "s3":
	default:
		return fmt.Errorf("corpus: unknown source %q", c.Corpus.Source)
	}
	switch c.Cache.Backend {
	case "local", "s3":
	default:
		return fmt.Errorf("cache: unknown backend %q", c.Cache.Backend)
	}
	if c.Cache.Key == "" {
		return fmt.Errorf("cache: key is required")
	}

	if c.Recommend.DefaultK <= 0 {
		return fmt.Errorf("recommend: default_k must be positive")
	}
	if c.Recommend.MaxK < c.Recommend.DefaultK {
		return fmt.Errorf("recommend: max_k (%d) is below default_k (%d)", c.Recommend.MaxK, c.Recommend.DefaultK)
	}
	return nil
}

// NeedsObjectStorage reports whether any component reads from or writes to S3.
func (c *Config) NeedsObjectStorage() bool {
	return c.Corpus.Source == "s3" || c.Cache.Backend == "s3"
}
