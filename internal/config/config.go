package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Qdrant    QdrantConfig
	Gemini    GeminiConfig
	Storage   StorageConfig
	Worker    WorkerConfig
	Screening ScreeningConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

type QdrantConfig struct {
	Enabled    bool
	URL        string
	APIKey     string
	Collection string
	VectorSize uint64
}

type GeminiConfig struct {
	APIKey     string
	EmbedModel string
}

type StorageConfig struct {
	UploadPath  string
	MaxFileSize int64
}

type WorkerConfig struct {
	Concurrency       int
	RetryMaxAttempts  int
	RetryInitialDelay time.Duration
}

// ScreeningConfig holds the matching pipeline knobs.
type ScreeningConfig struct {
	KeywordCount      int
	MaxSnippets       int
	Alpha             float64
	LemmatizerEnabled bool
	SemanticEnabled   bool
}

type LogConfig struct {
	JSON  bool
	Debug bool
}

var defaults = map[string]any{
	"PORT":                "3000",
	"ENV":                 "development",
	"DB_HOST":             "localhost",
	"DB_PORT":             "5432",
	"DB_USER":             "postgres",
	"DB_PASSWORD":         "postgres",
	"DB_NAME":             "resume_screener",
	"QDRANT_ENABLED":      false,
	"QDRANT_URL":          "http://localhost:6334",
	"QDRANT_API_KEY":      "",
	"QDRANT_COLLECTION":   "resume_embeddings",
	"QDRANT_VECTOR_SIZE":  768,
	"GEMINI_API_KEY":      "",
	"GEMINI_EMBED_MODEL":  "text-embedding-004",
	"UPLOAD_PATH":         "./uploads",
	"MAX_FILE_SIZE":       10485760,
	"WORKER_CONCURRENCY":  3,
	"RETRY_MAX_ATTEMPTS":  3,
	"RETRY_INITIAL_DELAY": "2s",
	"KEYWORD_COUNT":       20,
	"MAX_SNIPPETS":        3,
	"SCORE_ALPHA":         0.7,
	"LEMMATIZER_ENABLED":  true,
	"SEMANTIC_ENABLED":    true,
	"LOG_JSON":            false,
	"LOG_DEBUG":           false,
}

// Load reads an optional .env file and then resolves every key from the
// environment, falling back to defaults. Values already set on v (for example
// bound CLI flags) take precedence.
func Load(v *viper.Viper) (*Config, error) {
	// A missing .env file is the normal case outside local development.
	_ = godotenv.Load()

	if v == nil {
		v = viper.New()
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Port: v.GetString("PORT"),
			Env:  v.GetString("ENV"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
		},
		Qdrant: QdrantConfig{
			Enabled:    v.GetBool("QDRANT_ENABLED"),
			URL:        v.GetString("QDRANT_URL"),
			APIKey:     v.GetString("QDRANT_API_KEY"),
			Collection: v.GetString("QDRANT_COLLECTION"),
			VectorSize: v.GetUint64("QDRANT_VECTOR_SIZE"),
		},
		Gemini: GeminiConfig{
			APIKey:     v.GetString("GEMINI_API_KEY"),
			EmbedModel: v.GetString("GEMINI_EMBED_MODEL"),
		},
		Storage: StorageConfig{
			UploadPath:  v.GetString("UPLOAD_PATH"),
			MaxFileSize: v.GetInt64("MAX_FILE_SIZE"),
		},
		Worker: WorkerConfig{
			Concurrency:       v.GetInt("WORKER_CONCURRENCY"),
			RetryMaxAttempts:  v.GetInt("RETRY_MAX_ATTEMPTS"),
			RetryInitialDelay: v.GetDuration("RETRY_INITIAL_DELAY"),
		},
		Screening: ScreeningConfig{
			KeywordCount:      v.GetInt("KEYWORD_COUNT"),
			MaxSnippets:       v.GetInt("MAX_SNIPPETS"),
			Alpha:             v.GetFloat64("SCORE_ALPHA"),
			LemmatizerEnabled: v.GetBool("LEMMATIZER_ENABLED"),
			SemanticEnabled:   v.GetBool("SEMANTIC_ENABLED"),
		},
		Log: LogConfig{
			JSON:  v.GetBool("LOG_JSON"),
			Debug: v.GetBool("LOG_DEBUG"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	var problems []string

	if c.Screening.KeywordCount <= 0 {
		problems = append(problems, "KEYWORD_COUNT must be positive")
	}
	if c.Screening.MaxSnippets < 0 {
		problems = append(problems, "MAX_SNIPPETS must not be negative")
	}
	if c.Screening.Alpha < 0 || c.Screening.Alpha > 1 {
		problems = append(problems, "SCORE_ALPHA must be within [0,1]")
	}
	if c.Worker.Concurrency <= 0 {
		problems = append(problems, "WORKER_CONCURRENCY must be positive")
	}
	if c.Worker.RetryMaxAttempts <= 0 {
		problems = append(problems, "RETRY_MAX_ATTEMPTS must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// SemanticAvailable reports whether the embedding backend can be built.
func (c *Config) SemanticAvailable() bool {
	return c.Screening.SemanticEnabled && c.Gemini.APIKey != ""
}

func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}
