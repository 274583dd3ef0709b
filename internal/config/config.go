package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	S3        S3Config        `mapstructure:"s3"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Retrieval RetrievalConfig `mapstructure:"retrieval"`
	Plan      PlanConfig      `mapstructure:"plan"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Address      string        `mapstructure:"address"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	URI  string `mapstructure:"uri"`
	Name string `mapstructure:"name"`
}

// S3Config points at the bucket holding published exercise index snapshots.
type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	IndexKey        string `mapstructure:"index_key"`
}

// Enabled reports whether enough is configured to talk to a bucket.
func (c S3Config) Enabled() bool {
	return c.BucketName != "" && c.Region != ""
}

// JWTConfig defines JWT specific configuration
type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Expiration time.Duration `mapstructure:"expiration"`
}

// LLMConfig configures the OpenAI-compatible chat completion endpoint (Groq by default).
type LLMConfig struct {
	BaseURL         string        `mapstructure:"base_url"`
	APIKey          string        `mapstructure:"api_key"`
	PlanModel       string        `mapstructure:"plan_model"`
	TipModel        string        `mapstructure:"tip_model"`
	PlanTemperature float64       `mapstructure:"plan_temperature"`
	PlanMaxTokens   int           `mapstructure:"plan_max_tokens"`
	TipTemperature  float64       `mapstructure:"tip_temperature"`
	TipMaxTokens    int           `mapstructure:"tip_max_tokens"`
	Timeout         time.Duration `mapstructure:"timeout"`
	TipTimeout      time.Duration `mapstructure:"tip_timeout"`
}

type RetrievalConfig struct {
	IndexPath        string        `mapstructure:"index_path"`
	TopK             int           `mapstructure:"top_k"`
	Embedder         string        `mapstructure:"embedder"` // "hashing" or "http"
	EmbeddingBaseURL string        `mapstructure:"embedding_base_url"`
	EmbeddingModel   string        `mapstructure:"embedding_model"`
	EmbeddingAPIKey  string        `mapstructure:"embedding_api_key"`
	Dimensions       int           `mapstructure:"dimensions"`
	Timeout          time.Duration `mapstructure:"timeout"`
	Watch            bool          `mapstructure:"watch"`
}

// PlanConfig carries the plan timezone and every profile fallback used when
// building generation prompts.
type PlanConfig struct {
	Timezone            string   `mapstructure:"timezone"`
	DefaultAge          int      `mapstructure:"default_age"`
	DefaultGender       string   `mapstructure:"default_gender"`
	DefaultHeightCm     float64  `mapstructure:"default_height_cm"`
	DefaultWeightKg     float64  `mapstructure:"default_weight_kg"`
	DefaultSport        string   `mapstructure:"default_sport"`
	DefaultTrainingDays []string `mapstructure:"default_training_days"`
}

type SchedulerConfig struct {
	Enabled             bool   `mapstructure:"enabled"`
	RecoveryRefreshSpec string `mapstructure:"recovery_refresh_spec"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// LoadConfig reads configuration from file or environment variables.
// A .env file in the working directory is loaded first when present.
func LoadConfig(path string) (config Config, err error) {
	// Missing .env is fine; real environments set variables directly.
	_ = godotenv.Load()

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// server.address -> SERVER_ADDRESS, llm.api_key -> LLM_API_KEY
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	setDefaults(v)

	err = v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		err = nil
	} else if err != nil {
		return
	}

	err = v.Unmarshal(&config)
	if err != nil {
		return
	}
	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.read_timeout", "10s")
	// Plan generation blocks on the model for up to llm.timeout.
	v.SetDefault("server.write_timeout", "90s")

	v.SetDefault("database.uri", "mongodb://localhost:27017/?replicaSet=rs0")
	v.SetDefault("database.name", "iron_ready")

	// Env-only keys need a registered default or Unmarshal never sees them.
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.region", "")
	v.SetDefault("s3.access_key_id", "")
	v.SetDefault("s3.secret_access_key", "")
	v.SetDefault("s3.bucket_name", "")
	v.SetDefault("s3.use_ssl", true)
	v.SetDefault("s3.index_key", "indexes/exercises.json")

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiration", "1h")

	v.SetDefault("llm.base_url", "https://api.groq.com/openai/v1")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.plan_model", "llama-3.1-8b-instant")
	v.SetDefault("llm.tip_model", "llama-3.1-8b-instant")
	v.SetDefault("llm.plan_temperature", 0.35)
	v.SetDefault("llm.plan_max_tokens", 2500)
	v.SetDefault("llm.tip_temperature", 0.6)
	v.SetDefault("llm.tip_max_tokens", 80)
	v.SetDefault("llm.timeout", "60s")
	v.SetDefault("llm.tip_timeout", "8s")

	v.SetDefault("retrieval.index_path", "data/exercise_index.json")
	v.SetDefault("retrieval.top_k", 10)
	v.SetDefault("retrieval.embedder", "hashing")
	v.SetDefault("retrieval.embedding_base_url", "")
	v.SetDefault("retrieval.embedding_api_key", "")
	v.SetDefault("retrieval.embedding_model", "sentence-transformers/all-MiniLM-L6-v2")
	v.SetDefault("retrieval.dimensions", 384)
	v.SetDefault("retrieval.timeout", "15s")
	v.SetDefault("retrieval.watch", true)

	v.SetDefault("plan.timezone", "UTC")
	v.SetDefault("plan.default_age", 25)
	v.SetDefault("plan.default_gender", "not specified")
	v.SetDefault("plan.default_height_cm", 170.0)
	v.SetDefault("plan.default_weight_kg", 70.0)
	v.SetDefault("plan.default_sport", "general fitness")
	v.SetDefault("plan.default_training_days", []string{"Monday", "Wednesday", "Friday"})

	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.recovery_refresh_spec", "@every 15m")

	v.SetDefault("log.level", "info")
}
