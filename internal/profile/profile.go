package profile

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Profile is the configuration to start the recommendation server.
type Profile struct {
	// Mode can be "prod" or "dev"
	Mode string
	// Addr is the binding address for server
	Addr string
	// Port is the binding port for server
	Port int
	// Data is the data directory (sqlite mode)
	Data string
	// Driver is the database driver (sqlite or postgres)
	Driver string
	// DSN points to the durable conversation store
	DSN string
	// Version is the current version of server
	Version string

	// RedisAddr enables the fast context-cache tier when set.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Vector index configuration.
	QdrantURL         string
	QdrantAPIKey      string
	GenericCollection string

	// Secondary product provider.
	ToastdURL string

	// Embedding configuration. Provider is "openai" or "encoder" (the local
	// sentence-transformer encode server).
	EmbeddingProvider   string
	EmbeddingAPIKey     string
	EmbeddingBaseURL    string
	EmbeddingModel      string
	EmbeddingDimensions int
	EncodeServerURL     string

	// LLM configuration (OpenAI-compatible chat completion endpoint).
	LLMAPIKey  string
	LLMBaseURL string
	LLMModel   string
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsCacheEnabled returns true when the redis fast tier is configured.
func (p *Profile) IsCacheEnabled() bool {
	return p.RedisAddr != ""
}

// FromEnv loads configuration from GIFTD_* environment variables via viper.
func (p *Profile) FromEnv() {
	v := viper.New()
	v.SetEnvPrefix("giftd")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("mode", "dev")
	v.SetDefault("addr", "")
	v.SetDefault("port", 8230)
	v.SetDefault("data", ".")
	v.SetDefault("driver", "sqlite")
	v.SetDefault("redis_db", 0)
	v.SetDefault("qdrant_url", "http://localhost:6333")
	v.SetDefault("generic_collection", "products")
	v.SetDefault("toastd_url", "http://localhost:8001")
	v.SetDefault("embedding_provider", "encoder")
	v.SetDefault("embedding_model", "text-embedding-3-small")
	v.SetDefault("embedding_dimensions", 384)
	v.SetDefault("encode_server_url", "http://localhost:5001")
	v.SetDefault("llm_base_url", "https://api.openai.com/v1")
	v.SetDefault("llm_model", "gpt-4o-mini")

	p.Mode = v.GetString("mode")
	p.Addr = v.GetString("addr")
	p.Port = v.GetInt("port")
	p.Data = v.GetString("data")
	p.Driver = v.GetString("driver")
	p.DSN = v.GetString("dsn")

	p.RedisAddr = v.GetString("redis_addr")
	p.RedisPassword = v.GetString("redis_password")
	p.RedisDB = v.GetInt("redis_db")

	p.QdrantURL = v.GetString("qdrant_url")
	p.QdrantAPIKey = v.GetString("qdrant_api_key")
	p.GenericCollection = v.GetString("generic_collection")
	p.ToastdURL = v.GetString("toastd_url")

	p.EmbeddingProvider = v.GetString("embedding_provider")
	p.EmbeddingAPIKey = v.GetString("embedding_api_key")
	p.EmbeddingBaseURL = v.GetString("embedding_base_url")
	p.EmbeddingModel = v.GetString("embedding_model")
	p.EmbeddingDimensions = v.GetInt("embedding_dimensions")
	p.EncodeServerURL = v.GetString("encode_server_url")

	p.LLMAPIKey = v.GetString("llm_api_key")
	p.LLMBaseURL = v.GetString("llm_base_url")
	p.LLMModel = v.GetString("llm_model")
}

func (p *Profile) Validate() error {
	if p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "dev"
	}

	switch p.Driver {
	case "sqlite":
		if p.DSN == "" {
			dbFile := fmt.Sprintf("giftd_%s.db", p.Mode)
			p.DSN = filepath.Join(p.Data, dbFile)
		}
	case "postgres":
		if p.DSN == "" {
			return errors.New("postgres driver requires GIFTD_DSN")
		}
	default:
		return errors.Errorf("unsupported driver %q", p.Driver)
	}

	if p.EmbeddingProvider == "openai" && p.EmbeddingAPIKey == "" {
		return errors.New("openai embedding provider requires GIFTD_EMBEDDING_API_KEY")
	}
	if p.EmbeddingProvider == "encoder" && p.EncodeServerURL == "" {
		return errors.New("encoder embedding provider requires GIFTD_ENCODE_SERVER_URL")
	}
	if p.LLMAPIKey == "" {
		return errors.New("GIFTD_LLM_API_KEY is required")
	}
	return nil
}
