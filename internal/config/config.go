package config

import (
	"log/slog"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Server    ServerConfig
	OpenAI    OpenAIConfig
	Search    SearchConfig
	UserStore UserStoreConfig
	Cache     CacheConfig
	Agent     AgentConfig
}

type ServerConfig struct {
	Port         string        `envconfig:"SERVER_PORT" default:"8000"`
	Host         string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	ReadTimeout  time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"30s"`
	WriteTimeout time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"30s"`
}

type OpenAIConfig struct {
	Provider       string `envconfig:"OPENAI_PROVIDER" default:"openai"`
	APIKey         string `envconfig:"OPENAI_API_KEY" required:"true"`
	APIEndpoint    string `envconfig:"OPENAI_ENDPOINT" default:"https://api.openai.com/v1"`
	Model          string `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
	EmbeddingModel string `envconfig:"OPENAI_EMBEDDING_MODEL" default:"text-embedding-3-large"`
	DeploymentName string `envconfig:"OPENAI_DEPLOYMENT" default:"gpt-4o"`
	APIVersion     string `envconfig:"OPENAI_API_VERSION" default:"2023-05-15"`
}

// SearchConfig configures the Elasticsearch index that backs retrieval.
type SearchConfig struct {
	Addresses []string      `envconfig:"SEARCH_ADDRESSES" default:"http://localhost:9200"`
	Username  string        `envconfig:"SEARCH_USERNAME"`
	Password  string        `envconfig:"SEARCH_PASSWORD"`
	Index     string        `envconfig:"SEARCH_INDEX" default:"vireopay-knowledge"`
	Timeout   time.Duration `envconfig:"SEARCH_TIMEOUT" default:"10s"`
}

type UserStoreConfig struct {
	GraphQLEndpoint    string        `envconfig:"USERSTORE_GRAPHQL_ENDPOINT" default:"http://localhost:8080/query"`
	Timeout            time.Duration `envconfig:"USERSTORE_TIMEOUT" default:"10s"`
	TicketWebhookURL   string        `envconfig:"SUPPORT_WEBHOOK_URL"`
	TicketWebhookToken string        `envconfig:"SUPPORT_WEBHOOK_TOKEN"`
}

// CacheConfig configures the optional Redis cache in front of retrieval.
type CacheConfig struct {
	Enabled  bool          `envconfig:"CACHE_ENABLED" default:"false"`
	Address  string        `envconfig:"CACHE_ADDRESS" default:"localhost:6379"`
	Password string        `envconfig:"CACHE_PASSWORD"`
	DB       int           `envconfig:"CACHE_DB" default:"0"`
	TTL      time.Duration `envconfig:"CACHE_TTL" default:"5m"`
}

// AgentConfig holds the routing and composition knobs. The thresholds are
// tuned against the end-to-end scenarios rather than fixed in code.
type AgentConfig struct {
	Locale            string  `envconfig:"AGENT_LOCALE" default:"pt-BR"`
	Personality       bool    `envconfig:"AGENT_PERSONALITY" default:"true"`
	TopK              int     `envconfig:"AGENT_RETRIEVAL_TOP_K" default:"5"`
	MinGroundingScore float64 `envconfig:"AGENT_MIN_GROUNDING_SCORE" default:"0.35"`
	OffTopicThreshold float64 `envconfig:"AGENT_OFF_TOPIC_THRESHOLD" default:"0.45"`
}

func LoadConfig() (*Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return nil, err
	}
	slog.Info("configuration loaded successfully")
	return &cfg, nil
}
