package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Server
	Host        string `json:"host" yaml:"host"`
	Port        int    `json:"port" yaml:"port"`
	Environment string `json:"environment" yaml:"environment"`
	LogLevel    string `json:"log_level" yaml:"log_level"`
	Debug       bool   `json:"debug" yaml:"debug"`

	// CORS
	CORSOrigins []string `json:"cors_origins" yaml:"cors_origins"`

	// Auth
	APIKeyHeader string   `json:"api_key_header" yaml:"api_key_header"`
	APIKeys      []string `json:"api_keys" yaml:"api_keys"`
	EnableAuth   bool     `json:"enable_auth" yaml:"enable_auth"`

	// Rate Limiting
	RateLimitPerMinute int `json:"rate_limit_per_minute" yaml:"rate_limit_per_minute"`

	// AI / LLM
	DefaultModel       string  `json:"default_model" yaml:"default_model"` // provider/model, e.g. groq/llama-3.1-8b-instant
	GroqAPIKey         string  `json:"groq_api_key" yaml:"groq_api_key"`
	OpenAIAPIKey       string  `json:"openai_api_key" yaml:"openai_api_key"`
	AnthropicAPIKey    string  `json:"anthropic_api_key" yaml:"anthropic_api_key"`
	LLMBaseURL         string  `json:"llm_base_url" yaml:"llm_base_url"` // override for proxies / compatible gateways
	DefaultMaxTokens   int     `json:"default_max_tokens" yaml:"default_max_tokens"`
	DefaultTemperature float64 `json:"default_temperature" yaml:"default_temperature"`
	AgentTimeout       int     `json:"agent_timeout" yaml:"agent_timeout"`
	AgentMaxIters      int     `json:"agent_max_iters" yaml:"agent_max_iters"`

	// Tools
	OpenWeatherAPIKey string `json:"openweather_api_key" yaml:"openweather_api_key"`
	ToolTimeout       int    `json:"tool_timeout" yaml:"tool_timeout"`
	WeatherBaseURL    string `json:"weather_base_url" yaml:"weather_base_url"`
	JokeBaseURL       string `json:"joke_base_url" yaml:"joke_base_url"`
	DadJokeBaseURL    string `json:"dad_joke_base_url" yaml:"dad_joke_base_url"`

	// Security
	EnablePromptValidation bool `json:"enable_prompt_validation" yaml:"enable_prompt_validation"`
	MaxPromptLength        int  `json:"max_prompt_length" yaml:"max_prompt_length"`
	EnableAuditLogging     bool `json:"enable_audit_logging" yaml:"enable_audit_logging"`

	// Retrieval
	DocsDir        string `json:"docs_dir" yaml:"docs_dir"`
	DefaultTopK    int    `json:"default_top_k" yaml:"default_top_k"`
	MaxDocuments   int    `json:"max_documents" yaml:"max_documents"`
	DatabaseURL    string `json:"database_url" yaml:"database_url"`
	DocumentsTable string `json:"documents_table" yaml:"documents_table"`

	// Elasticsearch document source
	ElasticsearchEnabled     bool   `json:"elasticsearch_enabled" yaml:"elasticsearch_enabled"`
	ElasticsearchHost        string `json:"elasticsearch_host" yaml:"elasticsearch_host"`
	ElasticsearchPort        int    `json:"elasticsearch_port" yaml:"elasticsearch_port"`
	ElasticsearchScheme      string `json:"elasticsearch_scheme" yaml:"elasticsearch_scheme"`
	ElasticsearchUser        string `json:"elasticsearch_user" yaml:"elasticsearch_user"`
	ElasticsearchPassword    string `json:"elasticsearch_password" yaml:"elasticsearch_password"`
	ElasticsearchVerifyCerts bool   `json:"elasticsearch_verify_certs" yaml:"elasticsearch_verify_certs"`
	ElasticsearchMaxRetries  int    `json:"elasticsearch_max_retries" yaml:"elasticsearch_max_retries"`
	ElasticsearchIndex       string `json:"elasticsearch_index" yaml:"elasticsearch_index"`

	// Training
	TrainDataDir string `json:"train_data_dir" yaml:"train_data_dir"`
	MaxDemos     int    `json:"max_demos" yaml:"max_demos"`
}

func Load() (*Config, error) {
	cfg := &Config{
		Host:                     DefaultHost,
		Port:                     DefaultPort,
		Environment:              DefaultEnvironment,
		LogLevel:                 DefaultLogLevel,
		CORSOrigins:              DefaultCORSOrigins,
		APIKeyHeader:             "X-API-Key",
		RateLimitPerMinute:       DefaultRateLimitPerMinute,
		DefaultModel:             DefaultModel,
		DefaultMaxTokens:         DefaultMaxTokens,
		DefaultTemperature:       DefaultTemperature,
		AgentTimeout:             DefaultAgentTimeout,
		AgentMaxIters:            DefaultAgentMaxIters,
		ToolTimeout:              DefaultToolTimeout,
		WeatherBaseURL:           DefaultWeatherBaseURL,
		JokeBaseURL:              DefaultJokeBaseURL,
		DadJokeBaseURL:           DefaultDadJokeBaseURL,
		EnablePromptValidation:   true,
		MaxPromptLength:          DefaultMaxPromptLength,
		EnableAuditLogging:       true,
		DocsDir:                  DefaultDocsDir,
		DefaultTopK:              DefaultTopK,
		MaxDocuments:             DefaultMaxDocuments,
		DocumentsTable:           DefaultDocumentsTable,
		ElasticsearchPort:        DefaultElasticsearchPort,
		ElasticsearchScheme:      DefaultElasticsearchScheme,
		ElasticsearchVerifyCerts: true,
		ElasticsearchMaxRetries:  DefaultElasticsearchMaxRetries,
		ElasticsearchIndex:       DefaultElasticsearchIndex,
		TrainDataDir:             DefaultTrainDataDir,
		MaxDemos:                 DefaultMaxDemos,
	}

	// Load from JSON or YAML config file if specified
	if path := getEnv("DSPYBRIDGE_CONFIG", ""); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
	}

	// Environment overrides
	applyEnvOverrides(cfg)

	return cfg, nil
}

// Provider returns the provider prefix of DefaultModel ("groq" for "groq/llama-3.1-8b-instant").
func (c *Config) Provider() string {
	if i := strings.Index(c.DefaultModel, "/"); i > 0 {
		return strings.ToLower(c.DefaultModel[:i])
	}
	return "openai"
}

// LLMAPIKey returns the API key matching the configured provider.
func (c *Config) LLMAPIKey() string {
	switch c.Provider() {
	case "groq":
		return c.GroqAPIKey
	case "anthropic":
		return c.AnthropicAPIKey
	default:
		return c.OpenAIAPIKey
	}
}

// IsConfigured reports whether an LLM provider can be reached.
func (c *Config) IsConfigured() bool {
	return c.LLMAPIKey() != ""
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	default:
		return json.Unmarshal(data, cfg)
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := getEnv("DSPYBRIDGE_HOST", getEnv("HOST", "")); v != "" {
		cfg.Host = v
	}
	if v := getEnv("DSPYBRIDGE_PORT", getEnv("PORT", "")); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Port = p
		}
	}
	if v := getEnv("DSPYBRIDGE_ENV", ""); v != "" {
		cfg.Environment = v
	}
	if v := getEnv("DSPYBRIDGE_LOG_LEVEL", ""); v != "" {
		cfg.LogLevel = v
	}
	if v := getEnv("DEBUG", ""); v != "" {
		cfg.Debug = parseBool(v)
	}
	if v := getEnv("DSPYBRIDGE_API_KEYS", ""); v != "" {
		cfg.APIKeys = splitList(v)
	}
	if v := getEnv("ENABLE_AUTH", ""); v != "" {
		cfg.EnableAuth = parseBool(v)
	}
	if v := getEnv("CORS_ORIGINS", ""); v != "" {
		cfg.CORSOrigins = splitList(v)
	}
	if v := getEnv("RATE_LIMIT_PER_MINUTE", ""); v != "" {
		if r, err := strconv.Atoi(v); err == nil {
			cfg.RateLimitPerMinute = r
		}
	}

	if v := getEnv("DEFAULT_MODEL", ""); v != "" {
		cfg.DefaultModel = v
	}
	if v := getEnv("GROQ_API_KEY", ""); v != "" {
		cfg.GroqAPIKey = v
	}
	if v := getEnv("OPENAI_API_KEY", ""); v != "" {
		cfg.OpenAIAPIKey = v
	}
	if v := getEnv("ANTHROPIC_API_KEY", ""); v != "" {
		cfg.AnthropicAPIKey = v
	}
	if v := getEnv("LLM_BASE_URL", ""); v != "" {
		cfg.LLMBaseURL = v
	}
	if v := getEnv("DEFAULT_MAX_TOKENS", ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.DefaultMaxTokens = n
		}
	}
	if v := getEnv("DEFAULT_TEMPERATURE", ""); v != "" {
		if t, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.DefaultTemperature = t
		}
	}
	if v := getEnv("AGENT_TIMEOUT", ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.AgentTimeout = n
		}
	}

	if v := getEnv("OPENWEATHER_API_KEY", ""); v != "" {
		cfg.OpenWeatherAPIKey = v
	}
	if v := getEnv("TOOL_TIMEOUT", ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ToolTimeout = n
		}
	}

	if v := getEnv("DOCS_DIR", ""); v != "" {
		cfg.DocsDir = v
	}
	if v := getEnv("DATABASE_URL", ""); v != "" {
		cfg.DatabaseURL = v
	}
	if v := getEnv("ELASTICSEARCH_ENABLED", ""); v != "" {
		cfg.ElasticsearchEnabled = parseBool(v)
	}
	if v := getEnv("ELASTICSEARCH_HOST", ""); v != "" {
		cfg.ElasticsearchHost = v
	}
	if v := getEnv("ELASTICSEARCH_PORT", ""); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.ElasticsearchPort = p
		}
	}
	if v := getEnv("ELASTICSEARCH_SCHEME", ""); v != "" {
		cfg.ElasticsearchScheme = v
	}
	if v := getEnv("ELASTICSEARCH_USER", ""); v != "" {
		cfg.ElasticsearchUser = v
	}
	if v := getEnv("ELASTICSEARCH_PASSWORD", ""); v != "" {
		cfg.ElasticsearchPassword = v
	}
	if v := getEnv("ELASTICSEARCH_INDEX", ""); v != "" {
		cfg.ElasticsearchIndex = v
	}

	if v := getEnv("TRAIN_DATA_DIR", ""); v != "" {
		cfg.TrainDataDir = v
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func parseBool(v string) bool {
	return v == "true" || v == "1" || strings.EqualFold(v, "yes")
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
