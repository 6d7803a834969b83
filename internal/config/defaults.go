package config

const (
	AppName = "DSPyBridge"
	Version = "1.0.0"

	DefaultHost        = "0.0.0.0"
	DefaultPort        = 8000
	DefaultEnvironment = "development"
	DefaultLogLevel    = "info"

	DefaultRateLimitPerMinute = 60

	DefaultModel       = "groq/llama-3.1-8b-instant"
	DefaultMaxTokens   = 500
	DefaultTemperature = 0.7

	DefaultAgentTimeout  = 120 // seconds
	DefaultAgentMaxIters = 6

	DefaultToolTimeout    = 15 // seconds
	DefaultWeatherBaseURL = "https://api.openweathermap.org/data/2.5"
	DefaultJokeBaseURL    = "https://v2.jokeapi.dev"
	DefaultDadJokeBaseURL = "https://icanhazdadjoke.com"

	DefaultMaxPromptLength = 4000

	DefaultDocsDir        = "docs"
	DefaultDocumentsTable = "documents"
	DefaultTopK           = 3
	DefaultMaxDocuments   = 100

	DefaultElasticsearchPort       = 9200
	DefaultElasticsearchScheme     = "http"
	DefaultElasticsearchMaxRetries = 3
	DefaultElasticsearchIndex      = "documents"

	DefaultTrainDataDir = "train-data"
	DefaultMaxDemos     = 16

	DefaultCORSMaxAge = 300
)

var DefaultCORSOrigins = []string{"*"}
