package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dspybridge/dspybridge/internal/config"
	"github.com/dspybridge/dspybridge/internal/handler"
	"github.com/dspybridge/dspybridge/internal/llm"
	"github.com/dspybridge/dspybridge/internal/middleware"
	"github.com/dspybridge/dspybridge/internal/retrieval"
	"github.com/dspybridge/dspybridge/internal/security"
	"github.com/dspybridge/dspybridge/internal/service"
	"github.com/dspybridge/dspybridge/internal/tools"
	"github.com/dspybridge/dspybridge/internal/training"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

// NewRegistry builds the tool registry from cfg.
func NewRegistry(cfg *config.Config) *tools.Registry {
	return tools.NewDefaultRegistry(tools.Options{
		HTTP:           tools.HTTPOptions{Timeout: time.Duration(cfg.ToolTimeout) * time.Second},
		WeatherAPIKey:  cfg.OpenWeatherAPIKey,
		WeatherBaseURL: cfg.WeatherBaseURL,
		JokeBaseURL:    cfg.JokeBaseURL,
		DadJokeBaseURL: cfg.DadJokeBaseURL,
	})
}

// NewLLMClient returns nil when no provider key is configured.
func NewLLMClient(cfg *config.Config) (llm.Client, error) {
	client, err := llm.New(llm.Options{
		Model:     cfg.DefaultModel,
		APIKey:    cfg.LLMAPIKey(),
		BaseURL:   cfg.LLMBaseURL,
		MaxTokens: cfg.DefaultMaxTokens,
	})
	if errors.Is(err, llm.ErrNotConfigured) {
		log.Warn().Str("model", cfg.DefaultModel).Msg("LLM API key not set - endpoints will return fallback responses")
		return nil, nil
	}
	return client, err
}

// newSource picks the document source: Elasticsearch, then PostgreSQL, then
// the docs directory. A source that cannot be built falls back to the directory.
func (s *Server) newSource(ctx context.Context) retrieval.Source {
	cfg := s.cfg
	dir := retrieval.NewDirSource(cfg.DocsDir)

	switch {
	case cfg.ElasticsearchEnabled:
		src, err := retrieval.NewElasticsearchSource(retrieval.ESConfig{
			Scheme:      cfg.ElasticsearchScheme,
			Host:        cfg.ElasticsearchHost,
			Port:        cfg.ElasticsearchPort,
			User:        cfg.ElasticsearchUser,
			Password:    cfg.ElasticsearchPassword,
			VerifyCerts: cfg.ElasticsearchVerifyCerts,
			MaxRetries:  cfg.ElasticsearchMaxRetries,
			Index:       cfg.ElasticsearchIndex,
			Limit:       cfg.MaxDocuments,
		})
		if err != nil {
			log.Warn().Err(err).Msg("Elasticsearch document source unavailable, using docs directory")
			return dir
		}
		return src
	case cfg.DatabaseURL != "":
		src, err := retrieval.NewPostgresSource(ctx, cfg.DatabaseURL, cfg.DocumentsTable, cfg.MaxDocuments)
		if err != nil {
			log.Warn().Err(err).Msg("PostgreSQL document source unavailable, using docs directory")
			return dir
		}
		s.closers = append(s.closers, func() {
			src.Close()
			log.Info().Msg("PostgreSQL pool closed")
		})
		return src
	default:
		return dir
	}
}

func (s *Server) setupRoutes() (http.Handler, error) {
	cfg := s.cfg
	ctx := context.Background()

	// ─── Services ───────────────────────────────────────────────────────────────
	client, err := NewLLMClient(cfg)
	if err != nil {
		return nil, err
	}
	registry := NewRegistry(cfg)
	bridge := service.NewBridge(service.Options{
		Client:        client,
		Registry:      registry,
		AgentMaxIters: cfg.AgentMaxIters,
	})

	retriever := retrieval.NewRetriever(s.newSource(ctx))
	if _, err := retriever.Reload(ctx); err != nil {
		log.Warn().Err(err).Str("source", retriever.SourceName()).Msg("initial document load failed, serving sample documents")
	}

	store := training.NewStore(cfg.TrainDataDir)
	trainer := service.NewTrainer(store, client, cfg.MaxDemos)

	log.Info().
		Bool("llm_configured", bridge.Configured()).
		Str("model", bridge.ModelProvider()).
		Strs("tools", registry.Names()).
		Str("documents", retriever.SourceName()).
		Int("document_count", retriever.Count()).
		Bool("auth_enabled", cfg.EnableAuth && len(cfg.APIKeys) > 0).
		Bool("prompt_validation", cfg.EnablePromptValidation).
		Bool("audit_logging", cfg.EnableAuditLogging).
		Msg("service configuration")

	if cfg.EnableAuth && len(cfg.APIKeys) == 0 {
		log.Warn().Msg("WARNING: auth enabled but no API keys configured - all API requests will be rejected")
	}

	// ─── Security ───────────────────────────────────────────────────────────────
	auditLogger := security.NewAuditLogger(cfg.EnableAuditLogging, security.NewPIIDetector(security.DefaultPIIKeywords))
	var promptVal *security.PromptValidator
	if cfg.EnablePromptValidation {
		promptVal = security.NewPromptValidator(cfg.MaxPromptLength)
	}

	// ─── Handlers ────────────────────────────────────────────────────────────────
	defaults := handler.Defaults{MaxTokens: cfg.DefaultMaxTokens, Temperature: cfg.DefaultTemperature}
	healthH := handler.NewHealthHandler(bridge, retriever)
	toolsH := handler.NewToolsHandler(registry)
	chatH := handler.NewChatHandler(bridge, auditLogger, defaults, cfg.APIKeyHeader)
	questionH := handler.NewQuestionHandler(bridge)
	agentH := handler.NewAgentHandler(bridge, promptVal, auditLogger, defaults, s.agentTimeout(), cfg.APIKeyHeader)
	ragH := handler.NewRAGHandler(bridge, retriever, cfg.DefaultTopK)
	trainingH := handler.NewTrainingHandler(store, trainer)

	// ─── Router ──────────────────────────────────────────────────────────────────
	r := chi.NewRouter()

	r.Use(middleware.Recovery)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.CORSOrigins)))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeNotFound(w)
	})

	// Public routes
	r.Get("/health", healthH.Health)
	r.Get("/", healthH.Health)
	r.Get("/endpoints", healthH.Endpoints)

	apiMiddleware := []func(http.Handler) http.Handler{
		middleware.RateLimit(cfg.RateLimitPerMinute, cfg.APIKeyHeader),
	}
	if cfg.EnableAuth {
		apiMiddleware = append(apiMiddleware, middleware.Auth(cfg.APIKeys, cfg.APIKeyHeader))
	}

	r.Group(func(r chi.Router) {
		for _, m := range apiMiddleware {
			r.Use(m)
		}

		r.Get("/tools", toolsH.List)
		r.Post("/chat", chatH.Chat)
		r.Post("/question", questionH.Question)
		r.Post("/reasoning", questionH.Reasoning)
		r.Post("/agent", agentH.Agent)

		r.Post("/rag", ragH.RAG)
		r.Get("/rag/status", ragH.Status)
		r.Get("/rag/documents", ragH.Documents)
		r.Post("/rag/reload", ragH.Reload)

		r.Post("/upload-train-data", trainingH.Upload)
		r.Post("/train", trainingH.Train)
		r.Post("/predict", trainingH.Predict)
	})

	return r, nil
}
