package models

import "time"

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status        string            `json:"status"`
	Service       string            `json:"service"`
	Version       string            `json:"version"`
	LLMConfigured bool              `json:"llm_configured"`
	ModelProvider string            `json:"model_provider"`
	Checks        map[string]string `json:"checks,omitempty"`
	Timestamp     time.Time         `json:"timestamp"`
}

// ChatResponse is returned by POST /chat
type ChatResponse struct {
	Response  string    `json:"response"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	ModelUsed string    `json:"model_used"`
}

// QuestionResponse is returned by POST /question and POST /reasoning
type QuestionResponse struct {
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Reasoning *string   `json:"reasoning,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// AgentResponse is returned by POST /agent
type AgentResponse struct {
	Response  string                 `json:"response"`
	Message   string                 `json:"message"`
	ToolsUsed []string               `json:"tools_used"`
	Timestamp time.Time              `json:"timestamp"`
	ModelUsed string                 `json:"model_used"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// RAGResponse is returned by POST /rag
type RAGResponse struct {
	Query         string    `json:"query"`
	Answer        string    `json:"answer"`
	RetrievedDocs []string  `json:"retrieved_docs"`
	Scores        []float64 `json:"scores"`
	ContextUsed   string    `json:"context_used"`
	Timestamp     time.Time `json:"timestamp"`
}

// ToolInfo describes a registered tool for GET /tools
type ToolInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Categories  []string `json:"categories"`
}

// TrainingResponse is returned by POST /train
type TrainingResponse struct {
	FilesProcessed []string  `json:"files_processed"`
	ExamplesCount  int       `json:"examples_count"`
	Status         string    `json:"status"`
	Timestamp      time.Time `json:"timestamp"`
}

// PredictionResponse is returned by POST /predict
type PredictionResponse struct {
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Timestamp time.Time `json:"timestamp"`
}

// ToolsResponse is returned by GET /tools
type ToolsResponse struct {
	Tools      []ToolInfo `json:"tools"`
	Categories []string   `json:"categories"`
	Count      int        `json:"count"`
}

// EndpointInfo describes one route for GET /endpoints
type EndpointInfo struct {
	Method      string `json:"method"`
	Path        string `json:"path"`
	Description string `json:"description"`
}

type EndpointsResponse struct {
	Service   string         `json:"service"`
	Version   string         `json:"version"`
	Endpoints []EndpointInfo `json:"endpoints"`
}

// RAGStatusResponse is returned by GET /rag/status
type RAGStatusResponse struct {
	Configured     bool       `json:"configured"`
	RAGModuleReady bool       `json:"rag_module_ready"`
	DocumentCount  int        `json:"document_count"`
	Source         string     `json:"source"`
	UsingSamples   bool       `json:"using_samples"`
	LoadedAt       *time.Time `json:"loaded_at,omitempty"`
	Timestamp      time.Time  `json:"timestamp"`
}

type DocumentInfo struct {
	Name    string `json:"name,omitempty"`
	Content string `json:"content"`
}

// DocumentsResponse is returned by GET /rag/documents
type DocumentsResponse struct {
	Documents []DocumentInfo `json:"documents"`
	Count     int            `json:"count"`
}

// ReloadResponse is returned by POST /rag/reload
type ReloadResponse struct {
	Message   string    `json:"message"`
	Count     int       `json:"count"`
	Timestamp time.Time `json:"timestamp"`
}

// UploadResponse is returned by POST /upload-train-data
type UploadResponse struct {
	Filename string `json:"filename"`
	Message  string `json:"message"`
}
