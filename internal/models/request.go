package models

// ChatRequest for POST /chat
type ChatRequest struct {
	Message      string   `json:"message" validate:"required,max=8000"`
	SystemPrompt *string  `json:"system_prompt,omitempty" validate:"omitempty,max=4000"`
	MaxTokens    int      `json:"max_tokens" validate:"gte=0,lte=2000"`
	Temperature  *float64 `json:"temperature,omitempty" validate:"omitempty,gte=0,lte=2"`
}

// QuestionRequest for POST /question and POST /reasoning
type QuestionRequest struct {
	Question string  `json:"question" validate:"required,max=4000"`
	Context  *string `json:"context,omitempty" validate:"omitempty,max=20000"`
}

// ContextOrEmpty returns the optional context, or "" when absent.
func (r *QuestionRequest) ContextOrEmpty() string {
	if r.Context == nil {
		return ""
	}
	return *r.Context
}

// AgentRequest for POST /agent
type AgentRequest struct {
	Message     string   `json:"message" validate:"required"`
	EnableTools *bool    `json:"enable_tools,omitempty"`
	Tools       []string `json:"tools,omitempty" validate:"omitempty,max=10,dive,required"`
	Category    string   `json:"category,omitempty"`
	MaxTokens   int      `json:"max_tokens" validate:"gte=0,lte=2000"`
	Temperature *float64 `json:"temperature,omitempty" validate:"omitempty,gte=0,lte=2"`
}

// ToolsEnabled defaults to true when enable_tools is omitted.
func (r *AgentRequest) ToolsEnabled() bool {
	return r.EnableTools == nil || *r.EnableTools
}

// RAGRequest for POST /rag. When Documents is set retrieval ranks those
// instead of the loaded corpus.
type RAGRequest struct {
	Query     string   `json:"query" validate:"required,max=4000"`
	TopK      int      `json:"top_k" validate:"gte=0,lte=10"`
	Documents []string `json:"documents,omitempty" validate:"omitempty,max=100"`
}

func (r *RAGRequest) SetDefaults(topK int) {
	if r.TopK == 0 {
		r.TopK = topK
	}
}

// PredictionRequest for POST /predict
type PredictionRequest struct {
	Question string `json:"question" validate:"required,max=4000"`
}
