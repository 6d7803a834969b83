package security

import (
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// AuditLogger logs security-relevant events with hashed identifiers
type AuditLogger struct {
	enabled bool
	pii     *PIIDetector
}

func NewAuditLogger(enabled bool, pii *PIIDetector) *AuditLogger {
	return &AuditLogger{enabled: enabled, pii: pii}
}

// LLMRequest describes one endpoint call that reached the model.
type LLMRequest struct {
	Endpoint         string
	Prompt           string
	APIKey           string
	RequestID        string
	ToolsUsed        []string
	ValidationPassed bool
	Success          bool
	Duration         time.Duration
	Err              error
}

// LogLLMRequest records an LLM request event. Prompt and key are only
// logged as hashes.
func (a *AuditLogger) LogLLMRequest(r LLMRequest) {
	if a == nil || !a.enabled {
		return
	}
	hasPII, _ := a.pii.Detect(r.Prompt)

	evt := log.Info().
		Str("event", "llm_audit").
		Str("endpoint", r.Endpoint).
		Str("request_id", r.RequestID).
		Str("prompt_hash", hashStr(r.Prompt)[:16]).
		Str("api_key_hash", hashStr(r.APIKey)[:16]).
		Bool("pii_detected", hasPII).
		Strs("tools_used", r.ToolsUsed).
		Bool("validation_passed", r.ValidationPassed).
		Bool("success", r.Success).
		Int64("execution_time_ms", r.Duration.Milliseconds())

	if r.Err != nil {
		evt = evt.Str("error", r.Err.Error())
	}
	evt.Msg("audit")
}

// LogRejectedPrompt records a prompt the validator refused.
func (a *AuditLogger) LogRejectedPrompt(endpoint, prompt, apiKey, reason string) {
	if a == nil || !a.enabled {
		return
	}
	log.Warn().
		Str("event", "prompt_rejected").
		Str("endpoint", endpoint).
		Str("prompt_hash", hashStr(prompt)[:16]).
		Str("api_key_hash", hashStr(apiKey)[:16]).
		Str("reason", reason).
		Msg("audit")
}

func hashStr(s string) string {
	h := sha256.Sum256([]byte(s))
	return fmt.Sprintf("%x", h)
}
