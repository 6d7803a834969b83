package security

import (
	"strings"
)

// DefaultPIIKeywords are flagged in audit records when they appear in a prompt.
var DefaultPIIKeywords = []string{"password", "ssn", "social security", "credit card", "api key", "passport"}

// PIIDetector checks prompts for sensitive PII keywords
type PIIDetector struct {
	keywords []string
}

func NewPIIDetector(keywords []string) *PIIDetector {
	lower := make([]string, len(keywords))
	for i, k := range keywords {
		lower[i] = strings.ToLower(k)
	}
	return &PIIDetector{keywords: lower}
}

// Detect returns true and the matched keyword if PII is found in text
func (d *PIIDetector) Detect(text string) (bool, string) {
	if d == nil {
		return false, ""
	}
	lower := strings.ToLower(text)
	for _, kw := range d.keywords {
		if strings.Contains(lower, kw) {
			return true, kw
		}
	}
	return false, ""
}
