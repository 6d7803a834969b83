package modules

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// parseOutputs pulls the output fields out of a model reply. The reply is
// expected to be a JSON object, optionally fenced. A signature with a single
// output accepts plain text as that output.
func parseOutputs(text string, outputs []Field) (map[string]string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: empty response", ErrMissingOutput)
	}

	obj, ok := extractObject(text)
	if !ok {
		if len(outputs) == 1 {
			return map[string]string{outputs[0].Name: trimFence(text)}, nil
		}
		return nil, fmt.Errorf("%w: response is not a JSON object", ErrMissingOutput)
	}

	fields := make(map[string]string, len(outputs))
	var missing []string
	for _, f := range outputs {
		r := gjson.Get(obj, gjson.Escape(f.Name))
		if !r.Exists() || r.Type == gjson.Null {
			missing = append(missing, f.Name)
			continue
		}
		fields[f.Name] = strings.TrimSpace(r.String())
	}
	if len(missing) > 0 {
		if len(outputs) == 1 {
			return map[string]string{outputs[0].Name: text}, nil
		}
		return nil, fmt.Errorf("%w: %s", ErrMissingOutput, strings.Join(missing, ", "))
	}
	return fields, nil
}

// extractObject finds the outermost JSON object in text.
func extractObject(text string) (string, bool) {
	text = trimFence(text)
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return "", false
	}
	candidate := text[start : end+1]
	if !gjson.Valid(candidate) {
		return "", false
	}
	return candidate, true
}

// trimFence strips a surrounding ``` or ```json code fence.
func trimFence(text string) string {
	const fence = "```"
	start := strings.Index(text, fence)
	if start == -1 {
		return text
	}
	rest := text[start+len(fence):]
	if nl := strings.IndexByte(rest, '\n'); nl != -1 && !strings.ContainsAny(rest[:nl], "{[") {
		rest = rest[nl+1:]
	}
	if end := strings.LastIndex(rest, fence); end != -1 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest)
}
