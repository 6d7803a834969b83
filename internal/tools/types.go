// Package tools defines the Tool type, the tool registry and the built-in
// tools the agent can call.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/rs/zerolog/log"
)

// Tool represents a callable function the LLM can invoke.
// Execute never returns an error; failures are reported in the returned text.
type Tool struct {
	Name        string
	Description string
	Categories  []string
	InputSchema map[string]interface{}
	Execute     func(ctx context.Context, input map[string]interface{}) string
}

// Call runs the tool and turns a panic into an error string.
func (t Tool) Call(ctx context.Context, input map[string]interface{}) (out string) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Str("tool", t.Name).Interface("panic", rec).Msg("tool panicked")
			out = fmt.Sprintf("Error: tool %s failed unexpectedly.", t.Name)
		}
	}()
	if t.Execute == nil {
		return fmt.Sprintf("Error: tool %s is not executable.", t.Name)
	}
	return t.Execute(ctx, input)
}

// HasCategory reports whether the tool is tagged with category.
func (t Tool) HasCategory(category string) bool {
	for _, c := range t.Categories {
		if c == category {
			return true
		}
	}
	return false
}

// NoInput is the argument type of tools that take no parameters.
type NoInput struct{}

// NewTool builds a Tool whose schema is reflected from I and whose raw
// arguments are decoded into I before fn runs.
func NewTool[I any](name, description string, categories []string, fn func(ctx context.Context, in I) string) Tool {
	return Tool{
		Name:        name,
		Description: description,
		Categories:  categories,
		InputSchema: SchemaFor[I](),
		Execute: func(ctx context.Context, input map[string]interface{}) string {
			var in I
			if err := decodeInput(input, &in); err != nil {
				return fmt.Sprintf("Error: invalid arguments for %s: %v", name, err)
			}
			return fn(ctx, in)
		},
	}
}

// SchemaFor reflects a JSON schema object for I.
func SchemaFor[I any]() map[string]interface{} {
	r := &jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}
	s := r.Reflect(new(I))

	schema := map[string]interface{}{"type": "object"}
	b, err := json.Marshal(s)
	if err == nil {
		_ = json.Unmarshal(b, &schema)
	}
	delete(schema, "$schema")
	delete(schema, "$id")
	if _, ok := schema["properties"]; !ok {
		schema["properties"] = map[string]interface{}{}
	}
	return schema
}

func decodeInput(input map[string]interface{}, dst any) error {
	if len(input) == 0 {
		return nil
	}
	b, err := json.Marshal(input)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dst)
}
