// Package modules implements the structured prompting primitives the
// endpoints are built on: Predict, ChainOfThought and ReAct. A module
// renders its Signature into a prompt, calls the LLM and parses the named
// output fields from the reply.
package modules

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidSignature = errors.New("invalid signature")
	ErrMissingOutput    = errors.New("missing output field")
)

// Field is a named input or output of a Signature.
type Field struct {
	Name    string
	Desc    string
	Default string
}

// Signature declares what a module consumes and produces.
type Signature struct {
	Name         string
	Instructions string
	Inputs       []Field
	Outputs      []Field
}

// ParseSignature parses the compact "in1, in2 -> out1, out2" form.
func ParseSignature(s string) (Signature, error) {
	in, out, ok := strings.Cut(s, "->")
	if !ok {
		return Signature{}, fmt.Errorf("%w: %q has no \"->\"", ErrInvalidSignature, s)
	}
	inputs, err := parseFields(in)
	if err != nil {
		return Signature{}, fmt.Errorf("%w: inputs of %q: %v", ErrInvalidSignature, s, err)
	}
	outputs, err := parseFields(out)
	if err != nil {
		return Signature{}, fmt.Errorf("%w: outputs of %q: %v", ErrInvalidSignature, s, err)
	}
	if len(outputs) == 0 {
		return Signature{}, fmt.Errorf("%w: %q declares no outputs", ErrInvalidSignature, s)
	}
	return Signature{Inputs: inputs, Outputs: outputs}, nil
}

// MustSignature is ParseSignature for package-level declarations.
func MustSignature(s string) Signature {
	sig, err := ParseSignature(s)
	if err != nil {
		panic(err)
	}
	return sig
}

func parseFields(s string) ([]Field, error) {
	var fields []Field
	seen := map[string]bool{}
	for _, part := range strings.Split(s, ",") {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		if strings.ContainsAny(name, " \t\n\"'{}") {
			return nil, fmt.Errorf("bad field name %q", name)
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate field %q", name)
		}
		seen[name] = true
		fields = append(fields, Field{Name: name})
	}
	return fields, nil
}

// WithInstructions returns a copy carrying the given task description.
func (s Signature) WithInstructions(text string) Signature {
	s.Instructions = text
	return s
}

// Describe sets descriptions for existing fields by name.
func (s Signature) Describe(desc map[string]string) Signature {
	s.Inputs = describeFields(s.Inputs, desc)
	s.Outputs = describeFields(s.Outputs, desc)
	return s
}

// WithDefault sets the fallback value of an input field.
func (s Signature) WithDefault(name, value string) Signature {
	s.Inputs = append([]Field(nil), s.Inputs...)
	for i := range s.Inputs {
		if s.Inputs[i].Name == name {
			s.Inputs[i].Default = value
		}
	}
	return s
}

// PrependOutput returns a copy with f as the first output field.
func (s Signature) PrependOutput(f Field) Signature {
	s.Outputs = append([]Field{f}, s.Outputs...)
	return s
}

func (s Signature) OutputNames() []string {
	names := make([]string, len(s.Outputs))
	for i, f := range s.Outputs {
		names[i] = f.Name
	}
	return names
}

// String renders the compact form.
func (s Signature) String() string {
	names := func(fs []Field) string {
		out := make([]string, len(fs))
		for i, f := range fs {
			out[i] = f.Name
		}
		return strings.Join(out, ", ")
	}
	return names(s.Inputs) + " -> " + names(s.Outputs)
}

func describeFields(fields []Field, desc map[string]string) []Field {
	out := append([]Field(nil), fields...)
	for i := range out {
		if d, ok := desc[out[i].Name]; ok {
			out[i].Desc = d
		}
	}
	return out
}
