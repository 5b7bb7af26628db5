package persona

import "context"

// Generator is a text-generation backend. Implementations must be safe for
// concurrent use and must not retain requests after Generate returns.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// GenerateRequest is a provider-neutral completion request.
type GenerateRequest struct {
	// System is the instruction block sent ahead of the conversation.
	System string
	// Turns are already normalized; the last one is the user turn to answer.
	Turns []Turn

	Temperature float32
	// MaxTokens caps the output length. Zero leaves the provider default.
	MaxTokens int32

	// Schema requests a JSON object output when non-nil.
	Schema *Schema
}

// Schema describes a flat JSON object of string fields.
type Schema struct {
	Fields []SchemaField
}

type SchemaField struct {
	Name        string
	Description string
}

// FieldNames returns the field names in declaration order.
func (s *Schema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, req GenerateRequest) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	return f(ctx, req)
}
