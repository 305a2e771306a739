package llm

import (
	"context"
	"encoding/json"
)

// Provider is the tutoring language model abstraction. The tutoring core
// never talks to a concrete AI backend directly; any implementation of
// this interface is substitutable.
type Provider interface {
	// Generate sends a prompt to the model and returns its response.
	// When the request carries a Schema, the Content is JSON validated
	// against it; otherwise Content is the raw text.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured
	// to use.
	ModelID() string
}

// Request describes one generation turn.
type Request struct {
	// System sets the model's role and constraints. The orchestrator
	// frames this per teaching stage.
	System string

	// Messages is the conversation so far. Teaching and assessment are
	// single-turn; the discussion loop accumulates alternating
	// user/assistant messages here.
	Messages []Message

	// Schema, when set, instructs the provider to return JSON conforming
	// to it (graph generation, quiz questions, evaluations). When nil
	// the response is free text (explanations, discussion answers).
	Schema *Schema

	// MaxTokens caps the response length.
	MaxTokens int

	// Temperature controls randomness, 0.0-1.0. Zero means deterministic.
	Temperature float64
}

// Message is a single conversation message.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema defines the JSON structure expected from the model.
type Schema struct {
	// Name identifies the schema (tool name for Anthropic, schema name
	// for OpenAI). Kebab-case, e.g. "knowledge-graph".
	Name string

	// Description guides the model toward the intended output.
	Description string

	// Definition is the JSON Schema definition.
	Definition map[string]any
}

// Response holds the model output.
type Response struct {
	// Content is the generated output: validated JSON when the request
	// carried a Schema, raw text otherwise.
	Content json.RawMessage

	// Usage reports token consumption for this request.
	Usage Usage

	// Model is the model that actually served the request.
	Model string

	// StopReason is normalized to "end", "max_tokens", or "error".
	StopReason string
}

// Text returns the response content as a plain string, for free-text
// requests.
func (r *Response) Text() string {
	return string(r.Content)
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
