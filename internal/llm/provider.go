package llm

import (
	"context"
	"encoding/json"
)

// Provider sends a prompt to a model and returns its reply.
type Provider interface {
	// Generate runs req. When req.Schema is set the reply Content is JSON
	// that has already been checked against the schema.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID is the model the provider sends requests to.
	ModelID() string
}

// Request is one prompt.
type Request struct {
	System   string
	Messages []Message

	// Schema asks for a JSON reply matching it. Nil means free text.
	Schema *Schema

	MaxTokens int
	// Temperature of 0 leaves the provider's default in place.
	Temperature float64
}

// Ask builds a single-turn request with one user message.
func Ask(system, prompt string, schema *Schema) Request {
	return Request{
		System:   system,
		Messages: []Message{{Role: RoleUser, Content: prompt}},
		Schema:   schema,
	}
}

// Message is one turn of a conversation.
type Message struct {
	Role    Role
	Content string
}

// Role is who sent a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema is a named JSON Schema. Name doubles as the tool or
// response-format name on providers that need one, so keep it kebab-case
// (e.g. "answer-explanation").
type Schema struct {
	Name        string
	Description string
	Definition  map[string]any
}

// StopReason says why a model stopped generating, normalized across
// providers.
type StopReason string

const (
	StopEnd       StopReason = "end"
	StopMaxTokens StopReason = "max_tokens"
)

// Response is a model reply.
type Response struct {
	Content    json.RawMessage
	Usage      Usage
	Model      string // model that actually served the request
	StopReason StopReason
}

// Decode unmarshals a structured reply into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Content, v); err != nil {
		return &ErrInvalidResponse{Content: r.Content, Err: err}
	}
	return nil
}

// Usage is the token count of one request.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Total is input plus output tokens.
func (u Usage) Total() int {
	return u.InputTokens + u.OutputTokens
}

// checkReply applies the rules every adapter shares to a raw reply: a
// structured reply cut off by the token limit is an error, and any
// structured reply must match its schema.
func checkReply(req Request, content json.RawMessage, stop StopReason) error {
	if req.Schema == nil {
		return nil
	}
	if stop == StopMaxTokens {
		return &ErrMaxTokensExceeded{Content: content}
	}
	return validateResponse(req.Schema, content)
}
