package llm

import (
	"context"

	"github.com/briculinos/voyana/internal/types"
)

// Role represents the role of a message in a conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single message in a conversation with the model.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// NewSystemMessage creates a system message.
func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// NewUserMessage creates a user message.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// CompletionRequest describes one blocking completion call.
type CompletionRequest struct {
	Model       string    `json:"model,omitempty"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

// CompletionResponse is the full model response to a completion request.
type CompletionResponse struct {
	Content string `json:"content"`
	Model   string `json:"model,omitempty"`
}

// Provider is the opaque language-model capability the pipeline consumes.
// The intent extractor uses it for structured extraction and the synthesizer
// for guided narrative generation; both treat it as probabilistic and
// re-validate everything it returns.
type Provider interface {
	// Name returns the provider name (e.g. "openai", "static").
	Name() string

	// Complete sends a completion request and blocks for the full response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// Health checks connectivity to the underlying service.
	Health(ctx context.Context) types.HealthStatus
}
