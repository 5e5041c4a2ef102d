package providers

import (
	"context"
	"strings"
	"sync"

	"github.com/briculinos/voyana/internal/llm"
	"github.com/briculinos/voyana/internal/types"
)

// StaticProvider implements llm.Provider with canned responses. It is the
// deterministic test double for the extraction and narration capabilities,
// and can be configured as the provider in offline environments.
//
// Responses can be keyed by a substring of the request's first user message,
// or served in order from a queue; keyed responses win.
type StaticProvider struct {
	mu        sync.Mutex
	keyed     map[string]string
	queue     []string
	nextQueue int
	calls     []llm.CompletionRequest
}

// NewStaticProvider creates a provider that serves responses in order.
func NewStaticProvider(responses ...string) *StaticProvider {
	return &StaticProvider{queue: responses, keyed: map[string]string{}}
}

// Respond registers a canned response for any request whose user message
// contains the given substring.
func (p *StaticProvider) Respond(substring, response string) *StaticProvider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keyed[substring] = response
	return p
}

// Name returns the provider name.
func (p *StaticProvider) Name() string {
	return "static"
}

// Complete serves the canned response matching the request.
func (p *StaticProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, llm.TranslateError("static", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, req)

	userText := ""
	for _, m := range req.Messages {
		if m.Role == llm.RoleUser {
			userText += m.Content + "\n"
		}
	}
	for substr, resp := range p.keyed {
		if strings.Contains(userText, substr) {
			return &llm.CompletionResponse{Content: resp, Model: "static"}, nil
		}
	}

	if p.nextQueue >= len(p.queue) {
		return nil, types.NewError(types.GENERATION_FAILED, "", "static provider has no response configured")
	}
	resp := p.queue[p.nextQueue]
	p.nextQueue++
	return &llm.CompletionResponse{Content: resp, Model: "static"}, nil
}

// Health always reports healthy.
func (p *StaticProvider) Health(ctx context.Context) types.HealthStatus {
	return types.Healthy("static provider")
}

// Calls returns the recorded completion requests, for test assertions.
func (p *StaticProvider) Calls() []llm.CompletionRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]llm.CompletionRequest, len(p.calls))
	copy(out, p.calls)
	return out
}
