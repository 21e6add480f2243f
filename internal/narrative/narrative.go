// Package narrative augments deterministic scoring results with an
// LLM-generated assessment. The external reasoning service is advisory
// only: any failure, malformed reply, or exceeded round limit falls back to
// a result synthesized locally from the deterministic scorer's output.
package narrative

import (
	"context"
)

// ToolCall is a lookup request emitted by the reasoning service.
type ToolCall struct {
	Name  string `json:"name"`
	Query string `json:"query"`
}

// Completion is one reply from the reasoning service. A reply carries
// either final text or tool calls to satisfy first.
type Completion struct {
	Text      string
	ToolCalls []ToolCall
}

// ReasoningService is the external LLM collaborator. The augmenter owns
// the tool-calling loop; implementations answer one round at a time.
type ReasoningService interface {
	Complete(ctx context.Context, systemContext, userPayload string, tools []string) (*Completion, error)
}

// ResultSnippet is one result from the lookup collaborator.
type ResultSnippet struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	URL     string `json:"url,omitempty"`
}

// LookupService resolves research queries for unknown protocols and tokens.
type LookupService interface {
	Search(ctx context.Context, query string) ([]ResultSnippet, error)
}
