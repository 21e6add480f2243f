package narrative

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/wallet-analyzer/internal/config"
	apperrors "github.com/wallet-analyzer/internal/errors"
)

// OpenAIClient implements ReasoningService against an OpenAI-compatible
// chat-completions endpoint.
type OpenAIClient struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

// NewOpenAIClient creates a client from configuration. Returns nil when no
// base URL is configured, which callers treat as "reasoning disabled".
func NewOpenAIClient(cfg *config.NarrativeConfig) *OpenAIClient {
	if cfg.BaseURL == "" {
		return nil
	}
	return &OpenAIClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Tools    []chatTool    `json:"tools,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatTool struct {
	Type     string           `json:"type"`
	Function chatToolFunction `json:"function"`
}

type chatToolFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content   string `json:"content"`
			ToolCalls []struct {
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

var searchToolSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"query": {"type": "string", "description": "search query"}
	},
	"required": ["query"]
}`)

// Complete sends one chat-completion round. Tool calls in the reply are
// surfaced for the caller to resolve.
func (c *OpenAIClient) Complete(ctx context.Context, systemContext, userPayload string, tools []string) (*Completion, error) {
	req := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemContext},
			{Role: "user", Content: userPayload},
		},
	}
	for _, tool := range tools {
		if tool != "search" {
			continue
		}
		req.Tools = append(req.Tools, chatTool{
			Type: "function",
			Function: chatToolFunction{
				Name:        "search",
				Description: "Look up public information about a token, protocol, or address",
				Parameters:  searchToolSchema,
			},
		})
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, apperrors.NewNarrativeError("failed to encode completion request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.NewNarrativeError("failed to build completion request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, apperrors.NewNarrativeError("completion request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewNarrativeError("failed to read completion response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewNarrativeError(
			fmt.Sprintf("completion endpoint returned status %d", resp.StatusCode), nil)
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, apperrors.NewNarrativeError("failed to decode completion response", err)
	}
	if parsed.Error != nil {
		return nil, apperrors.NewNarrativeError("completion endpoint error: "+parsed.Error.Message, nil)
	}
	if len(parsed.Choices) == 0 {
		return nil, apperrors.NewNarrativeError("completion response has no choices", nil)
	}

	msg := parsed.Choices[0].Message
	completion := &Completion{Text: msg.Content}
	for _, tc := range msg.ToolCalls {
		if tc.Function.Name != "search" {
			continue
		}
		var args struct {
			Query string `json:"query"`
		}
		if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil || args.Query == "" {
			continue
		}
		completion.ToolCalls = append(completion.ToolCalls, ToolCall{Name: tc.Function.Name, Query: args.Query})
	}
	return completion, nil
}
