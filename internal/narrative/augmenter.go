package narrative

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/wallet-analyzer/internal/knowledge"
	"github.com/wallet-analyzer/internal/logging"
	"github.com/wallet-analyzer/internal/models"
	"github.com/wallet-analyzer/internal/scoring"
	"github.com/wallet-analyzer/internal/types"
)

// DefaultMaxRounds bounds the reasoning loop; exceeding it is a failure.
const DefaultMaxRounds = 5

// Payload is the structured input handed to the reasoning service for one
// sub-analysis.
type Payload struct {
	Kind     types.AnalysisKind `json:"kind"`
	Address  string             `json:"address"`
	Baseline scoring.Result     `json:"baseline"`
	Wallet   *models.WalletData `json:"wallet"`
}

// Augmenter runs the bounded reasoning loop and guarantees a usable
// SubAnalysisResult regardless of collaborator behavior.
type Augmenter struct {
	reasoning ReasoningService
	lookup    LookupService
	maxRounds int
}

// NewAugmenter creates an augmenter. A nil reasoning service is valid and
// makes every call take the deterministic fallback path.
func NewAugmenter(reasoning ReasoningService, lookup LookupService, maxRounds int) *Augmenter {
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRounds
	}
	return &Augmenter{reasoning: reasoning, lookup: lookup, maxRounds: maxRounds}
}

// reply is the JSON object the reasoning service is asked to produce.
type reply struct {
	Narrative       string   `json:"narrative"`
	RiskScore       *float64 `json:"risk_score"`
	KeyFindings     []string `json:"key_findings"`
	Recommendations []string `json:"recommendations"`
}

// Narrate produces the narrative assessment for one sub-analysis. The
// returned score is always clamped to [0,100] and the result always valid:
// failures degrade to the deterministic baseline, never propagate.
func (a *Augmenter) Narrate(ctx context.Context, payload *Payload) *models.SubAnalysisResult {
	logger := logging.FromContext(ctx).WithFields(map[string]interface{}{
		"kind":    payload.Kind,
		"address": payload.Address,
	})

	if a.reasoning == nil {
		return a.fallback(payload)
	}

	result, err := a.runLoop(ctx, payload)
	if err != nil {
		logger.WithError(err).Warn("narrative augmentation failed, using deterministic fallback")
		return a.fallback(payload)
	}
	return result
}

// runLoop drives the bounded tool-calling conversation.
func (a *Augmenter) runLoop(ctx context.Context, payload *Payload) (*models.SubAnalysisResult, error) {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	system := systemContext(payload.Kind)
	user := string(payloadJSON)
	tools := []string{"search"}
	if a.lookup == nil {
		tools = nil
	}

	for round := 0; round < a.maxRounds; round++ {
		completion, err := a.reasoning.Complete(ctx, system, user, tools)
		if err != nil {
			return nil, fmt.Errorf("reasoning round %d: %w", round+1, err)
		}

		if len(completion.ToolCalls) > 0 {
			user = a.appendLookups(ctx, user, completion.ToolCalls)
			continue
		}

		return parseReply(completion.Text, payload)
	}

	return nil, fmt.Errorf("reasoning loop exceeded %d rounds", a.maxRounds)
}

// appendLookups resolves tool calls and folds the results into the next
// round's payload text. Lookup failures are reported to the model rather
// than failing the loop.
func (a *Augmenter) appendLookups(ctx context.Context, user string, calls []ToolCall) string {
	var b strings.Builder
	b.WriteString(user)
	for _, call := range calls {
		b.WriteString("\n\nSearch results for ")
		b.WriteString(fmt.Sprintf("%q:\n", call.Query))
		if a.lookup == nil {
			b.WriteString("(search unavailable)")
			continue
		}
		snippets, err := a.lookup.Search(ctx, call.Query)
		if err != nil {
			logging.FromContext(ctx).WithError(err).WithField("query", call.Query).Warn("lookup failed")
			b.WriteString("(search failed)")
			continue
		}
		for _, s := range snippets {
			fmt.Fprintf(&b, "- %s: %s\n", s.Title, s.Snippet)
		}
	}
	return b.String()
}

// parseReply validates the service's reply: a narrative string and a
// numeric score are mandatory, anything else is a failure.
func parseReply(text string, payload *Payload) (*models.SubAnalysisResult, error) {
	raw := ExtractJSON(text)
	if raw == "" {
		return nil, fmt.Errorf("reply contains no JSON object")
	}

	var r reply
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return nil, fmt.Errorf("malformed reply: %w", err)
	}
	if strings.TrimSpace(r.Narrative) == "" {
		return nil, fmt.Errorf("reply missing narrative")
	}
	if r.RiskScore == nil {
		return nil, fmt.Errorf("reply missing risk_score")
	}

	findings := r.KeyFindings
	if len(findings) == 0 {
		findings = payload.Baseline.Findings
	}

	return &models.SubAnalysisResult{
		Narrative:       strings.TrimSpace(r.Narrative),
		RiskScore:       scoring.Clamp(*r.RiskScore),
		KeyFindings:     findings,
		Recommendations: r.Recommendations,
		Source:          types.SourceLLM,
	}, nil
}

// ExtractJSON returns the first balanced top-level JSON object in text.
// Models habitually wrap JSON in prose or code fences.
func ExtractJSON(text string) string {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}

// fallback synthesizes a result purely from the deterministic baseline.
func (a *Augmenter) fallback(payload *Payload) *models.SubAnalysisResult {
	baseline := payload.Baseline

	var b strings.Builder
	fmt.Fprintf(&b, "Deterministic %s assessment for %s: risk score %.0f/100.",
		payload.Kind, payload.Address, scoring.Clamp(baseline.Score))
	if len(baseline.Factors) > 0 {
		b.WriteString(" Contributing factors: ")
		b.WriteString(strings.Join(baseline.Factors, "; "))
		b.WriteString(".")
	}

	findings := make([]string, 0, len(baseline.Findings)+len(baseline.Factors))
	findings = append(findings, baseline.Findings...)
	findings = append(findings, baseline.Factors...)

	return &models.SubAnalysisResult{
		Narrative:       b.String(),
		RiskScore:       scoring.Clamp(baseline.Score),
		KeyFindings:     findings,
		Recommendations: fallbackRecommendations(payload),
		Source:          types.SourceFallback,
	}
}

// fallbackRecommendations derives simple guidance from scorer details.
func fallbackRecommendations(payload *Payload) []string {
	var recs []string
	details := payload.Baseline.Details

	if mixers, ok := details["interacted_with_mixers"].(bool); ok && mixers {
		recs = append(recs, "Review interactions with mixing protocols; counterparties may treat this wallet as high risk.")
	}
	if suspicious, ok := details["suspicious_tokens"].(int); ok && suspicious > 0 {
		recs = append(recs, "Do not interact with unsolicited airdrop tokens; revoke any approvals granted to them.")
	}
	if len(recs) == 0 {
		recs = append(recs, "No immediate action required based on deterministic signals.")
	}
	return recs
}

// systemContext seeds the model with taxonomy context for one analysis kind.
func systemContext(kind types.AnalysisKind) string {
	return fmt.Sprintf(
		"You are a blockchain wallet risk analyst (taxonomy %s). "+
			"Assess the %s of the wallet described in the payload. "+
			"The payload includes a deterministic baseline score with factors; adjust it only with clear justification. "+
			"Respond with a single JSON object: "+
			`{"narrative": string, "risk_score": number 0-100, "key_findings": [string], "recommendations": [string]}.`,
		knowledge.Version, kind)
}
