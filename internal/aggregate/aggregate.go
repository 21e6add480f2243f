package aggregate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/wallet-analyzer/internal/logging"
	"github.com/wallet-analyzer/internal/models"
	"github.com/wallet-analyzer/internal/narrative"
	"github.com/wallet-analyzer/internal/scoring"
	"github.com/wallet-analyzer/internal/types"
)

const (
	alertHighThreshold     = 70
	alertCriticalThreshold = 85

	confidencePerAnalysis = 25
	confidenceFloor       = 30
	confidenceCeiling     = 70
)

// Input carries everything the aggregator combines into a final report.
type Input struct {
	Address  string
	Analysis map[types.AnalysisKind]*models.SubAnalysisResult
	Wallet   *models.WalletData
	// MixerExposure is true when the protocol analysis observed mixer
	// interactions; it forces an alert regardless of the overall score.
	MixerExposure bool
}

// Aggregator combines sub-analysis results into the final wallet report.
// When a reasoning service is reachable it synthesizes the overall
// assessment; otherwise the report is built deterministically.
type Aggregator struct {
	reasoning narrative.ReasoningService
}

// New creates an aggregator. A nil reasoning service is valid.
func New(reasoning narrative.ReasoningService) *Aggregator {
	return &Aggregator{reasoning: reasoning}
}

// Aggregate produces the final report. It never fails: when the reasoning
// service is absent, errors, or replies malformed, the deterministic report
// stands as synthesized.
func (a *Aggregator) Aggregate(ctx context.Context, in *Input) *models.FinalReport {
	report := a.deterministic(in)

	if a.reasoning != nil {
		if err := a.narrate(ctx, in, report); err != nil {
			logging.FromContext(ctx).WithError(err).WithField("address", in.Address).
				Warn("final assessment synthesis failed, keeping deterministic report")
		}
	}

	return report
}

// deterministic builds the full report from sub-scores alone.
func (a *Aggregator) deterministic(in *Input) *models.FinalReport {
	present := presentKinds(in.Analysis)

	score := meanScore(in.Analysis, present)
	report := &models.FinalReport{
		OverallRiskScore: score,
		RiskLevel:        BucketScore(score),
		ConfidenceScore:  Confidence(len(present)),
		Summary:          deterministicSummary(in, score, present),
		ProcessedAt:      time.Now().UTC(),
	}

	for _, kind := range present {
		sub := in.Analysis[kind]
		report.KeyRisks = append(report.KeyRisks, sub.KeyFindings...)
		report.Recommendations = append(report.Recommendations, sub.Recommendations...)
	}
	report.KeyRisks = dedupe(report.KeyRisks)
	report.Recommendations = dedupe(report.Recommendations)

	report.Alerts = synthesizeAlerts(score, in.MixerExposure)
	report.MultiChain = multiChainInfo(in.Wallet)
	return report
}

// BucketScore maps a clamped score to its risk level bucket.
func BucketScore(score float64) types.RiskLevel {
	switch {
	case score <= 20:
		return types.RiskLevelVeryLow
	case score <= 40:
		return types.RiskLevelLow
	case score <= 60:
		return types.RiskLevelMedium
	case score <= 80:
		return types.RiskLevelHigh
	default:
		return types.RiskLevelVeryHigh
	}
}

// Confidence derives the confidence score from the number of sub-analyses
// that produced a result.
func Confidence(presentCount int) float64 {
	c := float64(presentCount * confidencePerAnalysis)
	if c < confidenceFloor {
		return confidenceFloor
	}
	if c > confidenceCeiling {
		return confidenceCeiling
	}
	return c
}

func presentKinds(analysis map[types.AnalysisKind]*models.SubAnalysisResult) []types.AnalysisKind {
	var present []types.AnalysisKind
	for _, kind := range []types.AnalysisKind{types.AnalysisAssets, types.AnalysisProtocols, types.AnalysisPools} {
		if sub, ok := analysis[kind]; ok && sub != nil {
			present = append(present, kind)
		}
	}
	return present
}

func meanScore(analysis map[types.AnalysisKind]*models.SubAnalysisResult, present []types.AnalysisKind) float64 {
	if len(present) == 0 {
		return 0
	}
	var sum float64
	for _, kind := range present {
		sum += analysis[kind].RiskScore
	}
	return scoring.Clamp(sum / float64(len(present)))
}

func synthesizeAlerts(score float64, mixerExposure bool) []models.Alert {
	var alerts []models.Alert
	switch {
	case score > alertCriticalThreshold:
		alerts = append(alerts, models.Alert{
			Severity: types.SeverityCritical,
			Message:  fmt.Sprintf("Overall risk score %.0f exceeds critical threshold", score),
		})
	case score > alertHighThreshold:
		alerts = append(alerts, models.Alert{
			Severity: types.SeverityHigh,
			Message:  fmt.Sprintf("Overall risk score %.0f exceeds high-risk threshold", score),
		})
	}

	if mixerExposure {
		severity := types.SeverityHigh
		if score > alertCriticalThreshold {
			severity = types.SeverityCritical
		}
		alerts = append(alerts, models.Alert{
			Severity: severity,
			Message:  "Wallet interacted with mixing protocols",
		})
	}
	return alerts
}

// multiChainInfo lists only chains where activity was actually observed.
func multiChainInfo(wallet *models.WalletData) *models.MultiChainInfo {
	if wallet == nil {
		return nil
	}

	info := &models.MultiChainInfo{}
	for _, activity := range wallet.Chains {
		if !activity.HasActivity() {
			continue
		}
		info.ChainsWithActivity = append(info.ChainsWithActivity, activity.Chain)
		var risks []string
		if activity.TokenCount > 50 {
			risks = append(risks, fmt.Sprintf("%d distinct tokens held", activity.TokenCount))
		}
		info.PerChainRisks = append(info.PerChainRisks, models.ChainRisks{Chain: activity.Chain, Risks: risks})
	}
	info.ActiveChainCount = len(info.ChainsWithActivity)

	if info.ActiveChainCount >= 3 {
		info.CrossChainRisks = append(info.CrossChainRisks,
			"Activity spread across three or more chains complicates exposure tracking")
	}
	return info
}

func deterministicSummary(in *Input, score float64, present []types.AnalysisKind) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Wallet %s has an overall risk score of %.0f/100 (%s)", in.Address, score, BucketScore(score))
	if len(present) < 3 {
		fmt.Fprintf(&b, " based on %d of 3 completed analyses", len(present))
	}
	b.WriteString(".")
	for _, kind := range present {
		fmt.Fprintf(&b, " %s risk: %.0f.", capitalize(string(kind)), in.Analysis[kind].RiskScore)
	}
	if in.MixerExposure {
		b.WriteString(" Mixer interactions were detected.")
	}
	return b.String()
}

// assessment is the structured reply expected from the reasoning service.
// The summary is mandatory; score and confidence are optional overrides.
type assessment struct {
	Summary          string   `json:"summary"`
	OverallRiskScore *float64 `json:"overall_risk_score"`
	ConfidenceScore  *float64 `json:"confidence_score"`
}

// narrate asks the reasoning service to synthesize the overall assessment
// from the sub-results plus raw multi-chain metrics, and applies the parsed
// reply onto report. On any error or malformed reply the report is left
// untouched, so the deterministic values stand.
func (a *Aggregator) narrate(ctx context.Context, in *Input, report *models.FinalReport) error {
	payload := map[string]interface{}{
		"address":                   in.Address,
		"analysis":                  in.Analysis,
		"fallback_risk_score":       report.OverallRiskScore,
		"fallback_confidence_score": report.ConfidenceScore,
		"key_risks":                 report.KeyRisks,
		"interacted_with_mixers":    in.MixerExposure,
	}
	if in.Wallet != nil {
		payload["net_worth_usd"] = in.Wallet.NetWorthUSD
		payload["active_chains"] = in.Wallet.ActiveChains()
	}
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	system := "You are a blockchain wallet risk analyst. Synthesize one overall " +
		"assessment from the sub-analysis results and multi-chain metrics in the " +
		"payload. Respond with a JSON object containing \"summary\" (two or three " +
		"plain sentences for a compliance reviewer), \"overall_risk_score\" (0-100) " +
		"and \"confidence_score\" (0-100)."

	completion, err := a.reasoning.Complete(ctx, system, string(payloadJSON), nil)
	if err != nil {
		return err
	}

	parsed, err := parseAssessment(completion.Text)
	if err != nil {
		return err
	}

	report.Summary = parsed.Summary
	if parsed.OverallRiskScore != nil {
		report.OverallRiskScore = scoring.Clamp(*parsed.OverallRiskScore)
		report.RiskLevel = BucketScore(report.OverallRiskScore)
		report.Alerts = synthesizeAlerts(report.OverallRiskScore, in.MixerExposure)
	}
	if parsed.ConfidenceScore != nil {
		report.ConfidenceScore = scoring.Clamp(*parsed.ConfidenceScore)
	}
	return nil
}

// parseAssessment validates the service's reply. A non-empty summary is
// mandatory; a reply without one is treated as a failure.
func parseAssessment(text string) (*assessment, error) {
	raw := narrative.ExtractJSON(text)
	if raw == "" {
		return nil, fmt.Errorf("reply contains no JSON object")
	}

	var parsed assessment
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("malformed reply: %w", err)
	}
	parsed.Summary = strings.TrimSpace(parsed.Summary)
	if parsed.Summary == "" {
		return nil, fmt.Errorf("reply missing summary")
	}
	return &parsed, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func dedupe(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(items))
	out := items[:0]
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}
