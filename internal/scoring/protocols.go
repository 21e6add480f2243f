package scoring

import (
	"fmt"

	"github.com/wallet-analyzer/internal/models"
	"github.com/wallet-analyzer/internal/types"
)

// ScoreProtocols evaluates the wallet's contract interaction history.
// An empty history short-circuits to a fixed low score rather than running
// the full evaluation on nothing.
func (s *Scorer) ScoreProtocols(data *models.WalletData) Result {
	if len(data.Interactions) == 0 {
		return Result{
			Score:    protocolNoDataScore,
			Factors:  []string{"no contract interactions in analyzed window"},
			Findings: []string{"no significant protocol interactions found"},
			Details: map[string]interface{}{
				"interaction_count":      0,
				"interacted_with_mixers": false,
			},
		}
	}

	score := protocolBaseScore
	var factors, findings []string

	mixers := 0
	highRisk := 0
	unknown := 0
	trusted := 0
	failed := 0

	for i := range data.Interactions {
		in := &data.Interactions[i]
		if in.Mixer {
			mixers++
		}
		if in.IsHighRisk(s.cfg.mediumUSD(), s.cfg.highUSD()) {
			highRisk++
		}
		switch in.RiskTier {
		case types.RiskTierHigh:
			if !in.Mixer {
				unknown++
			}
		case types.RiskTierLow:
			trusted++
		}
		if in.Failed {
			failed++
		}
	}

	// Mixer interaction is a binary signal, independent of dollar value.
	if mixers > 0 {
		score += mixerPenalty
		factors = append(factors, fmt.Sprintf("%d interaction(s) with known mixing protocols (+%.0f)", mixers, mixerPenalty))
		findings = append(findings, "wallet has interacted with mixer or privacy protocols")
	}

	if highRisk > 0 {
		penalty := capAt(highRiskTxPenalty*float64(highRisk), highRiskTxPenaltyCap)
		score += penalty
		factors = append(factors, fmt.Sprintf("%d high-risk transaction(s) (+%.0f)", highRisk, penalty))
		findings = append(findings, fmt.Sprintf("%d transaction(s) combine high value with unknown or failed targets", highRisk))
	}

	if unknown > 0 {
		penalty := capAt(unknownProtoPenalty*float64(unknown), unknownProtoCap)
		score += penalty
		factors = append(factors, fmt.Sprintf("%d interaction(s) with unrecognized contracts (+%.0f)", unknown, penalty))
	}

	if trusted > 0 {
		bonus := capAt(trustedProtoBonus*float64(trusted), trustedProtoBonusCap)
		score -= bonus
		factors = append(factors, fmt.Sprintf("%d interaction(s) with established protocols (-%.0f)", trusted, bonus))
	}

	failRatio := float64(failed) / float64(len(data.Interactions))
	if failRatio > failureRatioLimit {
		score += failureRatioPenalty
		factors = append(factors, fmt.Sprintf("%.0f%% of interactions failed (+%.0f)", failRatio*100, failureRatioPenalty))
		findings = append(findings, "elevated transaction failure rate")
	}

	return Result{
		Score:    Clamp(score),
		Factors:  factors,
		Findings: findings,
		Details: map[string]interface{}{
			"interaction_count":      len(data.Interactions),
			"interacted_with_mixers": mixers > 0,
			"mixer_interactions":     mixers,
			"high_risk_transactions": highRisk,
			"unknown_contracts":      unknown,
			"trusted_interactions":   trusted,
			"failure_ratio":          failRatio,
		},
	}
}
