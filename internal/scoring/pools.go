package scoring

import (
	"fmt"

	"github.com/wallet-analyzer/internal/models"
	"github.com/wallet-analyzer/internal/types"
)

// Per-position tier weights for pool scoring.
const (
	poolTierLowWeight    = 5.0
	poolTierMediumWeight = 12.0
	poolTierHighWeight   = 25.0

	poolLPPenalty            = 5.0
	poolConcentrationPenalty = 10.0
	poolConcentrationShare   = 0.75
	poolTrustedOnlyBonus     = 10.0
)

// ScorePools evaluates DeFi positions. No positions means no pool
// exposure and therefore zero pool risk, not an error.
func (s *Scorer) ScorePools(data *models.WalletData) Result {
	if len(data.Positions) == 0 {
		return Result{
			Score:    0,
			Factors:  []string{"no DeFi positions held"},
			Findings: []string{"no liquidity or staking exposure"},
			Details:  map[string]interface{}{"position_count": 0},
		}
	}

	var factors, findings []string

	// Base: average per-position tier weight.
	var tierSum float64
	allTrusted := true
	hasLP := false
	byProtocol := make(map[string]float64)
	var totalUSD float64

	for i := range data.Positions {
		p := &data.Positions[i]
		switch p.RiskTier {
		case types.RiskTierLow:
			tierSum += poolTierLowWeight
		case types.RiskTierMedium:
			tierSum += poolTierMediumWeight
			allTrusted = false
		default:
			tierSum += poolTierHighWeight
			allTrusted = false
		}
		if p.Kind == types.PositionLiquidity || p.Kind == types.PositionFarming {
			hasLP = true
		}
		byProtocol[p.Protocol] += p.ValueUSD
		totalUSD += p.ValueUSD
	}

	score := tierSum / float64(len(data.Positions))
	factors = append(factors, fmt.Sprintf("average position trust weight %.1f across %d position(s)", score, len(data.Positions)))

	unknownCount := 0
	for i := range data.Positions {
		if data.Positions[i].RiskTier == types.RiskTierHigh {
			unknownCount++
		}
	}
	if unknownCount > 0 {
		findings = append(findings, fmt.Sprintf("%d position(s) in unrecognized protocols", unknownCount))
	}

	// LP and farming carry impermanent-loss exposure that staking and
	// lending do not.
	if hasLP {
		score += poolLPPenalty
		factors = append(factors, fmt.Sprintf("liquidity/farming positions carry impermanent loss exposure (+%.0f)", poolLPPenalty))
	}

	// Concentration: one protocol holding most of the position value.
	if totalUSD > 0 && len(byProtocol) >= 1 {
		var maxShare float64
		var maxProtocol string
		for protocol, usd := range byProtocol {
			share := usd / totalUSD
			if share > maxShare {
				maxShare = share
				maxProtocol = protocol
			}
		}
		if maxShare > poolConcentrationShare && len(data.Positions) > 1 {
			score += poolConcentrationPenalty
			factors = append(factors, fmt.Sprintf("%.0f%% of position value concentrated in %s (+%.0f)", maxShare*100, maxProtocol, poolConcentrationPenalty))
			findings = append(findings, fmt.Sprintf("position value concentrated in a single protocol (%s)", maxProtocol))
		}
	}

	if allTrusted {
		score -= poolTrustedOnlyBonus
		factors = append(factors, fmt.Sprintf("all positions in tier-1/2 protocols (-%.0f)", poolTrustedOnlyBonus))
	}

	return Result{
		Score:    Clamp(score),
		Factors:  factors,
		Findings: findings,
		Details: map[string]interface{}{
			"position_count":    len(data.Positions),
			"unknown_positions": unknownCount,
			"protocol_count":    len(byProtocol),
			"total_value_usd":   totalUSD,
		},
	}
}
