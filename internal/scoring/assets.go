package scoring

import (
	"fmt"

	"github.com/wallet-analyzer/internal/models"
)

// ScoreAssets evaluates token and native-currency holdings. Evaluation
// order is fixed: scam penalty, established bonus, diversification, then
// chain/DeFi engagement bonuses. Callers and tests rely on factor order.
func (s *Scorer) ScoreAssets(data *models.WalletData) Result {
	if len(data.Holdings) == 0 {
		return Result{
			Score:    assetNoDataScore,
			Factors:  []string{"wallet holds no tokens or native currency"},
			Findings: []string{"no token exposure detected"},
			Details:  map[string]interface{}{"holding_count": 0},
		}
	}

	score := assetBaseScore
	var factors, findings []string

	suspicious := 0
	suspiciousDust := 0
	established := 0
	nonDust := 0

	for i := range data.Holdings {
		h := &data.Holdings[i]
		if h.Established {
			established++
		}
		if !h.Dust {
			nonDust++
		}
		if s.isSuspicious(h) {
			suspicious++
			if h.Dust {
				suspiciousDust++
			}
		}
	}

	// 1. Scam-pattern penalty, halved when the flagged tokens are
	// overwhelmingly dust: unsolicited airdrops are not the wallet's doing.
	dustMitigated := false
	if suspicious > 0 {
		penalty := capAt(scamPenaltyPerToken*float64(suspicious), scamPenaltyCap)
		dustShare := float64(suspiciousDust) / float64(suspicious)
		if dustShare >= dustMitigationShare {
			penalty /= 2
			dustMitigated = true
		}
		score += penalty
		factors = append(factors, fmt.Sprintf("%d token(s) match scam naming patterns or spam flags (+%.0f)", suspicious, penalty))
		if dustMitigated {
			findings = append(findings, fmt.Sprintf("%d of %d suspicious tokens are dust balances, likely unsolicited airdrops; penalty halved", suspiciousDust, suspicious))
		} else {
			findings = append(findings, fmt.Sprintf("%d suspicious token(s) held at non-trivial balances", suspicious))
		}
	}

	// 2. Established-token bonus.
	if established > 0 {
		bonus := capAt(establishedBonusPer*float64(established), establishedBonusCap)
		score -= bonus
		factors = append(factors, fmt.Sprintf("%d established token(s) held (-%.0f)", established, bonus))
	}

	// 3. Over-diversification over non-dust tokens only; dust spam must not
	// read as diversification.
	if nonDust > diversityFreeTokens {
		penalty := capAt(float64(nonDust-diversityFreeTokens), diversityPenaltyCap)
		score += penalty
		factors = append(factors, fmt.Sprintf("holdings spread across %d tokens (+%.0f)", nonDust, penalty))
	}

	// 4. Multi-chain and DeFi engagement bonuses: small fixed deltas.
	activeChains := len(data.ActiveChains())
	if activeChains >= 2 {
		score -= multiChainBonus
		factors = append(factors, fmt.Sprintf("active on %d chains (-%.0f)", activeChains, multiChainBonus))
	}
	if len(data.Positions) > 0 {
		score -= defiParticipationBonus
		factors = append(factors, fmt.Sprintf("active DeFi positions (-%.0f)", defiParticipationBonus))
	}

	return Result{
		Score:    Clamp(score),
		Factors:  factors,
		Findings: findings,
		Details: map[string]interface{}{
			"holding_count":      len(data.Holdings),
			"suspicious_tokens":  suspicious,
			"suspicious_dust":    suspiciousDust,
			"dust_mitigated":     dustMitigated,
			"established_tokens": established,
			"active_chains":      activeChains,
		},
	}
}

// isSuspicious reports whether a holding looks like a scam or spam token.
// Established tokens are never suspicious.
func (s *Scorer) isSuspicious(h *models.Holding) bool {
	if h.Established {
		return false
	}
	return h.PossibleSpam || s.kb.HasScamPattern(h.Symbol, h.Name)
}
