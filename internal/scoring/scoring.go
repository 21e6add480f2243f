// Package scoring implements the deterministic risk scorers for assets,
// protocols, and pools. Each scorer is a pure function over normalized
// wallet data and the knowledge base: base score plus signed, individually
// capped adjustments, clamped to [0,100].
package scoring

import (
	"github.com/wallet-analyzer/internal/knowledge"
)

// Reference scoring constants.
const (
	assetBaseScore         = 40.0
	assetNoDataScore       = 10.0
	protocolBaseScore      = 15.0
	protocolNoDataScore    = 5.0
	scamPenaltyPerToken    = 8.0
	scamPenaltyCap         = 60.0
	establishedBonusPer    = 4.0
	establishedBonusCap    = 20.0
	diversityPenaltyCap    = 15.0
	diversityFreeTokens    = 30
	multiChainBonus        = 5.0
	defiParticipationBonus = 5.0

	mixerPenalty         = 30.0
	highRiskTxPenalty    = 6.0
	highRiskTxPenaltyCap = 30.0
	unknownProtoPenalty  = 4.0
	unknownProtoCap      = 20.0
	trustedProtoBonus    = 3.0
	trustedProtoBonusCap = 12.0
	failureRatioPenalty  = 10.0
	failureRatioLimit    = 0.25

	// share of suspicious tokens that must be dust to trigger mitigation
	dustMitigationShare = 0.8
)

// Config holds the tunable dollar-value thresholds. Zero values select the
// reference defaults ($1,000 / $10,000).
type Config struct {
	MediumValueUSD float64
	HighValueUSD   float64
}

// DefaultConfig returns the reference thresholds.
func DefaultConfig() Config {
	return Config{MediumValueUSD: 1000, HighValueUSD: 10000}
}

func (c Config) mediumUSD() float64 {
	if c.MediumValueUSD > 0 {
		return c.MediumValueUSD
	}
	return 1000
}

func (c Config) highUSD() float64 {
	if c.HighValueUSD > 0 {
		return c.HighValueUSD
	}
	return 10000
}

// Result is the output of one deterministic scorer.
type Result struct {
	Score    float64                `json:"score"` // [0,100]
	Factors  []string               `json:"factors"`
	Findings []string               `json:"findings"`
	Details  map[string]interface{} `json:"details,omitempty"`
}

// Scorer evaluates normalized wallet data against the knowledge base.
type Scorer struct {
	kb  *knowledge.Base
	cfg Config
}

// New creates a scorer.
func New(kb *knowledge.Base, cfg Config) *Scorer {
	return &Scorer{kb: kb, cfg: cfg}
}

// Clamp bounds a score to [0,100].
func Clamp(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func capAt(value, cap float64) float64 {
	if value > cap {
		return cap
	}
	return value
}
