// Package models defines the canonical entities of the wallet analyzer:
// holdings, positions, interactions, and the per-address report aggregate.
package models

import "github.com/wallet-analyzer/internal/types"

// NativeContract is the sentinel contract address for native currency
// holdings (ETH, MATIC, ...).
const NativeContract = "native"

// Holding is a single fungible-token or native-currency balance on one
// chain. Instances are constructed by the normalizer per analysis run and
// never mutated afterwards. Chain is part of identity: the same logical
// asset on two chains is two Holdings.
type Holding struct {
	Chain        types.ChainID `json:"chain"`
	Contract     string        `json:"contract"` // contract address or NativeContract
	Symbol       string        `json:"symbol"`
	Name         string        `json:"name"`
	Balance      float64       `json:"balance"` // canonical units (raw / 10^decimals)
	RawBalance   string        `json:"rawBalance"`
	Decimals     int           `json:"decimals"`
	ValueUSD     float64       `json:"valueUsd"` // 0 when unavailable
	Verified     bool          `json:"verified"`
	PossibleSpam bool          `json:"possibleSpam"`

	// Derived flags, set once at classification time
	Established   bool `json:"established"`
	Dust          bool `json:"dust"`
	LikelyAirdrop bool `json:"likelyAirdrop"`
}

// PositionLeg is one constituent token of a DeFi position.
type PositionLeg struct {
	Symbol   string  `json:"symbol"`
	Amount   float64 `json:"amount"`
	ValueUSD float64 `json:"valueUsd"` // 0 when unavailable
}

// Position is a DeFi/protocol position (lending, LP, staking, farming).
// Protocol is lower-cased and trimmed before use as a grouping key.
type Position struct {
	Chain    types.ChainID      `json:"chain"`
	Protocol string             `json:"protocol"`
	Kind     types.PositionKind `json:"kind"`
	Legs     []PositionLeg      `json:"legs,omitempty"`
	ValueUSD float64            `json:"valueUsd"`
	RiskTier types.RiskTier     `json:"riskTier"`
}

// Interaction is the classification of a wallet-to-contract call.
type Interaction struct {
	Chain    types.ChainID         `json:"chain"`
	Target   string                `json:"target"` // contract address
	Protocol string                `json:"protocol"` // matched name, or raw address if unmatched
	Type     types.InteractionType `json:"type"`
	RiskTier types.RiskTier        `json:"riskTier"`
	ValueUSD float64               `json:"valueUsd"`
	Failed   bool                  `json:"failed"`
	Mixer    bool                  `json:"mixer"`
}

// IsHighRisk reports whether an interaction crosses the high-risk
// threshold rules given the medium and high USD cutoffs.
func (i *Interaction) IsHighRisk(mediumUSD, highUSD float64) bool {
	switch {
	case i.ValueUSD > highUSD && i.RiskTier == types.RiskTierHigh:
		return true
	case i.ValueUSD > mediumUSD && i.RiskTier == types.RiskTierHigh && i.Failed:
		return true
	case i.ValueUSD > mediumUSD && i.Failed:
		return true
	}
	return false
}

// ChainActivity summarizes wallet activity on one chain.
type ChainActivity struct {
	Chain         types.ChainID `json:"chain"`
	NativeBalance float64       `json:"nativeBalance"`
	TokenCount    int           `json:"tokenCount"`
	PositionCount int           `json:"positionCount"`
	NetWorthUSD   float64       `json:"netWorthUsd"`
}

// HasActivity reports whether the chain shows any detected holdings, not
// merely a provider call having been made.
func (c *ChainActivity) HasActivity() bool {
	return c.NativeBalance > 0 || c.TokenCount > 0
}

// WalletData is the normalized, multi-chain view of a wallet that the
// scorers consume. It is immutable once built.
type WalletData struct {
	Address      string          `json:"address"`
	Holdings     []Holding       `json:"holdings"`
	Positions    []Position      `json:"positions"`
	Interactions []Interaction   `json:"interactions"`
	Chains       []ChainActivity `json:"chains"`
	NetWorthUSD  float64         `json:"netWorthUsd"`
}

// ActiveChains returns the chains with detected activity.
func (w *WalletData) ActiveChains() []types.ChainID {
	var active []types.ChainID
	for i := range w.Chains {
		if w.Chains[i].HasActivity() {
			active = append(active, w.Chains[i].Chain)
		}
	}
	return active
}
