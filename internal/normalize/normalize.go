// Package normalize converts raw provider payloads into the canonical
// holding/position/interaction model. It is the only package that reads
// provider DTO fields; all "missing field, use default" handling lives in
// the accessors here.
package normalize

import (
	"math"
	"math/big"
	"strings"

	"github.com/wallet-analyzer/internal/knowledge"
	"github.com/wallet-analyzer/internal/logging"
	"github.com/wallet-analyzer/internal/models"
	"github.com/wallet-analyzer/internal/provider"
	"github.com/wallet-analyzer/internal/types"
)

// DefaultDustEpsilon is the whole-unit balance below which a holding is
// treated as dust.
const DefaultDustEpsilon = 0.000001

// ChainSnapshot bundles the raw provider responses for one chain. A failed
// provider call leaves its field empty; normalization proceeds on whatever
// arrived.
type ChainSnapshot struct {
	Chain        types.ChainID
	Tokens       []provider.TokenBalance
	Native       *provider.NativeBalance
	Positions    []provider.DefiPosition
	Transactions []provider.Transaction
}

// Normalizer builds canonical WalletData from raw chain snapshots.
type Normalizer struct {
	kb          *knowledge.Base
	dustEpsilon float64
}

// New creates a normalizer. A non-positive dustEpsilon selects the default.
func New(kb *knowledge.Base, dustEpsilon float64) *Normalizer {
	if dustEpsilon <= 0 {
		dustEpsilon = DefaultDustEpsilon
	}
	return &Normalizer{kb: kb, dustEpsilon: dustEpsilon}
}

// Build assembles the multi-chain canonical view. Holdings keep their chain
// as part of identity; only wallet-level aggregates are summed across
// chains.
func (n *Normalizer) Build(address string, snapshots []ChainSnapshot, netWorth *provider.NetWorth) *models.WalletData {
	data := &models.WalletData{
		Address: strings.ToLower(strings.TrimSpace(address)),
	}

	perChainWorth := make(map[types.ChainID]float64)
	if netWorth != nil {
		data.NetWorthUSD = netWorth.TotalUSD
		for _, c := range netWorth.PerChain {
			perChainWorth[types.ChainID(c.Chain)] = c.NetWorthUSD
		}
	}

	for _, snap := range snapshots {
		holdings := n.Holdings(snap.Chain, snap.Tokens, snap.Native)
		positions := n.Positions(snap.Chain, snap.Positions)
		interactions := n.Interactions(snap.Chain, snap.Transactions)

		data.Holdings = append(data.Holdings, holdings...)
		data.Positions = append(data.Positions, positions...)
		data.Interactions = append(data.Interactions, interactions...)

		activity := models.ChainActivity{
			Chain:         snap.Chain,
			TokenCount:    len(holdings),
			PositionCount: len(positions),
			NetWorthUSD:   perChainWorth[snap.Chain],
		}
		if snap.Native != nil {
			activity.NativeBalance = nativeAmount(snap.Native)
		}
		data.Chains = append(data.Chains, activity)
	}

	return data
}

// Holdings normalizes token balances for one chain and injects the native
// currency as a synthetic verified, established holding. Zero balances and
// empty symbols are dropped before scoring.
func (n *Normalizer) Holdings(chain types.ChainID, tokens []provider.TokenBalance, native *provider.NativeBalance) []models.Holding {
	holdings := make([]models.Holding, 0, len(tokens)+1)

	if native != nil {
		if amount := nativeAmount(native); amount > 0 {
			holdings = append(holdings, models.Holding{
				Chain:       chain,
				Contract:    models.NativeContract,
				Symbol:      chain.NativeSymbol(),
				Name:        chain.NativeSymbol(),
				Balance:     amount,
				RawBalance:  native.Balance,
				Decimals:    18,
				Verified:    true,
				Established: true,
				Dust:        amount < n.dustEpsilon,
			})
		}
	}

	for _, t := range tokens {
		symbol := strings.TrimSpace(t.Symbol)
		if symbol == "" {
			continue
		}

		balance := canonicalBalance(t.Balance, tokenDecimals(&t))
		if balance <= 0 {
			continue
		}

		established := n.kb.IsEstablished(symbol)
		dust := balance < n.dustEpsilon
		suspicious := t.PossibleSpam || n.kb.HasScamPattern(symbol, t.Name)

		holdings = append(holdings, models.Holding{
			Chain:         chain,
			Contract:      strings.ToLower(t.TokenAddress),
			Symbol:        symbol,
			Name:          t.Name,
			Balance:       balance,
			RawBalance:    t.Balance,
			Decimals:      tokenDecimals(&t),
			ValueUSD:      t.USDValue,
			Verified:      t.VerifiedContract,
			PossibleSpam:  t.PossibleSpam,
			Established:   established,
			Dust:          dust,
			LikelyAirdrop: suspicious && dust,
		})
	}

	return holdings
}

// Positions normalizes DeFi positions for one chain. Protocol names are
// lower-cased and trimmed: they are grouping keys downstream.
func (n *Normalizer) Positions(chain types.ChainID, raw []provider.DefiPosition) []models.Position {
	positions := make([]models.Position, 0, len(raw))

	for _, p := range raw {
		protocol := strings.ToLower(strings.TrimSpace(p.Protocol))
		if protocol == "" {
			continue
		}

		legs := make([]models.PositionLeg, 0, len(p.Tokens))
		total := p.TotalUSDValue
		var legSum float64
		for _, leg := range p.Tokens {
			value := 0.0
			if leg.USDValue != nil {
				value = *leg.USDValue
			}
			legSum += value
			legs = append(legs, models.PositionLeg{
				Symbol:   strings.TrimSpace(leg.Symbol),
				Amount:   leg.Amount,
				ValueUSD: value,
			})
		}
		if total == 0 {
			total = legSum
		}

		tier := types.RiskTierHigh
		if protoTier, _ := n.kb.ProtocolTier(protocol); protoTier != 0 {
			tier = protocolRisk(protoTier)
		}

		positions = append(positions, models.Position{
			Chain:    chain,
			Protocol: protocol,
			Kind:     positionKind(p.PositionKind),
			Legs:     legs,
			ValueUSD: total,
			RiskTier: tier,
		})
	}

	return positions
}

// Interactions classifies raw transactions for one chain.
func (n *Normalizer) Interactions(chain types.ChainID, raw []provider.Transaction) []models.Interaction {
	interactions := make([]models.Interaction, 0, len(raw))

	for _, tx := range raw {
		target := strings.ToLower(strings.TrimSpace(tx.To))
		if target == "" {
			continue
		}

		interaction := models.Interaction{
			Chain:    chain,
			Target:   target,
			Protocol: target,
			Type:     interactionType(tx.Category),
			RiskTier: types.RiskTierHigh,
			ValueUSD: tx.ValueUSD,
			Failed:   tx.Failed,
		}

		if name, ok := n.kb.IsMixer(target); ok {
			interaction.Mixer = true
			interaction.Protocol = name
			interaction.RiskTier = types.RiskTierHigh
		} else if tier, name := n.kb.ProtocolTier(target); tier != 0 {
			interaction.Protocol = name
			interaction.RiskTier = protocolRisk(tier)
		}

		interactions = append(interactions, interaction)
	}

	return interactions
}

// nativeAmount prefers the provider's formatted value, falling back to the
// raw wei string.
func nativeAmount(native *provider.NativeBalance) float64 {
	if native.Formatted > 0 {
		return native.Formatted
	}
	return canonicalBalance(native.Balance, 18)
}

// tokenDecimals defaults missing decimals to 18, the ERC-20 convention.
func tokenDecimals(t *provider.TokenBalance) int {
	if t.Decimals <= 0 {
		return 18
	}
	return t.Decimals
}

// canonicalBalance converts an integer-string balance in smallest units to
// whole units. Unparseable balances canonicalize to zero and are dropped
// by the caller.
func canonicalBalance(raw string, decimals int) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}

	i, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		logging.GetGlobalLogger().WithField("balance", raw).Debug("unparseable raw balance")
		return 0
	}

	f := new(big.Float).SetInt(i)
	scale := new(big.Float).SetFloat64(math.Pow10(decimals))
	out, _ := new(big.Float).Quo(f, scale).Float64()
	return out
}

// positionKind maps a provider position kind hint to the canonical enum.
func positionKind(kind string) types.PositionKind {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "lending", "supplied", "borrow":
		return types.PositionLending
	case "liquidity", "lp", "pool":
		return types.PositionLiquidity
	case "staking", "staked":
		return types.PositionStaking
	case "farming", "yield":
		return types.PositionFarming
	default:
		return types.PositionLiquidity
	}
}

// interactionType maps a provider category hint to the canonical enum.
func interactionType(category string) types.InteractionType {
	switch strings.ToLower(strings.TrimSpace(category)) {
	case "swap", "dex", "trade":
		return types.InteractionDexSwap
	case "lending", "borrow", "repay", "supply":
		return types.InteractionLending
	case "nft", "nft purchase", "nft sale":
		return types.InteractionNFTTrade
	case "token send", "token receive", "approve", "token":
		return types.InteractionTokenInteraction
	case "deposit", "withdraw", "stake", "unstake":
		return types.InteractionDefiPosition
	default:
		return types.InteractionSmartContract
	}
}

// protocolRisk maps a protocol trust tier to a risk tier.
func protocolRisk(tier int) types.RiskTier {
	switch tier {
	case 1, 2:
		return types.RiskTierLow
	case 3:
		return types.RiskTierMedium
	default:
		return types.RiskTierHigh
	}
}
