package normalize

import (
	"math"
	"testing"

	"github.com/wallet-analyzer/internal/knowledge"
	"github.com/wallet-analyzer/internal/provider"
	"github.com/wallet-analyzer/internal/types"
)

func newTestNormalizer() *Normalizer {
	return New(knowledge.Default(), 0)
}

func TestHoldings_DropsEmptyAndZero(t *testing.T) {
	n := newTestNormalizer()

	tokens := []provider.TokenBalance{
		{TokenAddress: "0xA", Symbol: "", Balance: "1000", Decimals: 18},
		{TokenAddress: "0xB", Symbol: "ZERO", Balance: "0", Decimals: 18},
		{TokenAddress: "0xC", Symbol: "BAD", Balance: "not-a-number", Decimals: 18},
		{TokenAddress: "0xD", Symbol: "OK", Balance: "1000000000000000000", Decimals: 18},
	}

	holdings := n.Holdings(types.ChainEthereum, tokens, nil)
	if len(holdings) != 1 {
		t.Fatalf("got %d holdings, want 1: %+v", len(holdings), holdings)
	}
	if holdings[0].Symbol != "OK" || holdings[0].Balance != 1 {
		t.Errorf("unexpected holding: %+v", holdings[0])
	}
}

func TestHoldings_NativeInjection(t *testing.T) {
	n := newTestNormalizer()

	native := &provider.NativeBalance{Balance: "2500000000000000000", Formatted: 2.5}
	holdings := n.Holdings(types.ChainPolygon, nil, native)

	if len(holdings) != 1 {
		t.Fatalf("got %d holdings, want 1", len(holdings))
	}
	h := holdings[0]
	if h.Symbol != "MATIC" {
		t.Errorf("native symbol = %q, want MATIC", h.Symbol)
	}
	if !h.Established || !h.Verified {
		t.Error("native holding must be established and verified")
	}
	if h.Balance != 2.5 {
		t.Errorf("native balance = %v, want 2.5", h.Balance)
	}

	// Zero native balance must not be injected.
	holdings = n.Holdings(types.ChainPolygon, nil, &provider.NativeBalance{Balance: "0"})
	if len(holdings) != 0 {
		t.Errorf("zero native balance injected: %+v", holdings)
	}
}

func TestHoldings_ClassificationFlags(t *testing.T) {
	n := newTestNormalizer()

	tokens := []provider.TokenBalance{
		{TokenAddress: "0xA", Symbol: "USDC", Name: "USD Coin", Balance: "5000000", Decimals: 6, VerifiedContract: true},
		{TokenAddress: "0xB", Symbol: "FREEMOON", Name: "Free Moon Airdrop", Balance: "1", Decimals: 18},
		{TokenAddress: "0xC", Symbol: "BIGSPAM", Name: "Whatever", Balance: "5000000000000000000000", Decimals: 18, PossibleSpam: true},
	}

	holdings := n.Holdings(types.ChainEthereum, tokens, nil)
	if len(holdings) != 3 {
		t.Fatalf("got %d holdings, want 3", len(holdings))
	}

	usdc, scam, spam := holdings[0], holdings[1], holdings[2]
	if !usdc.Established || usdc.Dust {
		t.Errorf("USDC flags wrong: %+v", usdc)
	}
	if usdc.Balance != 5 {
		t.Errorf("USDC balance = %v, want 5 (6 decimals)", usdc.Balance)
	}
	if !scam.Dust || !scam.LikelyAirdrop {
		t.Errorf("dust scam token should be flagged as likely airdrop: %+v", scam)
	}
	if spam.LikelyAirdrop {
		t.Errorf("non-dust spam token is not an airdrop: %+v", spam)
	}
}

func TestHoldings_MissingDecimalsDefault(t *testing.T) {
	n := newTestNormalizer()

	tokens := []provider.TokenBalance{
		{TokenAddress: "0xA", Symbol: "X", Balance: "1000000000000000000", Decimals: 0},
	}
	holdings := n.Holdings(types.ChainEthereum, tokens, nil)
	if len(holdings) != 1 || holdings[0].Balance != 1 {
		t.Errorf("missing decimals should default to 18: %+v", holdings)
	}
}

func TestPositions_TierAndTotals(t *testing.T) {
	n := newTestNormalizer()

	usd := func(v float64) *float64 { return &v }
	raw := []provider.DefiPosition{
		{Protocol: " Aave ", PositionKind: "lending", TotalUSDValue: 1200},
		{Protocol: "mystery-farm", PositionKind: "yield", Tokens: []provider.DefiTokenLeg{
			{Symbol: "A", Amount: 1, USDValue: usd(300)},
			{Symbol: "B", Amount: 2, USDValue: usd(200)},
		}},
		{Protocol: "", PositionKind: "lending", TotalUSDValue: 50},
	}

	positions := n.Positions(types.ChainEthereum, raw)
	if len(positions) != 2 {
		t.Fatalf("got %d positions, want 2", len(positions))
	}

	aave := positions[0]
	if aave.Protocol != "aave" || aave.RiskTier != types.RiskTierLow || aave.Kind != types.PositionLending {
		t.Errorf("aave position wrong: %+v", aave)
	}

	farm := positions[1]
	if farm.RiskTier != types.RiskTierHigh {
		t.Errorf("unknown protocol should be high tier: %+v", farm)
	}
	if farm.ValueUSD != 500 {
		t.Errorf("missing total should sum legs: got %v, want 500", farm.ValueUSD)
	}
	if farm.Kind != types.PositionFarming {
		t.Errorf("yield should map to farming: %v", farm.Kind)
	}
}

func TestInteractions_MixerAndTiers(t *testing.T) {
	n := newTestNormalizer()

	raw := []provider.Transaction{
		{To: "0x722122DF12D4e14e13Ac3b6895a86e84145b6967", ValueUSD: 10, Category: "deposit"},
		{To: "0x7a250d5630b4cf539739df2c5dacb4c659f2488d", ValueUSD: 250, Category: "swap"},
		{To: "0xdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef", ValueUSD: 50, Category: ""},
		{To: "", ValueUSD: 100},
	}

	interactions := n.Interactions(types.ChainEthereum, raw)
	if len(interactions) != 3 {
		t.Fatalf("got %d interactions, want 3", len(interactions))
	}

	mixer := interactions[0]
	if !mixer.Mixer || mixer.RiskTier != types.RiskTierHigh {
		t.Errorf("mixer not flagged: %+v", mixer)
	}
	if mixer.Protocol == mixer.Target {
		t.Error("mixer interaction should carry its label, not the raw address")
	}

	uni := interactions[1]
	if uni.Protocol != "uniswap" || uni.RiskTier != types.RiskTierLow || uni.Type != types.InteractionDexSwap {
		t.Errorf("uniswap interaction wrong: %+v", uni)
	}

	unknown := interactions[2]
	if unknown.RiskTier != types.RiskTierHigh || unknown.Protocol != unknown.Target {
		t.Errorf("unknown interaction wrong: %+v", unknown)
	}
}

func TestBuild_ChainActivity(t *testing.T) {
	n := newTestNormalizer()

	snapshots := []ChainSnapshot{
		{
			Chain:  types.ChainEthereum,
			Tokens: []provider.TokenBalance{{TokenAddress: "0xA", Symbol: "USDC", Balance: "1000000", Decimals: 6}},
			Native: &provider.NativeBalance{Formatted: 1.5},
		},
		{Chain: types.ChainPolygon},
	}
	netWorth := &provider.NetWorth{
		TotalUSD: 1000,
		PerChain: []provider.NetWorthChain{{Chain: "ethereum", NetWorthUSD: 1000}},
	}

	data := n.Build("0xABCD", snapshots, netWorth)
	if data.Address != "0xabcd" {
		t.Errorf("address not lowercased: %q", data.Address)
	}
	if data.NetWorthUSD != 1000 {
		t.Errorf("net worth = %v, want 1000", data.NetWorthUSD)
	}
	if len(data.Chains) != 2 {
		t.Fatalf("got %d chain activities, want 2", len(data.Chains))
	}

	eth := data.Chains[0]
	if eth.TokenCount != 2 || eth.NativeBalance != 1.5 || eth.NetWorthUSD != 1000 {
		t.Errorf("ethereum activity wrong: %+v", eth)
	}

	active := data.ActiveChains()
	if len(active) != 1 || active[0] != types.ChainEthereum {
		t.Errorf("active chains = %v, want [ethereum]", active)
	}
}

func TestCanonicalBalance(t *testing.T) {
	cases := []struct {
		raw      string
		decimals int
		want     float64
	}{
		{"1000000000000000000", 18, 1},
		{"1500000", 6, 1.5},
		{"", 18, 0},
		{"abc", 18, 0},
	}
	for _, tc := range cases {
		got := canonicalBalance(tc.raw, tc.decimals)
		if math.Abs(got-tc.want) > 1e-12 {
			t.Errorf("canonicalBalance(%q, %d) = %v, want %v", tc.raw, tc.decimals, got, tc.want)
		}
	}
}
