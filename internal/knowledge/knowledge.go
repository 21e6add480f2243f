// Package knowledge provides the static classification tables used by the
// scorers: established token sets, trusted-protocol tiers, scam name
// patterns, and mixer address lists. A Base is built once at startup and
// passed by reference; it is never mutated after construction.
package knowledge

import (
	"strings"

	"github.com/wallet-analyzer/internal/types"
)

// Version identifies the taxonomy revision carried in persisted reports.
const Version = "2025-08"

// Classification is the result of a knowledge-base lookup.
type Classification struct {
	Tier        types.RiskTier `json:"tier"`
	MatchedName string         `json:"matchedName,omitempty"`
}

// protocolEntry describes a known protocol at a given trust tier.
type protocolEntry struct {
	Name string
	Tier int
}

// Base holds the immutable lookup tables.
type Base struct {
	stablecoins map[string]struct{}
	established map[string]struct{}

	protocolsByAddress map[string]protocolEntry
	protocolsByName    []protocolEntry

	scamPatterns []string

	mixers map[string]string
}

// Default returns the built-in knowledge base.
func Default() *Base {
	b := &Base{
		stablecoins:        make(map[string]struct{}),
		established:        make(map[string]struct{}),
		protocolsByAddress: make(map[string]protocolEntry),
		mixers:             make(map[string]string),
	}

	for _, s := range []string{
		"USDT", "USDC", "DAI", "BUSD", "TUSD", "FRAX", "USDP", "GUSD", "LUSD", "USDE",
	} {
		b.stablecoins[s] = struct{}{}
	}

	for _, s := range []string{
		"ETH", "WETH", "BTC", "WBTC", "MATIC", "WMATIC", "BNB", "WBNB",
		"LINK", "UNI", "AAVE", "CRV", "LDO", "MKR", "SNX", "COMP",
		"ARB", "OP", "PEPE", "SHIB", "STETH", "RETH", "CBETH",
	} {
		b.established[s] = struct{}{}
	}

	// Tier 1: battle-tested blue chips. Tier 2: established but younger.
	// Tier 3: known, moderate trust. Address keys are lower-cased.
	tiered := []struct {
		name      string
		tier      int
		addresses []string
	}{
		{"uniswap", 1, []string{
			"0x7a250d5630b4cf539739df2c5dacb4c659f2488d", // v2 router
			"0xe592427a0aece92de3edee1f18e0157c05861564", // v3 router
			"0x68b3465833fb72a70ecdf485e0e4c7bd8665fc45", // v3 router 2
		}},
		{"aave", 1, []string{
			"0x7d2768de32b0b80b7a3454c06bdac94a69ddc7a9", // v2 pool
			"0x87870bca3f3fd6335c3f4ce8392d69350b4fa4e2", // v3 pool
		}},
		{"compound", 1, []string{
			"0x3d9819210a31b4961b30ef54be2aed79b9c9cd3b", // comptroller
			"0xc3d688b66703497daa19211eedff47f25384cdc3", // v3 usdc
		}},
		{"curve", 1, []string{
			"0xbebc44782c7db0a1a60cb6fe97d0b483032ff1c7", // 3pool
		}},
		{"lido", 1, []string{
			"0xae7ab96520de3a18e5e111b5eaab095312d7fe84", // steth
		}},
		{"maker", 1, nil},
		{"sushiswap", 2, []string{
			"0xd9e1ce17f2641f24ae83637ab66a2cca9c378b9f", // router
		}},
		{"balancer", 2, []string{
			"0xba12222222228d8ba445958a75a0704d566bf2c8", // vault
		}},
		{"yearn", 2, nil},
		{"convex", 2, nil},
		{"rocket pool", 2, nil},
		{"1inch", 2, []string{
			"0x1111111254eeb25477b68fb85ed929f73a960582", // v5 router
		}},
		{"pancakeswap", 3, []string{
			"0x10ed43c718714eb63d5aa57b78b54704e256024e", // router
		}},
		{"quickswap", 3, nil},
		{"beefy", 3, nil},
		{"stargate", 3, nil},
		{"gmx", 3, nil},
	}
	for _, p := range tiered {
		entry := protocolEntry{Name: p.name, Tier: p.tier}
		b.protocolsByName = append(b.protocolsByName, entry)
		for _, addr := range p.addresses {
			b.protocolsByAddress[addr] = entry
		}
	}

	b.scamPatterns = []string{
		"moon", "safe", "inu", "elon", "airdrop", "free", "gift",
		"pump", "100x", "1000x", "claim", "rewards", "bonus", "whale",
	}

	// Tornado Cash routers and pools.
	for addr, name := range map[string]string{
		"0x722122df12d4e14e13ac3b6895a86e84145b6967": "Tornado Cash: Router",
		"0xd90e2f925da726b50c4ed8d0fb90ad053324f31b": "Tornado Cash: Router 2",
		"0x910cbd523d972eb0a6f4cae4618ad62622b39dbf": "Tornado Cash: 100 ETH",
		"0xa160cdab225685da1d56aa342ad8841c3b53f291": "Tornado Cash: 0.1 ETH",
		"0x47ce0c6ed5b0ce3d3a51fdb1c52dc66a7c3c2936": "Tornado Cash: 10 ETH",
		"0x12d66f87a04a9e220743712ce6d9bb1b5616b8fc": "Tornado Cash: 1 ETH",
	} {
		b.mixers[addr] = name
	}

	return b
}

// IsStablecoin reports whether a symbol is a recognized stablecoin.
// The symbol is homoglyph-folded before matching.
func (b *Base) IsStablecoin(symbol string) bool {
	_, ok := b.stablecoins[NormalizeSymbol(symbol)]
	return ok
}

// IsEstablished reports whether a symbol is a stablecoin or established major.
func (b *Base) IsEstablished(symbol string) bool {
	norm := NormalizeSymbol(symbol)
	if _, ok := b.stablecoins[norm]; ok {
		return true
	}
	_, ok := b.established[norm]
	return ok
}

// HasScamPattern reports whether a token name or symbol matches a known
// scam naming pattern. Established tokens are exempt: a held major that
// happens to contain a pattern substring must not be flagged.
func (b *Base) HasScamPattern(symbol, name string) bool {
	if b.IsEstablished(symbol) {
		return false
	}
	haystack := strings.ToLower(symbol + " " + name)
	for _, p := range b.scamPatterns {
		if strings.Contains(haystack, p) {
			return true
		}
	}
	return false
}

// IsMixer reports whether an address belongs to a known mixing or privacy
// protocol, returning its label when matched.
func (b *Base) IsMixer(address string) (string, bool) {
	name, ok := b.mixers[strings.ToLower(strings.TrimSpace(address))]
	return name, ok
}

// ProtocolTier looks up the trust tier (1-3) for a protocol by contract
// address or by name-substring match. Returns 0 when unknown.
func (b *Base) ProtocolTier(nameOrAddress string) (int, string) {
	key := strings.ToLower(strings.TrimSpace(nameOrAddress))
	if key == "" {
		return 0, ""
	}

	if entry, ok := b.protocolsByAddress[key]; ok {
		return entry.Tier, entry.Name
	}

	for _, entry := range b.protocolsByName {
		if strings.Contains(key, entry.Name) {
			return entry.Tier, entry.Name
		}
	}

	return 0, ""
}

// Classify maps a symbol or contract address to a risk tier. It is a pure
// function over the immutable tables: tiers 1-2 are low risk, tier 3 is
// medium, anything unmatched is high.
func (b *Base) Classify(symbolOrAddress string) Classification {
	key := strings.TrimSpace(symbolOrAddress)
	if key == "" {
		return Classification{Tier: types.RiskTierHigh}
	}

	if isHexAddress(key) {
		if name, ok := b.IsMixer(key); ok {
			return Classification{Tier: types.RiskTierHigh, MatchedName: name}
		}
		if tier, name := b.ProtocolTier(key); tier != 0 {
			return Classification{Tier: tierRisk(tier), MatchedName: name}
		}
		return Classification{Tier: types.RiskTierHigh}
	}

	if b.IsEstablished(key) {
		return Classification{Tier: types.RiskTierLow, MatchedName: NormalizeSymbol(key)}
	}
	if tier, name := b.ProtocolTier(key); tier != 0 {
		return Classification{Tier: tierRisk(tier), MatchedName: name}
	}
	if b.HasScamPattern(key, "") {
		return Classification{Tier: types.RiskTierHigh}
	}

	return Classification{Tier: types.RiskTierHigh}
}

// tierRisk maps a protocol trust tier to a risk tier.
func tierRisk(tier int) types.RiskTier {
	switch tier {
	case 1, 2:
		return types.RiskTierLow
	case 3:
		return types.RiskTierMedium
	default:
		return types.RiskTierHigh
	}
}

// isHexAddress reports whether s looks like an EVM contract address.
func isHexAddress(s string) bool {
	if len(s) != 42 || !strings.HasPrefix(s, "0x") {
		return false
	}
	for _, r := range s[2:] {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}
