// Package types provides common type definitions for the wallet analyzer system.
package types

// ChainID represents supported blockchain networks
type ChainID string

const (
	// ChainEthereum represents the Ethereum mainnet
	ChainEthereum ChainID = "ethereum"
	// ChainPolygon represents the Polygon network
	ChainPolygon ChainID = "polygon"
	// ChainArbitrum represents the Arbitrum network
	ChainArbitrum ChainID = "arbitrum"
	// ChainOptimism represents the Optimism network
	ChainOptimism ChainID = "optimism"
	// ChainBase represents the Base network
	ChainBase ChainID = "base"
	// ChainBNB represents the BNB Chain (BSC)
	ChainBNB ChainID = "bnb"
)

// NativeSymbol returns the native currency symbol for a chain.
func (c ChainID) NativeSymbol() string {
	switch c {
	case ChainPolygon:
		return "MATIC"
	case ChainBNB:
		return "BNB"
	default:
		return "ETH"
	}
}

// RiskTier represents a coarse trust classification for a token or protocol.
type RiskTier string

const (
	// RiskTierLow represents established, widely trusted assets and protocols
	RiskTierLow RiskTier = "low"
	// RiskTierMedium represents known but less battle-tested assets and protocols
	RiskTierMedium RiskTier = "medium"
	// RiskTierHigh represents unknown or suspicious assets and protocols
	RiskTierHigh RiskTier = "high"
)

// RiskLevel represents the bucketed overall risk of a wallet.
type RiskLevel string

const (
	RiskLevelVeryLow  RiskLevel = "very-low"
	RiskLevelLow      RiskLevel = "low"
	RiskLevelMedium   RiskLevel = "medium"
	RiskLevelHigh     RiskLevel = "high"
	RiskLevelVeryHigh RiskLevel = "very-high"
)

// AlertSeverity represents the severity of a synthesized report alert.
type AlertSeverity string

const (
	SeverityInfo     AlertSeverity = "info"
	SeverityMedium   AlertSeverity = "medium"
	SeverityHigh     AlertSeverity = "high"
	SeverityCritical AlertSeverity = "critical"
)

// AnalysisKind identifies one of the three sub-analyses produced per wallet.
type AnalysisKind string

const (
	// AnalysisAssets covers token and native-currency holdings
	AnalysisAssets AnalysisKind = "assets"
	// AnalysisProtocols covers protocol/contract interaction history
	AnalysisProtocols AnalysisKind = "protocols"
	// AnalysisPools covers DeFi positions (lending, LP, staking, farming)
	AnalysisPools AnalysisKind = "pools"
)

// InteractionType classifies a wallet-to-contract call.
type InteractionType string

const (
	InteractionDexSwap          InteractionType = "dex_swap"
	InteractionLending          InteractionType = "lending"
	InteractionNFTTrade         InteractionType = "nft_trade"
	InteractionTokenInteraction InteractionType = "token_interaction"
	InteractionSmartContract    InteractionType = "smart_contract"
	InteractionDefiPosition     InteractionType = "defi_position"
)

// PositionKind classifies a DeFi position.
type PositionKind string

const (
	PositionLending   PositionKind = "lending"
	PositionLiquidity PositionKind = "liquidity"
	PositionStaking   PositionKind = "staking"
	PositionFarming   PositionKind = "farming"
)

// ResultSource records which path produced a sub-analysis result.
type ResultSource string

const (
	// SourceLLM marks results produced by the reasoning service
	SourceLLM ResultSource = "llm"
	// SourceFallback marks results synthesized from the deterministic scorer
	SourceFallback ResultSource = "deterministic-fallback"
)

// ServiceError represents a structured error response
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *ServiceError) Error() string {
	return e.Message
}
