// Package provider defines the wallet-data collaborator interface and its
// HTTP implementation. Provider payloads are narrow DTOs; only the
// normalizer reaches into their fields.
package provider

import (
	"context"

	"github.com/wallet-analyzer/internal/types"
)

// TokenBalance is a raw token balance as reported by the provider.
type TokenBalance struct {
	TokenAddress     string  `json:"token_address"`
	Symbol           string  `json:"symbol"`
	Name             string  `json:"name"`
	Balance          string  `json:"balance"` // integer string in smallest units
	Decimals         int     `json:"decimals"`
	USDValue         float64 `json:"usd_value"`
	VerifiedContract bool    `json:"verified_contract"`
	PossibleSpam     bool    `json:"possible_spam"`
}

// NativeBalance is the native currency balance for one chain.
type NativeBalance struct {
	Balance   string  `json:"balance"` // wei string
	Formatted float64 `json:"formatted"`
}

// DefiTokenLeg is one token leg of a raw DeFi position.
type DefiTokenLeg struct {
	Symbol   string   `json:"symbol"`
	Amount   float64  `json:"amount"`
	USDValue *float64 `json:"usd_value,omitempty"`
}

// DefiPosition is a raw DeFi position as reported by the provider.
type DefiPosition struct {
	Protocol      string         `json:"protocol"`
	PositionKind  string         `json:"position_kind"` // lending|liquidity|staking|farming
	TotalUSDValue float64        `json:"total_usd_value"`
	Tokens        []DefiTokenLeg `json:"tokens,omitempty"`
}

// Transaction is a raw wallet transaction summary.
type Transaction struct {
	Hash     string  `json:"hash"`
	From     string  `json:"from_address"`
	To       string  `json:"to_address"`
	Value    string  `json:"value"` // wei string
	ValueUSD float64 `json:"value_usd"`
	Category string  `json:"category"` // provider hint, may be empty
	Failed   bool    `json:"failed"`
}

// NetWorthChain is the net worth attributed to one chain.
type NetWorthChain struct {
	Chain       string  `json:"chain"`
	NetWorthUSD float64 `json:"networth_usd"`
}

// NetWorth is the aggregate net worth across requested chains.
type NetWorth struct {
	TotalUSD float64         `json:"total_networth_usd"`
	PerChain []NetWorthChain `json:"chains"`
}

// ChainDataProvider fetches raw wallet data for one (address, chain) pair.
// Implementations return empty/zero defaults rather than failing on
// provider errors; the normalizer additionally degrades on any error that
// does surface.
type ChainDataProvider interface {
	GetTokenBalances(ctx context.Context, address string, chain types.ChainID) ([]TokenBalance, error)
	GetNativeBalance(ctx context.Context, address string, chain types.ChainID) (*NativeBalance, error)
	GetDefiPositions(ctx context.Context, address string, chain types.ChainID) ([]DefiPosition, error)
	GetTransactions(ctx context.Context, address string, chain types.ChainID, limit int) ([]Transaction, error)
	GetNetWorth(ctx context.Context, address string, chains []types.ChainID) (*NetWorth, error)
}
