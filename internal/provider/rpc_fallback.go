package provider

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/wallet-analyzer/internal/config"
	"github.com/wallet-analyzer/internal/types"
)

// RPCFallback serves native balances straight from chain RPC endpoints when
// the HTTP provider is unavailable. Clients are dialed lazily on first use
// per chain.
type RPCFallback struct {
	endpoints map[types.ChainID]string

	mu      sync.Mutex
	clients map[types.ChainID]*ethclient.Client
}

// NewRPCFallback builds a fallback from the configured chain RPC endpoints.
// Chains without a configured endpoint are simply not served.
func NewRPCFallback(chains *config.ChainsConfig) *RPCFallback {
	endpoints := make(map[types.ChainID]string)
	for name, chainCfg := range chains.Chains {
		if chainCfg.RPCPrimary != "" {
			endpoints[types.ChainID(name)] = chainCfg.RPCPrimary
		}
	}
	return &RPCFallback{
		endpoints: endpoints,
		clients:   make(map[types.ChainID]*ethclient.Client),
	}
}

// NativeBalance queries the latest native balance via eth_getBalance.
func (f *RPCFallback) NativeBalance(ctx context.Context, address string, chain types.ChainID) (*NativeBalance, error) {
	client, err := f.client(ctx, chain)
	if err != nil {
		return nil, err
	}

	wei, err := client.BalanceAt(ctx, common.HexToAddress(address), nil)
	if err != nil {
		return nil, fmt.Errorf("eth_getBalance failed: %w", err)
	}

	formatted, _ := new(big.Float).Quo(
		new(big.Float).SetInt(wei),
		big.NewFloat(1e18),
	).Float64()

	return &NativeBalance{
		Balance:   wei.String(),
		Formatted: formatted,
	}, nil
}

// Close releases all dialed RPC connections.
func (f *RPCFallback) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.clients {
		c.Close()
	}
	f.clients = make(map[types.ChainID]*ethclient.Client)
}

func (f *RPCFallback) client(ctx context.Context, chain types.ChainID) (*ethclient.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if c, ok := f.clients[chain]; ok {
		return c, nil
	}

	endpoint, ok := f.endpoints[chain]
	if !ok {
		return nil, fmt.Errorf("no RPC endpoint configured for chain %s", chain)
	}

	c, err := ethclient.DialContext(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s RPC: %w", chain, err)
	}
	f.clients[chain] = c
	return c, nil
}

// ValidAddress reports whether s is a well-formed EVM address.
func ValidAddress(s string) bool {
	return common.IsHexAddress(s)
}
