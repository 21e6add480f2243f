package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/wallet-analyzer/internal/config"
	"github.com/wallet-analyzer/internal/logging"
	"github.com/wallet-analyzer/internal/retry"
	"github.com/wallet-analyzer/internal/types"
)

// HTTPClient fetches wallet data from a Moralis-style REST API. A single
// token-bucket limiter paces all requests to stay inside the provider's
// free-tier quota. Every public method degrades to an empty result on
// failure: a dead provider produces a lower-confidence report, not an
// aborted pipeline.
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter

	// optional RPC fallback for native balances
	fallback *RPCFallback
}

// NewHTTPClient creates a provider client from configuration.
func NewHTTPClient(cfg *config.ProviderConfig, fallback *RPCFallback) *HTTPClient {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}
	return &HTTPClient{
		baseURL:  cfg.BaseURL,
		apiKey:   cfg.APIKey,
		client:   &http.Client{Timeout: 30 * time.Second},
		limiter:  rate.NewLimiter(rate.Limit(rps), int(rps)+1),
		fallback: fallback,
	}
}

// GetTokenBalances fetches ERC-20 balances for an address on one chain.
func (c *HTTPClient) GetTokenBalances(ctx context.Context, address string, chain types.ChainID) ([]TokenBalance, error) {
	var out struct {
		Result []TokenBalance `json:"result"`
	}
	path := fmt.Sprintf("/wallets/%s/tokens", address)
	if err := c.get(ctx, path, query{"chain": string(chain)}, &out); err != nil {
		logging.FromContext(ctx).WithError(err).WithField("chain", chain).Warn("token balance fetch failed, returning empty")
		return []TokenBalance{}, nil
	}
	return out.Result, nil
}

// GetNativeBalance fetches the native currency balance, falling back to a
// direct RPC query when the HTTP provider fails.
func (c *HTTPClient) GetNativeBalance(ctx context.Context, address string, chain types.ChainID) (*NativeBalance, error) {
	var out NativeBalance
	path := fmt.Sprintf("/wallets/%s/balance", address)
	err := c.get(ctx, path, query{"chain": string(chain)}, &out)
	if err == nil {
		if out.Formatted == 0 && out.Balance != "" {
			out.Formatted = weiToEther(out.Balance)
		}
		return &out, nil
	}

	logger := logging.FromContext(ctx).WithField("chain", chain)
	if c.fallback != nil {
		if bal, rpcErr := c.fallback.NativeBalance(ctx, address, chain); rpcErr == nil {
			logger.Debug("native balance served from RPC fallback")
			return bal, nil
		}
	}

	logger.WithError(err).Warn("native balance fetch failed, returning zero")
	return &NativeBalance{Balance: "0"}, nil
}

// GetDefiPositions fetches DeFi positions for an address on one chain.
func (c *HTTPClient) GetDefiPositions(ctx context.Context, address string, chain types.ChainID) ([]DefiPosition, error) {
	var out struct {
		Result []DefiPosition `json:"result"`
	}
	path := fmt.Sprintf("/wallets/%s/defi/positions", address)
	if err := c.get(ctx, path, query{"chain": string(chain)}, &out); err != nil {
		logging.FromContext(ctx).WithError(err).WithField("chain", chain).Warn("defi position fetch failed, returning empty")
		return []DefiPosition{}, nil
	}
	return out.Result, nil
}

// GetTransactions fetches recent transactions for an address on one chain.
func (c *HTTPClient) GetTransactions(ctx context.Context, address string, chain types.ChainID, limit int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 100
	}
	var out struct {
		Result []Transaction `json:"result"`
	}
	path := fmt.Sprintf("/wallets/%s/history", address)
	q := query{"chain": string(chain), "limit": strconv.Itoa(limit)}
	if err := c.get(ctx, path, q, &out); err != nil {
		logging.FromContext(ctx).WithError(err).WithField("chain", chain).Warn("transaction fetch failed, returning empty")
		return []Transaction{}, nil
	}
	return out.Result, nil
}

// GetNetWorth fetches aggregate net worth across chains.
func (c *HTTPClient) GetNetWorth(ctx context.Context, address string, chains []types.ChainID) (*NetWorth, error) {
	var out NetWorth
	path := fmt.Sprintf("/wallets/%s/net-worth", address)
	q := query{}
	for i, chain := range chains {
		q[fmt.Sprintf("chains[%d]", i)] = string(chain)
	}
	if err := c.get(ctx, path, q, &out); err != nil {
		logging.FromContext(ctx).WithError(err).Warn("net worth fetch failed, returning zero")
		return &NetWorth{}, nil
	}
	return &out, nil
}

type query map[string]string

// get performs a rate-limited GET with backoff retries and decodes the
// JSON response into out.
func (c *HTTPClient) get(ctx context.Context, path string, q query, out interface{}) error {
	if c.baseURL == "" {
		return fmt.Errorf("provider base URL not configured")
	}

	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("invalid provider URL: %w", err)
	}
	values := u.Query()
	for k, v := range q {
		values.Set(k, v)
	}
	u.RawQuery = values.Encode()

	return retry.Do(ctx, nil, func(ctx context.Context, _ int) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		return c.doRequest(ctx, u.String(), out)
	})
}

func (c *HTTPClient) doRequest(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("provider request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("provider returned status %d: %s", resp.StatusCode, string(body))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// weiToEther converts a wei integer string to whole units, best effort.
func weiToEther(wei string) float64 {
	v, err := strconv.ParseFloat(wei, 64)
	if err != nil {
		return 0
	}
	return v / 1e18
}
