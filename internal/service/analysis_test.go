package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/wallet-analyzer/internal/aggregate"
	"github.com/wallet-analyzer/internal/config"
	apperrors "github.com/wallet-analyzer/internal/errors"
	"github.com/wallet-analyzer/internal/knowledge"
	"github.com/wallet-analyzer/internal/narrative"
	"github.com/wallet-analyzer/internal/normalize"
	"github.com/wallet-analyzer/internal/provider"
	"github.com/wallet-analyzer/internal/report"
	"github.com/wallet-analyzer/internal/scoring"
	"github.com/wallet-analyzer/internal/types"
)

const testAddress = "0x1234567890AbcdEF1234567890aBcdef12345678"

// fakeProvider serves canned per-chain data and counts calls.
type fakeProvider struct {
	tokens       map[types.ChainID][]provider.TokenBalance
	native       map[types.ChainID]*provider.NativeBalance
	positions    map[types.ChainID][]provider.DefiPosition
	transactions map[types.ChainID][]provider.Transaction
	calls        atomic.Int64
}

func (f *fakeProvider) GetTokenBalances(_ context.Context, _ string, chain types.ChainID) ([]provider.TokenBalance, error) {
	f.calls.Add(1)
	return f.tokens[chain], nil
}

func (f *fakeProvider) GetNativeBalance(_ context.Context, _ string, chain types.ChainID) (*provider.NativeBalance, error) {
	f.calls.Add(1)
	if n := f.native[chain]; n != nil {
		return n, nil
	}
	return &provider.NativeBalance{Balance: "0"}, nil
}

func (f *fakeProvider) GetDefiPositions(_ context.Context, _ string, chain types.ChainID) ([]provider.DefiPosition, error) {
	f.calls.Add(1)
	return f.positions[chain], nil
}

func (f *fakeProvider) GetTransactions(_ context.Context, _ string, chain types.ChainID, _ int) ([]provider.Transaction, error) {
	f.calls.Add(1)
	return f.transactions[chain], nil
}

func (f *fakeProvider) GetNetWorth(_ context.Context, _ string, _ []types.ChainID) (*provider.NetWorth, error) {
	f.calls.Add(1)
	return &provider.NetWorth{}, nil
}

func newTestService(t *testing.T, p provider.ChainDataProvider) *AnalysisService {
	t.Helper()

	cfg := &config.Config{}
	cfg.Chains.Enabled = []string{"ethereum", "polygon"}
	cfg.Provider.TransactionLimit = 100

	store, err := report.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	kb := knowledge.Default()
	return NewAnalysisService(
		cfg,
		p,
		normalize.New(kb, 0),
		scoring.New(kb, scoring.DefaultConfig()),
		narrative.NewAugmenter(nil, nil, 0),
		aggregate.New(nil),
		report.NewManager(store, 30*time.Minute),
		nil,
	)
}

func TestAnalyze_InvalidAddress(t *testing.T) {
	svc := newTestService(t, &fakeProvider{})

	_, err := svc.Analyze(context.Background(), "not-an-address", false)
	if err == nil {
		t.Fatal("expected validation error")
	}
	catErr := apperrors.Categorize(err)
	if catErr.Code != "INVALID_ADDRESS" {
		t.Errorf("error code = %q, want INVALID_ADDRESS", catErr.Code)
	}
}

func TestAnalyze_CleanWallet(t *testing.T) {
	p := &fakeProvider{
		native: map[types.ChainID]*provider.NativeBalance{
			types.ChainEthereum: {Formatted: 2},
		},
		tokens: map[types.ChainID][]provider.TokenBalance{
			types.ChainEthereum: {
				{TokenAddress: "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48", Symbol: "USDC", Name: "USD Coin", Balance: "500000000", Decimals: 6, VerifiedContract: true},
				{TokenAddress: "0x6b175474e89094c44da98b954eedeac495271d0f", Symbol: "DAI", Name: "Dai", Balance: "250000000000000000000", Decimals: 18, VerifiedContract: true},
			},
		},
	}
	svc := newTestService(t, p)

	rep, err := svc.Analyze(context.Background(), testAddress, false)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if len(rep.Analysis) != 3 {
		t.Fatalf("got %d sub-analyses, want 3", len(rep.Analysis))
	}
	for kind, sub := range rep.Analysis {
		if sub.Source != types.SourceFallback {
			t.Errorf("%s source = %q, want deterministic fallback without reasoning service", kind, sub.Source)
		}
	}

	final := rep.FinalAnalysis
	if final == nil {
		t.Fatal("final analysis missing")
	}
	// assets 28 (3 established), protocols 5 (no history), pools 0
	if final.OverallRiskScore != 11 {
		t.Errorf("overall = %.0f, want 11", final.OverallRiskScore)
	}
	if final.RiskLevel != types.RiskLevelVeryLow {
		t.Errorf("level = %v, want very-low", final.RiskLevel)
	}
	if final.ConfidenceScore != 70 {
		t.Errorf("confidence = %.0f, want 70", final.ConfidenceScore)
	}
	if len(rep.RawData) == 0 {
		t.Error("raw provider payloads should be persisted")
	}
	if rep.LastUpdated.IsZero() {
		t.Error("LastUpdated should be stamped")
	}
}

func TestAnalyze_MixerWalletAlerts(t *testing.T) {
	p := &fakeProvider{
		transactions: map[types.ChainID][]provider.Transaction{
			types.ChainEthereum: {
				{Hash: "0x1", To: "0x722122df12d4e14e13ac3b6895a86e84145b6967", ValueUSD: 50, Category: "deposit"},
			},
		},
	}
	svc := newTestService(t, p)

	rep, err := svc.Analyze(context.Background(), testAddress, false)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	final := rep.FinalAnalysis
	if len(final.Alerts) == 0 {
		t.Fatal("mixer interaction must produce an alert regardless of overall score")
	}
	found := false
	for _, alert := range final.Alerts {
		if alert.Severity == types.SeverityHigh || alert.Severity == types.SeverityCritical {
			found = true
		}
	}
	if !found {
		t.Errorf("no high/critical alert among %+v", final.Alerts)
	}

	protocols := rep.Analysis[types.AnalysisProtocols]
	if protocols == nil || protocols.RiskScore != 45 {
		t.Errorf("protocols score = %+v, want 45 (base 15 + mixer 30)", protocols)
	}
}

func TestAnalyze_FreshReportServedFromStore(t *testing.T) {
	p := &fakeProvider{}
	svc := newTestService(t, p)
	ctx := context.Background()

	if _, err := svc.Analyze(ctx, testAddress, false); err != nil {
		t.Fatal(err)
	}
	callsAfterFirst := p.calls.Load()

	if _, err := svc.Analyze(ctx, testAddress, false); err != nil {
		t.Fatal(err)
	}
	if p.calls.Load() != callsAfterFirst {
		t.Error("fresh report should be served without re-fetching provider data")
	}

	if _, err := svc.Analyze(ctx, testAddress, true); err != nil {
		t.Fatal(err)
	}
	if p.calls.Load() == callsAfterFirst {
		t.Error("force should re-run the pipeline")
	}
}

func TestGetReport(t *testing.T) {
	svc := newTestService(t, &fakeProvider{})
	ctx := context.Background()

	_, err := svc.GetReport(ctx, testAddress)
	if apperrors.Categorize(err).Code != "REPORT_NOT_FOUND" {
		t.Errorf("missing report error = %v, want REPORT_NOT_FOUND", err)
	}

	if _, err := svc.Analyze(ctx, testAddress, false); err != nil {
		t.Fatal(err)
	}

	rep, err := svc.GetReport(ctx, testAddress)
	if err != nil {
		t.Fatalf("GetReport after analysis: %v", err)
	}
	if rep.FinalAnalysis == nil {
		t.Error("stored report should carry final analysis")
	}
}
