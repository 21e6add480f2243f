package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/wallet-analyzer/internal/aggregate"
	"github.com/wallet-analyzer/internal/config"
	"github.com/wallet-analyzer/internal/emitters"
	apperrors "github.com/wallet-analyzer/internal/errors"
	"github.com/wallet-analyzer/internal/logging"
	"github.com/wallet-analyzer/internal/models"
	"github.com/wallet-analyzer/internal/narrative"
	"github.com/wallet-analyzer/internal/normalize"
	"github.com/wallet-analyzer/internal/provider"
	"github.com/wallet-analyzer/internal/report"
	"github.com/wallet-analyzer/internal/scoring"
	"github.com/wallet-analyzer/internal/syncutil"
	"github.com/wallet-analyzer/internal/types"
)

const rawDataProvider = "chain-data"

// AnalysisService orchestrates the full pipeline for one wallet: fetch,
// normalize, score, narrate, aggregate, persist.
type AnalysisService struct {
	chains     []types.ChainID
	txLimit    int
	provider   provider.ChainDataProvider
	normalizer *normalize.Normalizer
	scorer     *scoring.Scorer
	augmenter  *narrative.Augmenter
	aggregator *aggregate.Aggregator
	reports    *report.Manager
	emitter    emitters.Emitter

	locks  *syncutil.AddressMutex
	flight singleflight.Group
}

// NewAnalysisService wires the pipeline. The emitter is optional.
func NewAnalysisService(
	cfg *config.Config,
	dataProvider provider.ChainDataProvider,
	normalizer *normalize.Normalizer,
	scorer *scoring.Scorer,
	augmenter *narrative.Augmenter,
	aggregator *aggregate.Aggregator,
	reports *report.Manager,
	emitter emitters.Emitter,
) *AnalysisService {
	chains := make([]types.ChainID, 0, len(cfg.Chains.Enabled))
	for _, name := range cfg.Chains.Enabled {
		chains = append(chains, types.ChainID(name))
	}
	return &AnalysisService{
		chains:     chains,
		txLimit:    cfg.Provider.TransactionLimit,
		provider:   dataProvider,
		normalizer: normalizer,
		scorer:     scorer,
		augmenter:  augmenter,
		aggregator: aggregator,
		reports:    reports,
		emitter:    emitter,
		locks:      syncutil.NewAddressMutex(),
	}
}

// GetReport returns the stored report for an address without triggering an
// analysis run.
func (s *AnalysisService) GetReport(ctx context.Context, address string) (*models.WalletReport, error) {
	if !provider.ValidAddress(address) {
		return nil, apperrors.NewInvalidAddressError(address)
	}
	rep, err := s.reports.Load(ctx, address)
	if err != nil {
		return nil, err
	}
	if rep == nil {
		return nil, apperrors.NewReportNotFoundError(address)
	}
	return rep, nil
}

// Analyze runs the pipeline for an address. A fresh stored report is
// returned as-is unless force is set. Concurrent calls for the same address
// collapse into one run.
func (s *AnalysisService) Analyze(ctx context.Context, address string, force bool) (*models.WalletReport, error) {
	if !provider.ValidAddress(address) {
		return nil, apperrors.NewInvalidAddressError(address)
	}
	key := strings.ToLower(address)

	result, err, _ := s.flight.Do(key, func() (interface{}, error) {
		return s.analyzeLocked(ctx, key, force)
	})
	if err != nil {
		return nil, err
	}
	return result.(*models.WalletReport), nil
}

func (s *AnalysisService) analyzeLocked(ctx context.Context, address string, force bool) (*models.WalletReport, error) {
	unlock, err := s.locks.Lock(ctx, address)
	if err != nil {
		return nil, err
	}
	defer unlock()

	existing, err := s.reports.Load(ctx, address)
	if err != nil {
		return nil, err
	}
	if !force && !s.reports.IsStale(existing) {
		return existing, nil
	}

	runID := uuid.NewString()
	logger := logging.FromContext(ctx).WithFields(map[string]interface{}{
		"run_id":  runID,
		"address": address,
	})
	ctx = logging.WithLogger(ctx, logger)
	started := time.Now()
	logger.Info("starting wallet analysis")

	wallet, err := s.collect(ctx, address)
	if err != nil {
		return nil, err
	}

	analysis, mixerExposure, err := s.scoreAll(ctx, address, wallet)
	if err != nil {
		return nil, err
	}

	final := s.aggregator.Aggregate(ctx, &aggregate.Input{
		Address:       address,
		Analysis:      analysis,
		Wallet:        wallet,
		MixerExposure: mixerExposure,
	})
	if err := s.reports.UpdateFinal(ctx, address, final); err != nil {
		return nil, err
	}

	rep, err := s.reports.Load(ctx, address)
	if err != nil {
		return nil, err
	}

	s.emit(ctx, runID, address, final)
	logger.WithFields(map[string]interface{}{
		"overall_risk_score": final.OverallRiskScore,
		"risk_level":         final.RiskLevel,
		"duration":           time.Since(started).String(),
	}).Info("wallet analysis complete")
	return rep, nil
}

// collect fans out provider fetches per chain, persists raw payloads, and
// normalizes the results. Provider failures degrade to empty snapshots;
// storage failures abort the run.
func (s *AnalysisService) collect(ctx context.Context, address string) (*models.WalletData, error) {
	logger := logging.FromContext(ctx)

	snapshots := make([]normalize.ChainSnapshot, len(s.chains))
	var wg sync.WaitGroup
	for i, chain := range s.chains {
		wg.Add(1)
		go func(i int, chain types.ChainID) {
			defer wg.Done()
			snapshots[i] = s.fetchChain(ctx, address, chain)
		}(i, chain)
	}

	var netWorth *provider.NetWorth
	wg.Add(1)
	go func() {
		defer wg.Done()
		nw, err := s.provider.GetNetWorth(ctx, address, s.chains)
		if err != nil {
			logger.WithError(err).Warn("net worth fetch failed")
			return
		}
		netWorth = nw
	}()
	wg.Wait()

	for _, snap := range snapshots {
		if err := s.reports.UpdateRawData(ctx, address, rawDataProvider, snap.Chain, snap); err != nil {
			return nil, err
		}
	}

	return s.normalizer.Build(address, snapshots, netWorth), nil
}

// fetchChain gathers one chain's snapshot. Each call degrades independently
// so one failing endpoint does not blank the whole chain.
func (s *AnalysisService) fetchChain(ctx context.Context, address string, chain types.ChainID) normalize.ChainSnapshot {
	logger := logging.FromContext(ctx).WithField("chain", chain)
	snap := normalize.ChainSnapshot{Chain: chain}

	if tokens, err := s.provider.GetTokenBalances(ctx, address, chain); err != nil {
		logger.WithError(err).Warn("token balance fetch failed")
	} else {
		snap.Tokens = tokens
	}
	if native, err := s.provider.GetNativeBalance(ctx, address, chain); err != nil {
		logger.WithError(err).Warn("native balance fetch failed")
	} else {
		snap.Native = native
	}
	if positions, err := s.provider.GetDefiPositions(ctx, address, chain); err != nil {
		logger.WithError(err).Warn("defi position fetch failed")
	} else {
		snap.Positions = positions
	}
	if txs, err := s.provider.GetTransactions(ctx, address, chain, s.txLimit); err != nil {
		logger.WithError(err).Warn("transaction fetch failed")
	} else {
		snap.Transactions = txs
	}
	return snap
}

// scoreAll runs the three sub-analyses concurrently. Each result is
// persisted as soon as it lands so a later failure still leaves a partial
// report behind.
func (s *AnalysisService) scoreAll(ctx context.Context, address string, wallet *models.WalletData) (map[types.AnalysisKind]*models.SubAnalysisResult, bool, error) {
	type scored struct {
		kind   types.AnalysisKind
		result *models.SubAnalysisResult
		mixers bool
	}

	kinds := []struct {
		kind  types.AnalysisKind
		score func(*models.WalletData) scoring.Result
	}{
		{types.AnalysisAssets, s.scorer.ScoreAssets},
		{types.AnalysisProtocols, s.scorer.ScoreProtocols},
		{types.AnalysisPools, s.scorer.ScorePools},
	}

	results := make(chan scored, len(kinds))
	var wg sync.WaitGroup
	for _, k := range kinds {
		wg.Add(1)
		go func(kind types.AnalysisKind, score func(*models.WalletData) scoring.Result) {
			defer wg.Done()
			baseline := score(wallet)
			sub := s.augmenter.Narrate(ctx, &narrative.Payload{
				Kind:     kind,
				Address:  address,
				Baseline: baseline,
				Wallet:   wallet,
			})
			mixers, _ := baseline.Details["interacted_with_mixers"].(bool)
			results <- scored{kind: kind, result: sub, mixers: mixers}
		}(k.kind, k.score)
	}
	wg.Wait()
	close(results)

	analysis := make(map[types.AnalysisKind]*models.SubAnalysisResult, len(kinds))
	mixerExposure := false
	for r := range results {
		if err := s.reports.UpdateSubAnalysis(ctx, address, r.kind, r.result); err != nil {
			return nil, false, err
		}
		analysis[r.kind] = r.result
		mixerExposure = mixerExposure || r.mixers
	}
	return analysis, mixerExposure, nil
}

// emit publishes the completion event. Emission is best-effort.
func (s *AnalysisService) emit(ctx context.Context, runID, address string, final *models.FinalReport) {
	if s.emitter == nil {
		return
	}
	event := emitters.ReportEvent{
		RunID:            runID,
		Address:          address,
		OverallRiskScore: final.OverallRiskScore,
		RiskLevel:        final.RiskLevel,
		AlertCount:       len(final.Alerts),
		CompletedAt:      time.Now().UTC(),
	}
	if err := s.emitter.EmitReport(ctx, event); err != nil {
		logging.FromContext(ctx).WithError(err).Warn("report event emission failed")
	}
}
