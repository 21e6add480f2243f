package report

import (
	"context"
	"strings"
	"time"

	"github.com/wallet-analyzer/internal/models"
	"github.com/wallet-analyzer/internal/types"
)

// DefaultMaxAge is the staleness threshold applied when none is configured.
const DefaultMaxAge = 30 * time.Minute

// Store persists whole wallet reports keyed by address. Load returns
// (nil, nil) when no report exists for the address.
type Store interface {
	Load(ctx context.Context, address string) (*models.WalletReport, error)
	Save(ctx context.Context, report *models.WalletReport) error
	Close() error
}

// Key canonicalizes an address into a storage key: lower-cased with
// non-alphanumeric characters stripped.
func Key(address string) string {
	var b strings.Builder
	b.Grow(len(address))
	for _, r := range strings.ToLower(address) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Manager layers staleness tracking and read-modify-write helpers over a
// Store.
type Manager struct {
	store  Store
	maxAge time.Duration
	now    func() time.Time
}

// NewManager wraps a store. A non-positive maxAge falls back to DefaultMaxAge.
func NewManager(store Store, maxAge time.Duration) *Manager {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &Manager{store: store, maxAge: maxAge, now: time.Now}
}

// Load returns the stored report for an address, or (nil, nil) when absent.
func (m *Manager) Load(ctx context.Context, address string) (*models.WalletReport, error) {
	return m.store.Load(ctx, address)
}

// Save stamps LastUpdated and persists the report whole.
func (m *Manager) Save(ctx context.Context, report *models.WalletReport) error {
	report.LastUpdated = m.now().UTC()
	return m.store.Save(ctx, report)
}

// IsStale reports whether a report needs regeneration. A missing report is
// always stale.
func (m *Manager) IsStale(report *models.WalletReport) bool {
	if report == nil {
		return true
	}
	return m.now().Sub(report.LastUpdated) > m.maxAge
}

// UpdateRawData records one provider/chain raw payload, creating the report
// if needed.
func (m *Manager) UpdateRawData(ctx context.Context, address, provider string, chain types.ChainID, payload interface{}) error {
	return m.update(ctx, address, func(r *models.WalletReport) {
		if r.RawData == nil {
			r.RawData = make(models.RawData)
		}
		if r.RawData[provider] == nil {
			r.RawData[provider] = make(map[string]interface{})
		}
		r.RawData[provider][string(chain)] = payload
	})
}

// UpdateSubAnalysis stores one sub-analysis result, replacing any previous
// result of the same kind.
func (m *Manager) UpdateSubAnalysis(ctx context.Context, address string, kind types.AnalysisKind, result *models.SubAnalysisResult) error {
	return m.update(ctx, address, func(r *models.WalletReport) {
		if r.Analysis == nil {
			r.Analysis = make(map[types.AnalysisKind]*models.SubAnalysisResult)
		}
		r.Analysis[kind] = result
	})
}

// UpdateFinal stores the final combined analysis.
func (m *Manager) UpdateFinal(ctx context.Context, address string, final *models.FinalReport) error {
	return m.update(ctx, address, func(r *models.WalletReport) {
		r.FinalAnalysis = final
	})
}

// update is the load-or-create, mutate, save cycle shared by the UpdateX
// helpers. Callers serialize per-address access; the store itself is not
// expected to merge concurrent writes.
func (m *Manager) update(ctx context.Context, address string, mutate func(*models.WalletReport)) error {
	report, err := m.store.Load(ctx, address)
	if err != nil {
		return err
	}
	if report == nil {
		report = models.NewWalletReport(strings.ToLower(address))
	}
	mutate(report)
	return m.Save(ctx, report)
}
