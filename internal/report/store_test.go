package report

import (
	"context"
	"testing"
	"time"

	"github.com/wallet-analyzer/internal/models"
	"github.com/wallet-analyzer/internal/types"
)

func TestKey(t *testing.T) {
	cases := []struct{ in, want string }{
		{"0xAbCdEf", "0xabcdef"},
		{"0xABC-./DEF", "0xabcdef"},
		{"  0x123  ", "0x123"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := Key(tc.in); got != tc.want {
			t.Errorf("Key(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return NewManager(store, 30*time.Minute)
}

func TestManager_IsStale(t *testing.T) {
	m := newTestManager(t)
	now := time.Now()
	m.now = func() time.Time { return now }

	if !m.IsStale(nil) {
		t.Error("missing report must be stale")
	}

	fresh := &models.WalletReport{LastUpdated: now.Add(-29 * time.Minute)}
	if m.IsStale(fresh) {
		t.Error("29 minute old report must be fresh")
	}

	old := &models.WalletReport{LastUpdated: now.Add(-31 * time.Minute)}
	if !m.IsStale(old) {
		t.Error("31 minute old report must be stale")
	}

	boundary := &models.WalletReport{LastUpdated: now.Add(-30 * time.Minute)}
	if m.IsStale(boundary) {
		t.Error("exactly max-age old report is still fresh")
	}
}

func TestManager_SaveStampsLastUpdated(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	rep := models.NewWalletReport("0xabc")
	if err := m.Save(ctx, rep); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if rep.LastUpdated.IsZero() {
		t.Error("Save must stamp LastUpdated")
	}
}

func TestManager_UpdateCreateOnFirstWrite(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	result := &models.SubAnalysisResult{Narrative: "n", RiskScore: 40, Source: types.SourceFallback}
	if err := m.UpdateSubAnalysis(ctx, "0xABC", types.AnalysisAssets, result); err != nil {
		t.Fatalf("UpdateSubAnalysis: %v", err)
	}

	rep, err := m.Load(ctx, "0xabc")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if rep == nil {
		t.Fatal("report should have been created")
	}
	if rep.Address != "0xabc" {
		t.Errorf("address = %q, want lowercased 0xabc", rep.Address)
	}
	if rep.Analysis[types.AnalysisAssets] == nil || rep.Analysis[types.AnalysisAssets].RiskScore != 40 {
		t.Errorf("sub-analysis not stored: %+v", rep.Analysis)
	}
	if rep.AnalysisVersion != models.AnalysisVersion {
		t.Errorf("analysis version = %q", rep.AnalysisVersion)
	}
}

func TestManager_UpdatesAccumulate(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	if err := m.UpdateRawData(ctx, "0xabc", "chain-data", types.ChainEthereum, map[string]interface{}{"k": "v"}); err != nil {
		t.Fatalf("UpdateRawData: %v", err)
	}
	if err := m.UpdateSubAnalysis(ctx, "0xabc", types.AnalysisPools, &models.SubAnalysisResult{Narrative: "p", RiskScore: 5}); err != nil {
		t.Fatalf("UpdateSubAnalysis: %v", err)
	}
	if err := m.UpdateFinal(ctx, "0xabc", &models.FinalReport{OverallRiskScore: 11, RiskLevel: types.RiskLevelVeryLow}); err != nil {
		t.Fatalf("UpdateFinal: %v", err)
	}

	rep, err := m.Load(ctx, "0xabc")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if rep.RawData["chain-data"]["ethereum"] == nil {
		t.Error("raw data lost across updates")
	}
	if rep.Analysis[types.AnalysisPools] == nil {
		t.Error("sub-analysis lost across updates")
	}
	if rep.FinalAnalysis == nil || rep.FinalAnalysis.OverallRiskScore != 11 {
		t.Errorf("final analysis wrong: %+v", rep.FinalAnalysis)
	}
}

// Re-running a sub-analysis replaces the stored result whole.
func TestManager_SubAnalysisSuperseded(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	first := &models.SubAnalysisResult{Narrative: "first", RiskScore: 10, KeyFindings: []string{"a"}}
	second := &models.SubAnalysisResult{Narrative: "second", RiskScore: 90}

	if err := m.UpdateSubAnalysis(ctx, "0xabc", types.AnalysisAssets, first); err != nil {
		t.Fatal(err)
	}
	if err := m.UpdateSubAnalysis(ctx, "0xabc", types.AnalysisAssets, second); err != nil {
		t.Fatal(err)
	}

	rep, _ := m.Load(ctx, "0xabc")
	got := rep.Analysis[types.AnalysisAssets]
	if got.Narrative != "second" || got.RiskScore != 90 {
		t.Errorf("result not superseded: %+v", got)
	}
	if len(got.KeyFindings) != 0 {
		t.Errorf("old findings leaked into new result: %v", got.KeyFindings)
	}
}
