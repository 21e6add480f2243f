package models

import (
	"time"

	"github.com/wallet-analyzer/internal/types"
)

// AnalysisVersion is the schema version written into persisted reports.
const AnalysisVersion = "2.0"

// SubAnalysisResult is the outcome of one sub-analysis (assets, protocols,
// or pools). Produced once per analysis run, immutable, superseded whole on
// re-run.
type SubAnalysisResult struct {
	Narrative       string             `json:"narrative"`
	RiskScore       float64            `json:"risk_score"` // [0,100]
	KeyFindings     []string           `json:"key_findings"`
	Recommendations []string           `json:"recommendations"`
	Source          types.ResultSource `json:"source"`
}

// Alert is a synthesized report alert.
type Alert struct {
	Severity types.AlertSeverity `json:"severity"`
	Message  string              `json:"message"`
}

// ChainRisks lists per-chain risk notes.
type ChainRisks struct {
	Chain types.ChainID `json:"chain"`
	Risks []string      `json:"risks,omitempty"`
}

// MultiChainInfo summarizes cross-chain exposure. ChainsWithActivity lists
// exactly the chains with detected holdings.
type MultiChainInfo struct {
	ActiveChainCount   int             `json:"active_chain_count"`
	ChainsWithActivity []types.ChainID `json:"chains_with_activity"`
	CrossChainRisks    []string        `json:"cross_chain_risks,omitempty"`
	PerChainRisks      []ChainRisks    `json:"per_chain_risks,omitempty"`
}

// FinalReport is the combined overall risk assessment for a wallet.
// One per address, overwritten (not versioned) on refresh.
type FinalReport struct {
	OverallRiskScore float64         `json:"overall_risk_score"` // [0,100]
	RiskLevel        types.RiskLevel `json:"risk_level"`
	ConfidenceScore  float64         `json:"confidence_score"` // [0,100]
	Summary          string          `json:"summary"`
	KeyRisks         []string        `json:"key_risks,omitempty"`
	Recommendations  []string        `json:"recommendations,omitempty"`
	Alerts           []Alert         `json:"alerts,omitempty"`
	MultiChain       *MultiChainInfo `json:"multi_chain,omitempty"`
	ProcessedAt      time.Time       `json:"processed_at"`
}

// RawData holds the opaque per-provider per-chain payloads stored for
// audit and replay. Keys: provider name, then chain.
type RawData map[string]map[string]interface{}

// WalletReport is the aggregate root persisted per address. The address is
// lower-cased and acts as the canonical key; the report is read and written
// as a whole unit.
type WalletReport struct {
	Address         string                                      `json:"address"`
	LastUpdated     time.Time                                   `json:"last_updated"`
	AnalysisVersion string                                      `json:"analysis_version"`
	RawData         RawData                                     `json:"raw_data,omitempty"`
	Analysis        map[types.AnalysisKind]*SubAnalysisResult   `json:"analysis,omitempty"`
	FinalAnalysis   *FinalReport                                `json:"final_analysis,omitempty"`
}

// NewWalletReport creates an empty report shell for an address.
func NewWalletReport(address string) *WalletReport {
	return &WalletReport{
		Address:         address,
		AnalysisVersion: AnalysisVersion,
		RawData:         make(RawData),
		Analysis:        make(map[types.AnalysisKind]*SubAnalysisResult),
	}
}
