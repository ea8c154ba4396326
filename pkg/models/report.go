package models

import "time"

// RingNone marks an account that is not a member of any emitted fraud ring.
const RingNone = "NA"

// SuspiciousAccount is the per-account verdict of the scoring engine.
type SuspiciousAccount struct {
	AccountID        string   `json:"account_id"`
	SuspicionScore   int      `json:"suspicion_score"`   // Capped at 100, floor 35
	DetectedPatterns []string `json:"detected_patterns"` // Sorted pattern labels
	RingID           string   `json:"ring_id"`           // RingNone when unassigned
}

// FraudRing is one accepted money-routing cycle.
type FraudRing struct {
	RingID         string   `json:"ring_id"`
	MemberAccounts []string `json:"member_accounts"` // Cycle order, 3-5 accounts
	PatternType    string   `json:"pattern_type"`    // Always "cycle"
	RiskScore      int      `json:"risk_score"`      // Always 90
}

// GraphEdge is one transfer flattened for downstream visualization.
// Every accepted transfer appears here, flagged or not.
type GraphEdge struct {
	Source    string    `json:"source"`
	Target    string    `json:"target"`
	Amount    float64   `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
}

// Summary carries the run-level counters.
type Summary struct {
	TotalAccountsAnalyzed     int     `json:"total_accounts_analyzed"`
	SuspiciousAccountsFlagged int     `json:"suspicious_accounts_flagged"`
	FraudRingsDetected        int     `json:"fraud_rings_detected"`
	ProcessingTimeSeconds     float64 `json:"processing_time_seconds"`
}

// Report is the terminal artifact of one analysis run. It is built once,
// serialized, and discarded; the engine holds no state across runs.
type Report struct {
	SuspiciousAccounts []SuspiciousAccount `json:"suspicious_accounts"`
	FraudRings         []FraudRing         `json:"fraud_rings"`
	GraphEdges         []GraphEdge         `json:"graph_edges"`
	Summary            Summary             `json:"summary"`
	RejectedRecords    []RejectedRecord    `json:"rejected_records,omitempty"`
}
