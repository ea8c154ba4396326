package heuristics

import (
	"fmt"
	"sort"
	"time"

	"github.com/muletrace/mule-engine/internal/graph"
	"github.com/muletrace/mule-engine/pkg/models"
)

// Scoring Engine
//
// Merges the three detector outputs into per-account suspicion scores and
// named fraud rings, then assembles the final report.
//
// Score contributions:
//   cycle membership   +45 / +42 / +40 by cycle length (label cycle_length_<n>)
//   fan-in burst       +25               (label fan_in)
//   fan-out burst      +25               (label fan_out)
//   shell flag         +30               (label shell_chain)
//
// A ring record is emitted per accepted cycle with a fixed risk score of
// 90, independent of its members' individual scores. Ring ids are
// assigned sequentially in cycle discovery order, so identical input
// yields identical ids.
//
// False-positive guard: an account whose combined forward+reverse
// distinct-neighbor degree exceeds highDegreeLimit is assumed legitimate
// (merchant, payroll, exchange) and dropped from the report unless it is
// independently proven to be a ring member.
//
// An account belonging to several rings keeps only the most recently
// assigned ring id. Single-assignment is the documented policy here; the
// full membership is always recoverable from the rings themselves.

const (
	scoreCycleLen3 = 45
	scoreCycleLen4 = 42
	scoreCycleLen5 = 40
	scoreSmurf     = 25
	scoreShell     = 30

	ringRiskScore = 90

	// highDegreeLimit is the connectivity above which an account is
	// presumed legitimate absent ring membership.
	highDegreeLimit = 50

	scoreCap       = 100
	scoreThreshold = 35
)

// ScoreAccounts aggregates all detector signals into the final report.
// startedAt is the instant the run began; the summary reports wall-clock
// seconds elapsed since then.
func ScoreAccounts(
	g *graph.Graph,
	cycles [][]string,
	smurf map[string]FanFlags,
	shells map[string]bool,
	startedAt time.Time,
) *models.Report {
	acc := newAccumulator()

	// Cycle scoring and ring minting.
	rings := make([]models.FraudRing, 0, len(cycles))
	for i, cycle := range cycles {
		ringID := fmt.Sprintf("RING_%03d", i+1)

		base := scoreCycleLen5
		switch len(cycle) {
		case 3:
			base = scoreCycleLen3
		case 4:
			base = scoreCycleLen4
		}

		label := fmt.Sprintf("cycle_length_%d", len(cycle))
		for _, member := range cycle {
			acc.add(member, base, label)
			acc.assignRing(member, ringID)
		}

		rings = append(rings, models.FraudRing{
			RingID:         ringID,
			MemberAccounts: append([]string(nil), cycle...),
			PatternType:    "cycle",
			RiskScore:      ringRiskScore,
		})
	}

	// Smurf scoring: both directions contribute independently.
	for _, account := range sortedKeys(smurf) {
		flags := smurf[account]
		if flags.FanIn {
			acc.add(account, scoreSmurf, "fan_in")
		}
		if flags.FanOut {
			acc.add(account, scoreSmurf, "fan_out")
		}
	}

	// Shell scoring.
	for _, account := range sortedKeys(shells) {
		acc.add(account, scoreShell, "shell_chain")
	}

	// Guard, cap, threshold, and record assembly. Iteration follows
	// first-scored order so score ties keep a stable ordering.
	suspicious := make([]models.SuspiciousAccount, 0, len(acc.order))
	for _, account := range acc.order {
		ringID, inRing := acc.rings[account]

		if g.TotalDegree(account) > highDegreeLimit && !inRing {
			continue
		}

		score := acc.scores[account]
		if score > scoreCap {
			score = scoreCap
		}
		if score < scoreThreshold {
			continue
		}

		if !inRing {
			ringID = models.RingNone
		}

		patterns := make([]string, 0, len(acc.patterns[account]))
		for p := range acc.patterns[account] {
			patterns = append(patterns, p)
		}
		sort.Strings(patterns)

		suspicious = append(suspicious, models.SuspiciousAccount{
			AccountID:        account,
			SuspicionScore:   score,
			DetectedPatterns: patterns,
			RingID:           ringID,
		})
	}

	sort.SliceStable(suspicious, func(i, j int) bool {
		return suspicious[i].SuspicionScore > suspicious[j].SuspicionScore
	})

	edges := make([]models.GraphEdge, 0, len(g.Transfers))
	for _, tx := range g.Transfers {
		edges = append(edges, models.GraphEdge{
			Source:    tx.Sender,
			Target:    tx.Receiver,
			Amount:    tx.Amount,
			Timestamp: tx.Timestamp,
		})
	}

	return &models.Report{
		SuspiciousAccounts: suspicious,
		FraudRings:         rings,
		GraphEdges:         edges,
		Summary: models.Summary{
			TotalAccountsAnalyzed:     len(g.Accounts()),
			SuspiciousAccountsFlagged: len(suspicious),
			FraudRingsDetected:        len(rings),
			ProcessingTimeSeconds:     time.Since(startedAt).Seconds(),
		},
		RejectedRecords: g.Rejected,
	}
}

// accumulator gathers raw scores, pattern labels, and ring assignments
// per account, remembering first-touch order for stable output.
type accumulator struct {
	scores   map[string]int
	patterns map[string]map[string]bool
	rings    map[string]string
	order    []string
}

func newAccumulator() *accumulator {
	return &accumulator{
		scores:   make(map[string]int),
		patterns: make(map[string]map[string]bool),
		rings:    make(map[string]string),
	}
}

func (a *accumulator) add(account string, value int, pattern string) {
	if _, seen := a.scores[account]; !seen {
		a.order = append(a.order, account)
	}
	a.scores[account] += value

	if a.patterns[account] == nil {
		a.patterns[account] = make(map[string]bool)
	}
	a.patterns[account][pattern] = true
}

// assignRing overwrites any previous assignment: most recently processed
// ring wins.
func (a *accumulator) assignRing(account, ringID string) {
	a.rings[account] = ringID
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
