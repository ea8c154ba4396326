package graph

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/muletrace/mule-engine/pkg/models"
)

// Transaction Graph Module
//
// Normalizes raw transfer rows into typed transfers and indexes them for
// the detectors:
//
//   - Forward adjacency:  sender  → set of distinct receivers
//   - Reverse adjacency:  receiver → set of distinct senders
//   - First-seen transfer per ordered (sender, receiver) pair
//   - Per-account incoming/outgoing transfer lists, time-sorted
//
// The first-seen index keeps only the earliest transfer per ordered pair.
// That is enough for the cycle detector's per-edge plausibility checks and
// deliberately not a full ledger; the per-account lists retain everything.
//
// The graph is built once per run and read-only afterward, so the
// detectors can safely traverse it from separate goroutines.

// timestampLayouts are tried in order when parsing a row's timestamp.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// EdgeKey identifies an ordered (sender, receiver) pair.
type EdgeKey struct {
	Sender   string
	Receiver string
}

// Graph is the indexed, read-only view of one batch of transfers.
type Graph struct {
	Adj       map[string]map[string]bool // forward adjacency sets
	Reverse   map[string]map[string]bool // reverse adjacency sets
	ByAccount map[string][]models.Transfer
	Incoming  map[string][]models.Transfer
	Outgoing  map[string][]models.Transfer
	FirstEdge map[EdgeKey]models.Transfer

	// Transfers holds every accepted transfer in input order; the report's
	// edge list is produced from it.
	Transfers []models.Transfer

	// Rejected holds malformed rows that were skipped during ingest.
	Rejected []models.RejectedRecord

	accounts   []string            // all account ids, sorted
	successors map[string][]string // forward neighbors, sorted per node
}

// Build constructs the graph from an ordered sequence of raw rows.
// Rows whose amount or timestamp cannot be parsed are collected on
// Graph.Rejected and excluded from every index; they never poison the
// aggregate computations downstream. Self-transfers are kept as edges.
func Build(records []models.RawRecord) *Graph {
	g := &Graph{
		Adj:       make(map[string]map[string]bool),
		Reverse:   make(map[string]map[string]bool),
		ByAccount: make(map[string][]models.Transfer),
		Incoming:  make(map[string][]models.Transfer),
		Outgoing:  make(map[string][]models.Transfer),
		FirstEdge: make(map[EdgeKey]models.Transfer),
	}

	for _, rec := range records {
		tx, err := normalize(rec)
		if err != nil {
			g.Rejected = append(g.Rejected, models.RejectedRecord{
				TransactionID: rec.TransactionID,
				Reason:        err.Error(),
			})
			continue
		}

		s, r := tx.Sender, tx.Receiver

		if g.Adj[s] == nil {
			g.Adj[s] = make(map[string]bool)
		}
		g.Adj[s][r] = true

		if g.Reverse[r] == nil {
			g.Reverse[r] = make(map[string]bool)
		}
		g.Reverse[r][s] = true

		g.ByAccount[s] = append(g.ByAccount[s], tx)
		g.ByAccount[r] = append(g.ByAccount[r], tx)
		g.Incoming[r] = append(g.Incoming[r], tx)
		g.Outgoing[s] = append(g.Outgoing[s], tx)

		key := EdgeKey{Sender: s, Receiver: r}
		if _, seen := g.FirstEdge[key]; !seen {
			g.FirstEdge[key] = tx
		}

		g.Transfers = append(g.Transfers, tx)
	}

	// Time-order the per-account lists. Stable sort keeps input order on
	// identical timestamps.
	for _, txs := range g.Incoming {
		sortByTime(txs)
	}
	for _, txs := range g.Outgoing {
		sortByTime(txs)
	}

	g.freeze()
	return g
}

// normalize validates one raw row into a typed Transfer.
func normalize(rec models.RawRecord) (models.Transfer, error) {
	amount, err := strconv.ParseFloat(rec.Amount, 64)
	if err != nil {
		return models.Transfer{}, fmt.Errorf("unparseable amount %q", rec.Amount)
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount < 0 {
		return models.Transfer{}, fmt.Errorf("amount %q is not a finite non-negative number", rec.Amount)
	}

	ts, err := parseTimestamp(rec.Timestamp)
	if err != nil {
		return models.Transfer{}, err
	}

	return models.Transfer{
		ID:        rec.TransactionID,
		Sender:    rec.SenderID,
		Receiver:  rec.ReceiverID,
		Amount:    amount,
		Timestamp: ts,
	}, nil
}

func parseTimestamp(raw string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", raw)
}

func sortByTime(txs []models.Transfer) {
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].Timestamp.Before(txs[j].Timestamp)
	})
}

// freeze materializes the sorted account and successor lists used for
// deterministic traversal. Called once at the end of Build; Go maps
// iterate in random order, and the cycle search must discover cycles in
// the same order on every run for ring ids to be reproducible.
func (g *Graph) freeze() {
	seen := make(map[string]bool, len(g.ByAccount))
	for acc := range g.ByAccount {
		seen[acc] = true
	}
	g.accounts = make([]string, 0, len(seen))
	for acc := range seen {
		g.accounts = append(g.accounts, acc)
	}
	sort.Strings(g.accounts)

	g.successors = make(map[string][]string, len(g.Adj))
	for node, neighbors := range g.Adj {
		next := make([]string, 0, len(neighbors))
		for n := range neighbors {
			next = append(next, n)
		}
		sort.Strings(next)
		g.successors[node] = next
	}
}

// Accounts returns every account id seen on either side of a transfer,
// sorted ascending.
func (g *Graph) Accounts() []string {
	return g.accounts
}

// Successors returns the distinct receivers of node, sorted ascending.
func (g *Graph) Successors(node string) []string {
	return g.successors[node]
}

// OutDegree is the count of distinct accounts node has sent to.
func (g *Graph) OutDegree(node string) int {
	return len(g.Adj[node])
}

// TotalDegree is the combined count of distinct forward and reverse
// neighbors of node. An account both sending to and receiving from the
// same counterparty counts it twice, matching how the scoring guard has
// always measured connectivity.
func (g *Graph) TotalDegree(node string) int {
	return len(g.Adj[node]) + len(g.Reverse[node])
}

// TransferCount is the number of transfers touching node on either side.
func (g *Graph) TransferCount(node string) int {
	return len(g.ByAccount[node])
}
