package heuristics

import (
	"strings"
	"time"

	"github.com/muletrace/mule-engine/internal/graph"
)

// Cycle Detection Module
//
// Enumerates short circular money-flow patterns: A → B → C → A. Real
// round-tripping routes a roughly constant amount through each hop inside
// a tight time window, so structural cycles are filtered by financial
// plausibility before they count as rings.
//
// Search strategy:
//   - DFS from every node along forward adjacency, simple paths only,
//     depth capped at 5 hops
//   - Hubs (forward degree above hubDegreeLimit) are never entered; they
//     are where the branching factor explodes, and high-connectivity
//     accounts are handled separately by the scoring guard
//   - Intermediate nodes lexicographically smaller than the start node
//     are skipped, which pins each cycle to its smallest member and
//     avoids re-discovering it from every rotation
//   - The joined path string is the uniqueness key; the lexicographic
//     prune alone does not rule out near-duplicates, the dedup set does
//
// Nodes and successors are visited in sorted order, so discovery order
// (and therefore ring id assignment downstream) is deterministic for a
// given input sequence.

const (
	cycleMinLength = 3
	cycleMaxLength = 5

	// hubDegreeLimit bounds the DFS branching factor. Measured on forward
	// distinct-neighbor degree only.
	hubDegreeLimit = 40

	// cycleMaxSpan is the widest allowed spread between the earliest and
	// latest transfer backing a cycle's edges.
	cycleMaxSpan = 72 * time.Hour

	// cycleMaxAmountRatio is the widest allowed max/min edge amount ratio.
	cycleMaxAmountRatio = 3.0
)

// DetectCycles returns every deduplicated, financially plausible cycle of
// 3-5 distinct accounts, each as an ordered account id slice, in
// discovery order.
func DetectCycles(g *graph.Graph) [][]string {
	d := &cycleSearch{
		g:      g,
		unique: make(map[string]bool),
	}

	for _, node := range g.Accounts() {
		if g.OutDegree(node) > hubDegreeLimit {
			continue
		}
		d.dfs(node, node, []string{node}, map[string]bool{node: true}, 1)
	}

	return d.results
}

type cycleSearch struct {
	g       *graph.Graph
	unique  map[string]bool
	results [][]string
}

func (d *cycleSearch) dfs(start, current string, path []string, visited map[string]bool, depth int) {
	if depth > cycleMaxLength {
		return
	}

	for _, neighbor := range d.g.Successors(current) {
		if d.g.OutDegree(neighbor) > hubDegreeLimit {
			continue
		}
		// Canonical rotation: only the lexicographically smallest member
		// of a cycle may act as its start node.
		if neighbor != start && neighbor < start {
			continue
		}

		if neighbor == start && len(path) >= cycleMinLength {
			if !d.isFinancialCycle(path) {
				continue
			}
			key := strings.Join(path, "->")
			if !d.unique[key] {
				d.unique[key] = true
				d.results = append(d.results, append([]string(nil), path...))
			}
			continue
		}

		if !visited[neighbor] {
			visited[neighbor] = true
			d.dfs(start, neighbor, append(path, neighbor), visited, depth+1)
			delete(visited, neighbor)
		}
	}
}

// isFinancialCycle applies the plausibility filter: every consecutive
// pair (including the wraparound back to the start) must be backed by a
// real transfer, the backing transfers must all land within cycleMaxSpan,
// and the amounts must stay within cycleMaxAmountRatio of each other.
func (d *cycleSearch) isFinancialCycle(cycle []string) bool {
	var minTime, maxTime time.Time
	var minAmount, maxAmount float64

	for i := range cycle {
		s := cycle[i]
		r := cycle[(i+1)%len(cycle)]

		tx, ok := d.g.FirstEdge[graph.EdgeKey{Sender: s, Receiver: r}]
		if !ok {
			return false
		}

		if i == 0 {
			minTime, maxTime = tx.Timestamp, tx.Timestamp
			minAmount, maxAmount = tx.Amount, tx.Amount
			continue
		}
		if tx.Timestamp.Before(minTime) {
			minTime = tx.Timestamp
		}
		if tx.Timestamp.After(maxTime) {
			maxTime = tx.Timestamp
		}
		if tx.Amount < minAmount {
			minAmount = tx.Amount
		}
		if tx.Amount > maxAmount {
			maxAmount = tx.Amount
		}
	}

	if maxTime.Sub(minTime) > cycleMaxSpan {
		return false
	}
	if minAmount <= 0 {
		return false
	}
	if maxAmount/minAmount > cycleMaxAmountRatio {
		return false
	}
	return true
}
