package heuristics

import "github.com/muletrace/mule-engine/internal/graph"

// Shell Account Detection Module
//
// A shell account is a disposable pass-through: opened, used for a
// handful of transfers, abandoned. The heuristic flags any one-hop
// successor of any sending account whose total transfer count (either
// side) sits in a narrow low-activity band.
//
// This is intentionally coarse and will also catch legitimate low-volume
// retail accounts. It is a contributing signal only; the scoring engine
// weighs it against the other detectors and its false-positive guard
// rather than treating it as a verdict.

const (
	shellMinTransfers = 2
	shellMaxTransfers = 3
)

// DetectShells returns the set of shell-flagged account ids.
func DetectShells(g *graph.Graph) map[string]bool {
	shells := make(map[string]bool)

	for node := range g.Adj {
		for _, next := range g.Successors(node) {
			n := g.TransferCount(next)
			if n >= shellMinTransfers && n <= shellMaxTransfers {
				shells[next] = true
			}
		}
	}

	return shells
}
