package heuristics

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/muletrace/mule-engine/internal/graph"
	"github.com/muletrace/mule-engine/pkg/models"
)

// Analysis Pipeline
//
// One request, one run: build the graph, run the three detectors, score,
// emit the report. Every structure is owned by the run and discarded
// with it; nothing is cached across requests, so concurrent requests are
// fully isolated.
//
// The detectors never mutate the graph, so they run on separate
// goroutines and join before scoring. A panic inside any detector
// (pathological input exhausting the cycle search, for instance) is
// converted into a single run-level error; no partial report is ever
// returned.

// Analyze runs the full detection pipeline over one batch of raw rows.
// Malformed rows are skipped with a warning and surfaced on the report;
// an empty batch yields an all-zero report.
func Analyze(ctx context.Context, records []models.RawRecord) (*models.Report, error) {
	startedAt := time.Now()

	g := graph.Build(records)
	if n := len(g.Rejected); n > 0 {
		log.Printf("Skipped %d malformed record(s); first: %s (%s)",
			n, g.Rejected[0].TransactionID, g.Rejected[0].Reason)
	}

	var (
		cycles [][]string
		smurf  map[string]FanFlags
		shells map[string]bool
	)

	eg, _ := errgroup.WithContext(ctx)
	eg.Go(recovering("cycle detector", func() {
		cycles = DetectCycles(g)
	}))
	eg.Go(recovering("smurf detector", func() {
		smurf = DetectSmurfing(g)
	}))
	eg.Go(recovering("shell detector", func() {
		shells = DetectShells(g)
	}))
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	report := ScoreAccounts(g, cycles, smurf, shells, startedAt)

	log.Printf("Analyzed %d transfer(s) across %d account(s): %d ring(s), %d suspicious account(s) in %.3fs",
		len(g.Transfers), len(g.Accounts()), len(report.FraudRings),
		len(report.SuspiciousAccounts), report.Summary.ProcessingTimeSeconds)

	return report, nil
}

// recovering wraps a detector so a panic aborts the run as an error
// instead of killing the process.
func recovering(name string, fn func()) func() error {
	return func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%s failed: %v", name, r)
			}
		}()
		fn()
		return nil
	}
}
