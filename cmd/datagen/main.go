// Command datagen emits a synthetic, labeled transfer dataset for
// exercising the detection engine: mostly normal traffic with planted
// cycle rings, smurfing bursts, and shell chains.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/muletrace/mule-engine/pkg/models"
)

const timestampLayout = "2006-01-02 15:04:05"

func main() {
	var (
		out         = flag.String("out", "transactions.csv", "output CSV path")
		accounts    = flag.Int("accounts", 600, "number of distinct accounts")
		total       = flag.Int("transactions", 10000, "approximate number of transactions")
		cycleRings  = flag.Int("rings", 4, "planted cycle rings")
		smurfGroups = flag.Int("smurf-groups", 4, "planted smurfing groups")
		shellChains = flag.Int("shell-chains", 4, "planted shell chains")
		seed        = flag.Int64("seed", time.Now().UnixNano(), "RNG seed")
	)
	flag.Parse()

	gen := newGenerator(*seed, *accounts)

	// 80% background noise, patterns planted on top.
	gen.normalTraffic(*total * 8 / 10)
	gen.plantCycleRings(*cycleRings)
	gen.plantSmurfing(*smurfGroups)
	gen.plantShellChains(*shellChains)
	gen.shuffle()

	if err := gen.writeCSV(*out); err != nil {
		log.Fatalf("Failed to write dataset: %v", err)
	}

	log.Printf("Dataset generated: %s (%d transactions, seed %d)", *out, len(gen.records), *seed)
}

type generator struct {
	rng      *rand.Rand
	accounts []string
	records  []models.RawRecord
	start    time.Time
	end      time.Time
	next     int // transaction id counter
}

func newGenerator(seed int64, accountCount int) *generator {
	accounts := make([]string, accountCount)
	for i := range accounts {
		accounts[i] = fmt.Sprintf("ACC_%05d", i+1)
	}
	return &generator{
		rng:      rand.New(rand.NewSource(seed)),
		accounts: accounts,
		start:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		end:      time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		next:     1,
	}
}

func (g *generator) add(sender, receiver string, amount float64, ts time.Time) {
	g.records = append(g.records, models.RawRecord{
		TransactionID: fmt.Sprintf("TX_%06d", g.next),
		SenderID:      sender,
		ReceiverID:    receiver,
		Amount:        strconv.FormatFloat(amount, 'f', 2, 64),
		Timestamp:     ts.Format(timestampLayout),
	})
	g.next++
}

func (g *generator) randomAccount() string {
	return g.accounts[g.rng.Intn(len(g.accounts))]
}

func (g *generator) randomAmount(min, max float64) float64 {
	return min + g.rng.Float64()*(max-min)
}

func (g *generator) randomTime() time.Time {
	span := g.end.Sub(g.start)
	return g.start.Add(time.Duration(g.rng.Int63n(int64(span))))
}

func (g *generator) normalTraffic(count int) {
	for i := 0; i < count; i++ {
		sender := g.randomAccount()
		receiver := g.randomAccount()
		if sender == receiver {
			continue
		}
		g.add(sender, receiver, g.randomAmount(50, 5000), g.randomTime())
	}
}

// plantCycleRings places rings of 3-5 accounts routing similar amounts
// hop to hop, one hour apart, so they pass the plausibility filter.
func (g *generator) plantCycleRings(count int) {
	for r := 0; r < count; r++ {
		length := 3 + g.rng.Intn(3)
		ring := make([]string, length)
		for i := range ring {
			ring[i] = g.randomAccount()
		}

		base := g.randomTime()
		for i := 0; i < length; i++ {
			g.add(ring[i], ring[(i+1)%length],
				g.randomAmount(500, 2000),
				base.Add(time.Duration(i)*time.Hour))
		}
	}
}

// plantSmurfing builds fan-in then fan-out bursts around one aggregator,
// all within a 72-hour window.
func (g *generator) plantSmurfing(count int) {
	for s := 0; s < count; s++ {
		aggregator := g.randomAccount()
		base := g.randomTime()

		for _, sender := range g.distinctAccounts(10 + g.rng.Intn(6)) {
			if sender == aggregator {
				continue
			}
			g.add(sender, aggregator,
				g.randomAmount(100, 900),
				base.Add(time.Duration(g.rng.Intn(49))*time.Hour))
		}

		for _, receiver := range g.distinctAccounts(10 + g.rng.Intn(6)) {
			if receiver == aggregator {
				continue
			}
			g.add(aggregator, receiver,
				g.randomAmount(100, 900),
				base.Add(time.Duration(24+g.rng.Intn(49))*time.Hour))
		}
	}
}

// plantShellChains builds short pass-through chains whose intermediate
// accounts see only a transfer in and a transfer out.
func (g *generator) plantShellChains(count int) {
	for c := 0; c < count; c++ {
		length := 3 + g.rng.Intn(3)
		chain := make([]string, length)
		for i := range chain {
			chain[i] = g.randomAccount()
		}

		base := g.randomTime()
		for i := 0; i < length-1; i++ {
			g.add(chain[i], chain[i+1],
				g.randomAmount(300, 1500),
				base.Add(time.Duration(i)*2*time.Hour))
		}
	}
}

func (g *generator) distinctAccounts(n int) []string {
	seen := make(map[string]bool, n)
	out := make([]string, 0, n)
	for len(out) < n {
		acc := g.randomAccount()
		if !seen[acc] {
			seen[acc] = true
			out = append(out, acc)
		}
	}
	return out
}

func (g *generator) shuffle() {
	g.rng.Shuffle(len(g.records), func(i, j int) {
		g.records[i], g.records[j] = g.records[j], g.records[i]
	})
}

func (g *generator) writeCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"transaction_id", "sender_id", "receiver_id", "amount", "timestamp"}); err != nil {
		return err
	}
	for _, rec := range g.records {
		if err := w.Write([]string{rec.TransactionID, rec.SenderID, rec.ReceiverID, rec.Amount, rec.Timestamp}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
