package heuristics

import (
	"time"

	"github.com/muletrace/mule-engine/internal/graph"
	"github.com/muletrace/mule-engine/pkg/models"
)

// Smurfing Detection Module
//
// Smurfing (structuring) splits a large movement of funds into many small
// transfers to or from a single aggregator to stay under reporting
// thresholds. The observable signature is fan-in or fan-out
// concentration: many distinct counterparties touching one account inside
// a short window.
//
// The scan keeps a sliding 72-hour window over each account's time-sorted
// transfer list with two pointers and a counterparty frequency map, and
// stops at the first window that reaches the distinct-counterparty
// threshold. The minimum qualifying window is sufficient evidence; the
// detector does not go looking for the widest one.
//
// Fan-in (distinct senders on the incoming list) and fan-out (distinct
// receivers on the outgoing list) are evaluated independently, and an
// account can carry both flags at once.

const (
	// smurfWindow is the sliding window width.
	smurfWindow = 72 * time.Hour

	// smurfMinDistinct is the distinct-counterparty threshold inside one
	// window. It doubles as a cheap pre-filter: accounts touched by fewer
	// than this many transfers in total cannot qualify and are skipped.
	smurfMinDistinct = 10
)

// FanFlags records the smurfing verdict for one account.
type FanFlags struct {
	FanIn       bool `json:"fan_in"`
	FanInCount  int  `json:"fan_in_count,omitempty"`  // Distinct senders in the qualifying window
	FanOut      bool `json:"fan_out"`
	FanOutCount int  `json:"fan_out_count,omitempty"` // Distinct receivers in the qualifying window
}

// DetectSmurfing returns the accounts exhibiting fan-in and/or fan-out
// concentration, keyed by account id. Accounts with no flag are absent.
func DetectSmurfing(g *graph.Graph) map[string]FanFlags {
	flagged := make(map[string]FanFlags)

	for _, account := range g.Accounts() {
		if g.TransferCount(account) < smurfMinDistinct {
			continue
		}

		var flags FanFlags
		if n := distinctWithinWindow(g.Incoming[account], senderOf); n >= smurfMinDistinct {
			flags.FanIn = true
			flags.FanInCount = n
		}
		if n := distinctWithinWindow(g.Outgoing[account], receiverOf); n >= smurfMinDistinct {
			flags.FanOut = true
			flags.FanOutCount = n
		}

		if flags.FanIn || flags.FanOut {
			flagged[account] = flags
		}
	}

	return flagged
}

func senderOf(tx models.Transfer) string   { return tx.Sender }
func receiverOf(tx models.Transfer) string { return tx.Receiver }

// distinctWithinWindow slides a smurfWindow-wide window over the
// time-sorted transfer list and returns the distinct-counterparty count
// of the first window reaching smurfMinDistinct, or 0 if none does.
func distinctWithinWindow(txs []models.Transfer, counterparty func(models.Transfer) string) int {
	counts := make(map[string]int)
	left := 0
	unique := 0

	for right := range txs {
		id := counterparty(txs[right])
		if counts[id] == 0 {
			unique++
		}
		counts[id]++

		for txs[right].Timestamp.Sub(txs[left].Timestamp) > smurfWindow {
			leftID := counterparty(txs[left])
			counts[leftID]--
			if counts[leftID] == 0 {
				delete(counts, leftID)
				unique--
			}
			left++
		}

		if unique >= smurfMinDistinct {
			return unique
		}
	}

	return 0
}
