package graph

import (
	"testing"

	"github.com/muletrace/mule-engine/pkg/models"
)

func rec(id, sender, receiver, amount, ts string) models.RawRecord {
	return models.RawRecord{
		TransactionID: id,
		SenderID:      sender,
		ReceiverID:    receiver,
		Amount:        amount,
		Timestamp:     ts,
	}
}

func TestBuildIndexes(t *testing.T) {
	g := Build([]models.RawRecord{
		rec("TX_1", "A", "B", "100", "2025-01-01 10:00:00"),
		rec("TX_2", "A", "B", "200", "2025-01-01 09:00:00"),
		rec("TX_3", "B", "C", "300", "2025-01-01 11:00:00"),
	})

	if len(g.Rejected) != 0 {
		t.Fatalf("Expected no rejected records, got %d", len(g.Rejected))
	}
	if got := g.OutDegree("A"); got != 1 {
		t.Errorf("A sends to 1 distinct receiver, OutDegree = %d", got)
	}
	if got := g.TotalDegree("B"); got != 2 {
		t.Errorf("B has 1 forward + 1 reverse neighbor, TotalDegree = %d", got)
	}
	if got := g.TransferCount("B"); got != 3 {
		t.Errorf("3 transfers touch B, TransferCount = %d", got)
	}

	// First-seen edge keeps input order, not time order.
	first, ok := g.FirstEdge[EdgeKey{Sender: "A", Receiver: "B"}]
	if !ok {
		t.Fatal("Expected a first-seen transfer for A->B")
	}
	if first.ID != "TX_1" {
		t.Errorf("First-seen A->B should be TX_1 (input order), got %s", first.ID)
	}

	// Incoming list is time-sorted, so TX_2 (09:00) precedes TX_1 (10:00).
	incoming := g.Incoming["B"]
	if len(incoming) != 2 || incoming[0].ID != "TX_2" || incoming[1].ID != "TX_1" {
		t.Errorf("Incoming[B] not time-sorted: %+v", incoming)
	}

	if got := len(g.Accounts()); got != 3 {
		t.Errorf("Expected 3 distinct accounts, got %d", got)
	}
	if got := len(g.Transfers); got != 3 {
		t.Errorf("Expected 3 accepted transfers, got %d", got)
	}
}

func TestBuildRejectsMalformedRows(t *testing.T) {
	tests := []struct {
		name string
		row  models.RawRecord
	}{
		{"unparseable amount", rec("TX_1", "A", "B", "abc", "2025-01-01 10:00:00")},
		{"empty amount", rec("TX_2", "A", "B", "", "2025-01-01 10:00:00")},
		{"negative amount", rec("TX_3", "A", "B", "-5", "2025-01-01 10:00:00")},
		{"infinite amount", rec("TX_4", "A", "B", "+Inf", "2025-01-01 10:00:00")},
		{"unparseable timestamp", rec("TX_5", "A", "B", "100", "not-a-date")},
		{"empty timestamp", rec("TX_6", "A", "B", "100", "")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := Build([]models.RawRecord{tt.row})
			if len(g.Rejected) != 1 {
				t.Fatalf("Expected exactly 1 rejected record, got %d", len(g.Rejected))
			}
			if g.Rejected[0].TransactionID != tt.row.TransactionID {
				t.Errorf("Rejected record id = %s, want %s", g.Rejected[0].TransactionID, tt.row.TransactionID)
			}
			if len(g.Transfers) != 0 {
				t.Errorf("Malformed row must not enter the graph, got %d transfers", len(g.Transfers))
			}
		})
	}
}

func TestBuildAcceptedTimestampLayouts(t *testing.T) {
	layouts := []string{
		"2025-01-01T10:00:00Z",
		"2025-01-01 10:00:00",
		"2025-01-01T10:00:00",
		"2025-01-01",
	}
	for _, ts := range layouts {
		t.Run(ts, func(t *testing.T) {
			g := Build([]models.RawRecord{rec("TX_1", "A", "B", "100", ts)})
			if len(g.Rejected) != 0 {
				t.Errorf("Timestamp %q should parse, got rejection %v", ts, g.Rejected)
			}
		})
	}
}

func TestBuildKeepsSelfTransfers(t *testing.T) {
	g := Build([]models.RawRecord{
		rec("TX_1", "A", "A", "100", "2025-01-01 10:00:00"),
	})

	if !g.Adj["A"]["A"] {
		t.Error("Self-transfer should produce a forward edge A->A")
	}
	if got := g.TransferCount("A"); got != 2 {
		t.Errorf("Self-transfer touches A on both sides, TransferCount = %d", got)
	}
}

func TestBuildZeroAmountAccepted(t *testing.T) {
	// Zero is a valid (if useless) amount; the cycle plausibility filter
	// is what rules it out of rings, not ingest.
	g := Build([]models.RawRecord{rec("TX_1", "A", "B", "0", "2025-01-01 10:00:00")})
	if len(g.Rejected) != 0 {
		t.Errorf("Zero amount should be accepted at ingest, got rejection %v", g.Rejected)
	}
}

func TestSuccessorsSorted(t *testing.T) {
	g := Build([]models.RawRecord{
		rec("TX_1", "A", "C", "100", "2025-01-01 10:00:00"),
		rec("TX_2", "A", "B", "100", "2025-01-01 10:00:00"),
		rec("TX_3", "A", "D", "100", "2025-01-01 10:00:00"),
	})

	next := g.Successors("A")
	want := []string{"B", "C", "D"}
	if len(next) != len(want) {
		t.Fatalf("Successors(A) = %v, want %v", next, want)
	}
	for i := range want {
		if next[i] != want[i] {
			t.Fatalf("Successors(A) = %v, want %v", next, want)
		}
	}
}

func TestBuildEmptyInput(t *testing.T) {
	g := Build(nil)
	if len(g.Accounts()) != 0 || len(g.Transfers) != 0 || len(g.Rejected) != 0 {
		t.Errorf("Empty input should yield an empty graph")
	}
}
