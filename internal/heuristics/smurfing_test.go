package heuristics

import (
	"fmt"
	"testing"

	"github.com/muletrace/mule-engine/pkg/models"
)

// fanIn builds count transfers from distinct senders into account, spread
// hourStep hours apart starting at 2025-01-01 00:00.
func fanIn(account string, count, hourStep int) []models.RawRecord {
	records := make([]models.RawRecord, 0, count)
	for i := 0; i < count; i++ {
		records = append(records, rec(
			fmt.Sprintf("TX_IN_%03d", i),
			fmt.Sprintf("SRC_%03d", i), account,
			"100",
			timestampAtHour(i*hourStep),
		))
	}
	return records
}

func timestampAtHour(h int) string {
	return fmt.Sprintf("2025-01-%02d %02d:00:00", 1+h/24, h%24)
}

func TestDetectSmurfingFanIn(t *testing.T) {
	// 12 distinct senders inside 48 hours. The scan stops at the first
	// window reaching the threshold, so the reported count is at least 10.
	g := buildGraph(t, fanIn("HUB", 12, 4))

	flags, ok := DetectSmurfing(g)["HUB"]
	if !ok {
		t.Fatal("Expected HUB to be flagged")
	}
	if !flags.FanIn {
		t.Error("Expected fan_in flag")
	}
	if flags.FanInCount < 10 {
		t.Errorf("FanInCount = %d, want >= 10", flags.FanInCount)
	}
	if flags.FanOut {
		t.Error("No outgoing transfers, fan_out must not be set")
	}
}

func TestDetectSmurfingWindowTooWide(t *testing.T) {
	// 12 distinct senders, one every 10 hours: a 72-hour window holds at
	// most 8 of them, so the threshold is never reached.
	g := buildGraph(t, fanIn("HUB", 12, 10))

	if flags, ok := DetectSmurfing(g)["HUB"]; ok {
		t.Errorf("Senders spread beyond the window must not flag, got %+v", flags)
	}
}

func TestDetectSmurfingBothDirections(t *testing.T) {
	// Aggregator with 10 distinct senders and 10 distinct receivers inside
	// one window: both flags are retained independently.
	records := fanIn("AGG", 10, 1)
	for i := 0; i < 10; i++ {
		records = append(records, rec(
			fmt.Sprintf("TX_OUT_%03d", i),
			"AGG", fmt.Sprintf("DST_%03d", i),
			"100",
			timestampAtHour(12+i),
		))
	}

	g := buildGraph(t, records)
	flags, ok := DetectSmurfing(g)["AGG"]
	if !ok {
		t.Fatal("Expected AGG to be flagged")
	}
	if !flags.FanIn || !flags.FanOut {
		t.Errorf("Expected both fan_in and fan_out, got %+v", flags)
	}
}

func TestDetectSmurfingPrefilter(t *testing.T) {
	// 9 transfers total stays under the pre-filter even though all the
	// senders are distinct.
	g := buildGraph(t, fanIn("HUB", 9, 1))

	if flags, ok := DetectSmurfing(g)["HUB"]; ok {
		t.Errorf("Account under 10 total transfers must be skipped, got %+v", flags)
	}
}

func TestDetectSmurfingRepeatedCounterpartyNotDistinct(t *testing.T) {
	// 12 transfers from only 6 distinct senders: volume without breadth
	// is not smurfing.
	records := make([]models.RawRecord, 0, 12)
	for i := 0; i < 12; i++ {
		records = append(records, rec(
			fmt.Sprintf("TX_%03d", i),
			fmt.Sprintf("SRC_%03d", i%6), "HUB",
			"100",
			timestampAtHour(i),
		))
	}

	g := buildGraph(t, records)
	if flags, ok := DetectSmurfing(g)["HUB"]; ok {
		t.Errorf("6 distinct senders must not flag, got %+v", flags)
	}
}
