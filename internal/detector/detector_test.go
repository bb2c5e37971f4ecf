package detector

import (
	"testing"

	"github.com/nrv/arbitrage-engine/internal/graph"
)

// buildProfitableTriangle mirrors the canonical three-hop loop: BTC->ETH,
// ETH->USDT, USDT->BTC with a small built-in edge over-return so the loop
// nets a profit once fees are applied.
func buildProfitableTriangle() *graph.Graph {
	g := graph.NewGraph()
	g.AddEdge("BTC", "ETH", 15.0, 0.001, 1e6, "venueA")
	g.AddEdge("ETH", "USDT", 2500.0, 0.001, 1e6, "venueA")
	// Slightly more BTC per USDT than the implied rate, net of fees, so the
	// loop closes with a positive return.
	g.AddEdge("USDT", "BTC", 1.0/(15.0*2500.0*0.995), 0.001, 1e6, "venueA")
	return g
}

func buildFairTriangle() *graph.Graph {
	g := graph.NewGraph()
	g.AddEdge("BTC", "ETH", 15.0, 0, 1e6, "venueA")
	g.AddEdge("ETH", "USDT", 2500.0, 0, 1e6, "venueA")
	g.AddEdge("USDT", "BTC", 1.0/(15.0*2500.0), 0, 1e6, "venueA")
	return g
}

func TestDetectFindsProfitableTriangle(t *testing.T) {
	g := buildProfitableTriangle()
	snap := g.CreateSnapshot()

	cycles, stats := Detect(snap, 0)
	if len(cycles) == 0 {
		t.Fatal("expected at least one profitable cycle")
	}
	if stats.SourcesScanned != snap.NumNodes() {
		t.Fatalf("expected all %d sources scanned, got %d", snap.NumNodes(), stats.SourcesScanned)
	}
	for _, c := range cycles {
		if c.RawProfit <= 1.0 {
			t.Fatalf("expected RawProfit > 1.0, got %f", c.RawProfit)
		}
		if c.LogProfit <= 0 {
			t.Fatalf("expected LogProfit > 0, got %f", c.LogProfit)
		}
	}
}

func TestDetectFindsNoCycleInFairMarket(t *testing.T) {
	g := buildFairTriangle()
	snap := g.CreateSnapshot()

	cycles, _ := Detect(snap, 0)
	if len(cycles) != 0 {
		t.Fatalf("expected no profitable cycles in a fair market, got %d", len(cycles))
	}
}

func TestDetectDedupesAcrossSources(t *testing.T) {
	g := buildProfitableTriangle()
	snap := g.CreateSnapshot()

	cycles, _ := Detect(snap, 0)
	seen := make(map[string]bool)
	for _, c := range cycles {
		fp := c.Fingerprint()
		if seen[fp] {
			t.Fatalf("duplicate cycle fingerprint %q found across sources", fp)
		}
		seen[fp] = true
	}
}

func TestDetectRespectsMaxCycles(t *testing.T) {
	g := graph.NewGraph()
	// Two disjoint profitable triangles.
	g.AddEdge("A", "B", 2.0, 0, 1e6, "v")
	g.AddEdge("B", "C", 2.0, 0, 1e6, "v")
	g.AddEdge("C", "A", 2.0, 0, 1e6, "v")
	g.AddEdge("X", "Y", 2.0, 0, 1e6, "v")
	g.AddEdge("Y", "Z", 2.0, 0, 1e6, "v")
	g.AddEdge("Z", "X", 2.0, 0, 1e6, "v")

	snap := g.CreateSnapshot()
	cycles, stats := Detect(snap, 1)
	if len(cycles) != 1 {
		t.Fatalf("expected exactly 1 cycle under maxCycles=1, got %d", len(cycles))
	}
	if !stats.EarlyExit {
		t.Fatal("expected EarlyExit to be true")
	}
}

func TestCycleFingerprintIgnoresRotationAndDirection(t *testing.T) {
	a := Cycle{TokenPath: []string{"BTC", "ETH", "USDT", "BTC"}}
	b := Cycle{TokenPath: []string{"ETH", "USDT", "BTC", "ETH"}}
	c := Cycle{TokenPath: []string{"USDT", "ETH", "BTC", "USDT"}}

	if a.Fingerprint() != b.Fingerprint() {
		t.Fatalf("expected rotation-invariant fingerprint: %q vs %q", a.Fingerprint(), b.Fingerprint())
	}
	if a.Fingerprint() != c.Fingerprint() {
		t.Fatalf("expected direction-invariant fingerprint: %q vs %q", a.Fingerprint(), c.Fingerprint())
	}
}

func TestDetectNoCyclesOnEmptyGraph(t *testing.T) {
	g := graph.NewGraph()
	snap := g.CreateSnapshot()

	cycles, stats := Detect(snap, 0)
	if len(cycles) != 0 {
		t.Fatalf("expected no cycles on empty graph, got %d", len(cycles))
	}
	if stats.SourcesScanned != 0 {
		t.Fatalf("expected 0 sources scanned, got %d", stats.SourcesScanned)
	}
}
