package stress

import (
	"testing"

	"github.com/nrv/arbitrage-engine/internal/microstructure"
	"github.com/nrv/arbitrage-engine/internal/simulation"
)

func robustHops() []simulation.HopInput {
	return []simulation.HopInput{
		{Rate: 20.0, Fee: 0.0005, Liquidity: 1e7, Volume: 100, Sigma: 0.0005},
		{Rate: 2500.0, Fee: 0.0005, Liquidity: 1e7, Volume: 100, Sigma: 0.0005},
		{Rate: 1.0 / (20.0 * 2500.0 * 0.98), Fee: 0.0005, Liquidity: 1e7, Volume: 100, Sigma: 0.0005},
	}
}

func fragileHops() []simulation.HopInput {
	return []simulation.HopInput{
		{Rate: 15.0, Fee: 0.001, Liquidity: 1e6, Volume: 1000, Sigma: 0.001},
		{Rate: 2500.0, Fee: 0.001, Liquidity: 1e6, Volume: 1000, Sigma: 0.001},
		{Rate: 1.0 / (15.0 * 2500.0 * 0.9995), Fee: 0.001, Liquidity: 1e6, Volume: 1000, Sigma: 0.001},
	}
}

func TestRunProducesSevenScenarios(t *testing.T) {
	cfg := microstructure.DefaultConfig()
	report := Run(robustHops(), cfg)
	if len(report.Results) != 7 {
		t.Fatalf("expected exactly 7 scenarios, got %d", len(report.Results))
	}
}

func TestRunRobustnessMatchesSurvivedCount(t *testing.T) {
	cfg := microstructure.DefaultConfig()
	report := Run(robustHops(), cfg)
	want := float64(report.SurvivedN) / 7.0
	if report.Robustness != want {
		t.Fatalf("expected robustness %f, got %f", want, report.Robustness)
	}
}

func TestRunRatingExcellentWhenSixOrMoreSurvive(t *testing.T) {
	cfg := microstructure.DefaultConfig()
	report := Run(robustHops(), cfg)
	if report.SurvivedN >= 6 && report.Rating != "Excellent" {
		t.Fatalf("expected Excellent rating for %d survivors, got %s", report.SurvivedN, report.Rating)
	}
}

func TestRunFragileCycleSurvivesFewerScenarios(t *testing.T) {
	cfg := microstructure.DefaultConfig()
	robust := Run(robustHops(), cfg)
	fragile := Run(fragileHops(), cfg)
	if fragile.SurvivedN > robust.SurvivedN {
		t.Fatalf("expected fragile cycle to survive no more scenarios than the robust one: %d vs %d", fragile.SurvivedN, robust.SurvivedN)
	}
}

func TestCombinedScenarioAppliesAllThreeMutations(t *testing.T) {
	hops := robustHops()
	scenarios := Scenarios()
	var combinedFn func([]simulation.HopInput) []simulation.HopInput
	for _, s := range scenarios {
		if s.Name == "Combined" {
			combinedFn = s.Apply
		}
	}
	if combinedFn == nil {
		t.Fatal("expected a Combined scenario")
	}
	out := combinedFn(hops)
	if out[0].Rate != hops[0].Rate*0.99 {
		t.Fatalf("expected combined scenario to apply the price shock")
	}
	if out[0].Liquidity != hops[0].Liquidity*0.70 {
		t.Fatalf("expected combined scenario to apply the liquidity shock")
	}
	if out[0].Fee != hops[0].Fee*2.0 {
		t.Fatalf("expected combined scenario to apply the fee shock")
	}
}
