// Package marketdata supplies normalized rate tuples to the engine: a
// file loader for the "scan" operation's body, and a simulated generator
// standing in for "quick_scan"'s configured collaborator when
// use_real_data is false. Ingestion from live third-party venues is the
// configured collaborator's job, not this engine's.
package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"

	"github.com/nrv/arbitrage-engine/internal/engine"
)

// edgeRecord is the on-disk shape of one market-data hop.
type edgeRecord struct {
	FromToken string  `json:"from_token"`
	ToToken   string  `json:"to_token"`
	Rate      float64 `json:"rate"`
	Fee       float64 `json:"fee"`
	Liquidity float64 `json:"liquidity"`
	Venue     string  `json:"venue"`
}

// LoadFile reads a JSON array of market-data hops from path.
func LoadFile(path string) ([]engine.EdgeInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading market data file: %w", err)
	}

	var records []edgeRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing market data file: %w", err)
	}

	edges := make([]engine.EdgeInput, len(records))
	for i, r := range records {
		edges[i] = engine.EdgeInput{
			FromToken: r.FromToken,
			ToToken:   r.ToToken,
			Rate:      r.Rate,
			Fee:       r.Fee,
			Liquidity: r.Liquidity,
			Venue:     r.Venue,
		}
	}
	return edges, nil
}

// Simulated generates a deterministic synthetic market over a fixed
// token universe, for quick_scan's use_real_data=false path and for local
// smoke-testing without a live feed.
type Simulated struct {
	Tokens []string
	Venues []string
	Seed   int64
}

// DefaultSimulated returns a Simulated generator over a small fixed token
// universe.
func DefaultSimulated() Simulated {
	return Simulated{
		Tokens: []string{"USD", "EUR", "BTC", "ETH", "SOL"},
		Venues: []string{"venue-a", "venue-b"},
		Seed:   1,
	}
}

// Edges implements engine.EdgeSource. useRealData is accepted for
// interface symmetry with a live feed implementation; Simulated always
// generates synthetic data regardless of its value.
func (s Simulated) Edges(ctx context.Context, useRealData bool) ([]engine.EdgeInput, error) {
	_ = ctx
	_ = useRealData

	rng := rand.New(rand.NewSource(s.Seed))
	n := len(s.Tokens)
	edges := make([]engine.EdgeInput, 0, n*(n-1)*len(s.Venues))

	for i, from := range s.Tokens {
		for j, to := range s.Tokens {
			if i == j {
				continue
			}
			for _, venue := range s.Venues {
				rate := 0.8 + rng.Float64()*0.4
				fee := 0.0005 + rng.Float64()*0.0015
				liquidity := 10000 + rng.Float64()*90000
				edges = append(edges, engine.EdgeInput{
					FromToken: from,
					ToToken:   to,
					Rate:      rate,
					Fee:       fee,
					Liquidity: liquidity,
					Venue:     venue,
				})
			}
		}
	}
	return edges, nil
}
