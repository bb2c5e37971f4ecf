package marketdata

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadFileRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "edges.json")
	content := `[
		{"from_token":"USD","to_token":"EUR","rate":1.02,"fee":0.001,"liquidity":50000,"venue":"venue-a"},
		{"from_token":"EUR","to_token":"USD","rate":0.97,"fee":0.001,"liquidity":50000,"venue":"venue-a"}
	]`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	edges, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, edges, 2)
	require.Equal(t, "USD", edges[0].FromToken)
	require.Equal(t, "EUR", edges[0].ToToken)
	require.Equal(t, 1.02, edges[0].Rate)
	require.Equal(t, "venue-a", edges[0].Venue)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestLoadFileInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))
	_, err := LoadFile(path)
	require.Error(t, err)
}

func TestSimulatedIsDeterministic(t *testing.T) {
	s := DefaultSimulated()
	first, err := s.Edges(context.Background(), false)
	require.NoError(t, err)
	second, err := s.Edges(context.Background(), false)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestSimulatedCoversFullTokenUniverse(t *testing.T) {
	s := DefaultSimulated()
	edges, err := s.Edges(context.Background(), true)
	require.NoError(t, err)

	n := len(s.Tokens)
	wantPairs := n * (n - 1) * len(s.Venues)
	require.Len(t, edges, wantPairs)

	for _, e := range edges {
		require.NotEqual(t, e.FromToken, e.ToToken)
		require.Greater(t, e.Rate, 0.0)
		require.Less(t, e.Fee, 1.0)
		require.Greater(t, e.Liquidity, 0.0)
	}
}

func TestSimulatedDifferentSeedsDiffer(t *testing.T) {
	a := Simulated{Tokens: []string{"USD", "EUR"}, Venues: []string{"venue-a"}, Seed: 1}
	b := Simulated{Tokens: []string{"USD", "EUR"}, Venues: []string{"venue-a"}, Seed: 2}

	edgesA, err := a.Edges(context.Background(), false)
	require.NoError(t, err)
	edgesB, err := b.Edges(context.Background(), false)
	require.NoError(t, err)
	require.NotEqual(t, edgesA, edgesB)
}
