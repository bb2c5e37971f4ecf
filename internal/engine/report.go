package engine

import (
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
)

// WriteReport renders a ScanResponse as a human-readable table to w.
func WriteReport(w io.Writer, resp *ScanResponse) {
	fmt.Fprintf(w, "scan %s — %d opportunit", resp.ScanID, len(resp.Opportunities))
	if len(resp.Opportunities) == 1 {
		fmt.Fprintf(w, "y")
	} else {
		fmt.Fprintf(w, "ies")
	}
	fmt.Fprintf(w, " in %.1fms\n", resp.ElapsedMs)

	if len(resp.Opportunities) == 0 {
		fmt.Fprintln(w, "no arbitrage cycles found")
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "Path", "Raw Profit", "Sharpe", "Risk", "Level", "Robustness", "Allocated"})

	alloc := make(map[string]float64, len(resp.Allocation.Allocations))
	for _, a := range resp.Allocation.Allocations {
		alloc[a.ID] = a.Amount
	}

	for i, o := range resp.Opportunities {
		sharpe := "n/a"
		if o.Simulation.SharpeDefined {
			sharpe = fmt.Sprintf("%.2f", o.Simulation.Sharpe)
		}
		amount := "-"
		if a, ok := alloc[o.Fingerprint]; ok && a > 0 {
			amount = fmt.Sprintf("$%.2f", a)
		}
		table.Append([]string{
			fmt.Sprintf("%d", i+1),
			strings.Join(o.Cycle.TokenPath, " -> "),
			fmt.Sprintf("%.4f%%", (o.Cycle.RawProfit-1)*100),
			sharpe,
			fmt.Sprintf("%.1f", o.Risk.Composite),
			o.Risk.Level,
			o.Stress.Rating,
			amount,
		})
	}
	table.Render()

	fmt.Fprintf(w, "allocated %.1f%% of capital across %d position(s)\n",
		resp.Allocation.TotalFraction*100, len(resp.Allocation.Allocations))
	fmt.Fprintf(w, "scans=%d cycles_total=%d avg_detect_ms=%.2f tracked=%d portfolio_sharpe=%.2f\n",
		resp.Metrics.TotalScans, resp.Metrics.TotalCyclesFound, resp.Metrics.AvgDetectionTimeMs,
		resp.Metrics.TrackedFingerprints, resp.Metrics.PortfolioSharpe)
}
