package pipeline

import (
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/jobsift/jobsift/internal/ai"
)

// RenderSummary formats the end-of-run report as a table.
func RenderSummary(counters *Counters, usage ai.UsageSnapshot, threshold float64) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Metric", "Value"})

	rows := []table.Row{
		{"Total records", strconv.Itoa(counters.Total)},
		{"Filtered out", strconv.Itoa(counters.FilteredOut)},
		{"Published", strconv.Itoa(counters.Published)},
		{"Below threshold (cached only)", strconv.Itoa(counters.BelowThreshold)},
		{"Skipped (previously cached)", strconv.Itoa(counters.Skipped)},
		{"Failed", strconv.Itoa(counters.Failed)},
		{"Rating threshold", fmt.Sprintf("%.1f", threshold)},
		{"Backup model escalations", strconv.Itoa(usage.Escalations)},
		{"Total tokens", strconv.Itoa(usage.TotalTokens)},
		{"Total cost", fmt.Sprintf("$%.4f", usage.TotalCost)},
	}
	tw.AppendRows(rows)

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})

	return tw.Render()
}
