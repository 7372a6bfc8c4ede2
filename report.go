package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"papermill_reel_tracker/reel"
	"papermill_reel_tracker/yield"
)

var (
	headStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))

	bandStyles = map[yield.Band]lipgloss.Style{
		yield.BandGood:    lipgloss.NewStyle().Foreground(lipgloss.Color("#3FB950")),
		yield.BandWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("#D29922")),
		yield.BandPoor:    lipgloss.NewStyle().Foreground(lipgloss.Color("#F85149")),
	}
)

func bandCell(pct float64) string {
	b := yield.BandOf(pct)
	return bandStyles[b].Render(fmt.Sprintf("%6.1f%%  %s", pct, b))
}

// renderReport prints one line per reel and the average.
func renderReport(rep *reel.YieldReport) string {
	var sb strings.Builder
	title := "Yield report"
	if rep.Operator != "" {
		title += " for " + rep.Operator
	}
	sb.WriteString(headStyle.Render(title) + "\n")

	if len(rep.Rows) == 0 {
		sb.WriteString(dimStyle.Render("no completed reels") + "\n")
	}
	for _, row := range rep.Rows {
		fmt.Fprintf(&sb, "%-16s %-12s %8.1f kg  %7.2f / %7.2f reams  %s\n",
			row.Reel.ReelNo,
			row.Reel.AssignedTo,
			row.Reel.Weight,
			row.Yield.ActualReams,
			row.Yield.ExpectedReams,
			bandCell(row.Yield.YieldPercent),
		)
	}
	if len(rep.Excluded) > 0 {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("%d reel(s) excluded: yield not computable", len(rep.Excluded))) + "\n")
	}
	if rep.AverageYield != nil {
		sb.WriteString(headStyle.Render("average") + " " + bandCell(*rep.AverageYield) + "\n")
	}
	return sb.String()
}
