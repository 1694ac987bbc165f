package cli

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/olamyy/wmt/pkg/check"
	"github.com/olamyy/wmt/pkg/criteria"
)

// renderTable prints one table per package followed by the run summary.
// In verbose mode the reason column is shown for every verdict; otherwise
// only for verdicts that did not pass.
func renderTable(w io.Writer, res *check.RunResult, verbose bool) {
	for i, p := range res.Packages {
		if i > 0 {
			printNewline(w)
		}
		icon, style := outcomeStyle(p.Outcome())
		title := StyleTitle.Render(p.Identity.Name) + " " + StyleDim.Render(string(p.Identity.Ecosystem))
		if p.Identity.Version != "" {
			title += StyleDim.Render(" " + p.Identity.Version)
		}
		fmt.Fprintln(w, style.Render(icon)+" "+title)
		fmt.Fprintln(w, packageTable(p, verbose).Render())
	}

	printNewline(w)
	printSummary(w, res)
}

func packageTable(p check.PackageResult, verbose bool) *table.Table {
	statuses := make([]criteria.Status, len(p.Verdicts))
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(StyleDim).
		Headers("#", "Criterion", "Result", "Details")

	for i, v := range p.Verdicts {
		statuses[i] = v.Status
		icon, _ := statusStyle(v.Status)
		reason := v.Reason
		if v.Status == criteria.Pass && !verbose {
			reason = ""
		}
		t.Row(strconv.Itoa(v.Number), v.Title, icon+" "+v.Status.String(), reason)
	}

	t.StyleFunc(func(row, col int) lipgloss.Style {
		if row == table.HeaderRow {
			return styleHeader
		}
		if col == 2 && row >= 0 && row < len(statuses) {
			_, style := statusStyle(statuses[row])
			return styleCell.Foreground(style.GetForeground())
		}
		if col == 0 || col == 3 {
			return styleCell.Foreground(colorGray)
		}
		return styleCell
	})
	return t
}

// printSummary prints the per-run counts and the overall outcome.
func printSummary(w io.Writer, res *check.RunResult) {
	s := res.Summary
	icon, style := outcomeStyle(s.Outcome)
	counts := fmt.Sprintf("%s pass · %s fail · %s unknown",
		StyleNumber.Render(strconv.Itoa(s.Pass)),
		StyleNumber.Render(strconv.Itoa(s.Fail)),
		StyleNumber.Render(strconv.Itoa(s.Unknown)))
	fmt.Fprintf(w, "%s %s %s\n", style.Render(icon), style.Render(string(s.Outcome)), StyleDim.Render(fmt.Sprintf("(%d packages, %s)", s.Packages, res.Duration().Round(time.Millisecond))))
	printDetail(w, "%s", counts)
	if res.Cancelled {
		printWarning(w, "run cancelled before every package finished")
	}
}
