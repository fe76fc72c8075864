package summary

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/MattB543/ea-forum-clusters/pkg/models"
)

// ConsolePrinter renders the human-readable report sections that accompany
// an aggregation run. Only the two CSV artifacts are persisted; everything
// printed here is informational.
type ConsolePrinter struct {
	out    io.Writer
	header *color.Color
	name   *color.Color
}

// NewConsolePrinter writes the report to out.
func NewConsolePrinter(out io.Writer) *ConsolePrinter {
	return &ConsolePrinter{
		out:    out,
		header: color.New(color.FgCyan, color.Bold),
		name:   color.New(color.Bold),
	}
}

// Header prints a banner section title.
func (p *ConsolePrinter) Header(title string) {
	rule := strings.Repeat("=", 80)
	fmt.Fprintln(p.out, rule)
	p.header.Fprintln(p.out, title)
	fmt.Fprintln(p.out, rule)
}

// ClassificationOverview prints the EA Meta vs EA Proper comparison.
func (p *ConsolePrinter) ClassificationOverview(rows []models.ClassificationSummary) {
	for _, row := range rows {
		fmt.Fprintf(p.out, "- %s: posts=%d, avg_base=%s, std_base=%s, avg_score=%s, std_score=%s\n",
			row.Classification.Pretty(), row.PostCount,
			formatStat(row.AvgBaseScore), formatStat(row.StddevBaseScore),
			formatStat(row.AvgScore), formatStat(row.StddevScore))
	}
	fmt.Fprintln(p.out)
}

// LevelGroups prints one level's cluster listing, optionally annotated with
// the classification the listing was restricted to.
func (p *ConsolePrinter) LevelGroups(level int, classificationFilter string, groups []Group) {
	subtitle := fmt.Sprintf("Cluster Level %d", level)
	if classificationFilter != "" {
		subtitle += fmt.Sprintf("  |  EA Classification = %s", classificationFilter)
	}
	fmt.Fprintln(p.out, subtitle)
	fmt.Fprintln(p.out, strings.Repeat("-", len(subtitle)))

	if len(groups) == 0 {
		fmt.Fprintln(p.out, "(no rows)")
		fmt.Fprintln(p.out)
		return
	}

	for _, grp := range groups {
		clusterName := grp.ClusterName
		if clusterName == "" {
			clusterName = fmt.Sprintf("Cluster %d", grp.ClusterID)
		}
		fmt.Fprint(p.out, "- ")
		p.name.Fprint(p.out, clusterName)
		fmt.Fprintf(p.out, ": posts=%d, avg_base=%s, std_base=%s\n",
			grp.PostCount, formatStat(grp.AvgBaseScore), formatStat(grp.StddevBaseScore))
	}
	fmt.Fprintln(p.out)
}

// SkippedLevel notes a level whose cluster columns are absent.
func (p *ConsolePrinter) SkippedLevel(level int, missingColumn string) {
	fmt.Fprintf(p.out, "[skip] %d-cluster columns not found (missing %s)\n", level, missingColumn)
}

// ArtifactWritten notes a persisted CSV path.
func (p *ConsolePrinter) ArtifactWritten(path string) {
	fmt.Fprintf(p.out, "CSV exported: %s\n", path)
}

// formatStat renders a nullable statistic for display; absent values show
// as N/A rather than propagating.
func formatStat(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.2f", *v)
}
