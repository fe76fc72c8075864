package dashboard

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math"
	"strconv"

	"github.com/MattB543/ea-forum-clusters/pkg/models"
)

// Overview summarizes the whole dataset for the top of the dashboard. The
// totals come from the first level row; they are identical across levels by
// construction since only the number of clusters varies with level.
type Overview struct {
	TotalPosts      int      `json:"total_posts"`
	MetaPosts       int      `json:"meta_posts"`
	ProperPosts     int      `json:"proper_posts"`
	MetaShare       float64  `json:"meta_share"`
	ProperShare     float64  `json:"proper_share"`
	AvgBaseScore    *float64 `json:"avg_base_score"`
	StddevBaseScore *float64 `json:"stddev_base_score"`
	AvgScore        *float64 `json:"avg_score"`
	StddevScore     *float64 `json:"stddev_score"`
}

// BuildOverview derives the overview from the level artifact rows.
func BuildOverview(levels []models.LevelSummary) Overview {
	if len(levels) == 0 {
		return Overview{}
	}
	first := levels[0]
	o := Overview{
		TotalPosts:      first.PostCount,
		MetaPosts:       first.MetaPosts,
		ProperPosts:     first.ProperPosts,
		AvgBaseScore:    first.AvgBaseScore,
		StddevBaseScore: first.StddevBaseScore,
		AvgScore:        first.AvgScore,
		StddevScore:     first.StddevScore,
	}
	if o.TotalPosts > 0 {
		o.MetaShare = float64(o.MetaPosts) / float64(o.TotalPosts) * 100.0
		o.ProperShare = float64(o.ProperPosts) / float64(o.TotalPosts) * 100.0
	}
	return o
}

// TableRow is one cluster's display-rounded entry in a level table: base
// score stats to the nearest integer, score stats to two decimals. Nil
// means the underlying statistic was absent and renders as N/A.
type TableRow struct {
	ClusterID       int      `json:"cluster_id"`
	ClusterName     string   `json:"cluster_name"`
	PostCount       int      `json:"post_count"`
	AvgBaseScore    *int     `json:"avg_base_score"`
	StddevBaseScore *int     `json:"stddev_base_score"`
	AvgScore        *float64 `json:"avg_score"`
	StddevScore     *float64 `json:"stddev_score"`
}

// TableMax carries each column's maximum within a level, the scale for the
// proportional column indicators.
type TableMax struct {
	PostCount       int     `json:"post_count"`
	AvgBaseScore    int     `json:"avg_base_score"`
	StddevBaseScore int     `json:"stddev_base_score"`
	AvgScore        float64 `json:"avg_score"`
	StddevScore     float64 `json:"stddev_score"`
}

// BuildTable converts cluster artifact rows into display rows plus the
// per-column maxima. Input order (post count descending) is preserved.
func BuildTable(clusters []models.ClusterSummary) ([]TableRow, TableMax) {
	rows := make([]TableRow, 0, len(clusters))
	var maxes TableMax
	for _, c := range clusters {
		name := c.ClusterName
		if name == "" {
			name = fmt.Sprintf("Cluster %d", c.ClusterID)
		}
		row := TableRow{
			ClusterID:       c.ClusterID,
			ClusterName:     name,
			PostCount:       c.PostCount,
			AvgBaseScore:    roundToInt(c.AvgBaseScore),
			StddevBaseScore: roundToInt(c.StddevBaseScore),
			AvgScore:        roundTo2(c.AvgScore),
			StddevScore:     roundTo2(c.StddevScore),
		}
		rows = append(rows, row)

		if row.PostCount > maxes.PostCount {
			maxes.PostCount = row.PostCount
		}
		if row.AvgBaseScore != nil && *row.AvgBaseScore > maxes.AvgBaseScore {
			maxes.AvgBaseScore = *row.AvgBaseScore
		}
		if row.StddevBaseScore != nil && *row.StddevBaseScore > maxes.StddevBaseScore {
			maxes.StddevBaseScore = *row.StddevBaseScore
		}
		if row.AvgScore != nil && *row.AvgScore > maxes.AvgScore {
			maxes.AvgScore = *row.AvgScore
		}
		if row.StddevScore != nil && *row.StddevScore > maxes.StddevScore {
			maxes.StddevScore = *row.StddevScore
		}
	}
	return rows, maxes
}

// ExportTableCSV serializes a level's display table as a downloadable CSV,
// using the same rounding as the table view. Absent values export as empty
// cells.
func ExportTableCSV(rows []TableRow) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"cluster_name", "post_count", "avg_base_score", "stddev_base_score", "avg_score", "stddev_score"}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, row := range rows {
		rec := []string{
			row.ClusterName,
			strconv.Itoa(row.PostCount),
			intCell(row.AvgBaseScore),
			intCell(row.StddevBaseScore),
			floatCell(row.AvgScore),
			floatCell(row.StddevScore),
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func roundToInt(v *float64) *int {
	if v == nil {
		return nil
	}
	n := int(math.Round(*v))
	return &n
}

func roundTo2(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r := math.Round(*v*100) / 100
	return &r
}

func intCell(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func floatCell(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

// displayFloat renders a nullable float for the HTML view with an N/A
// fallback.
func displayFloat(v *float64, decimals int) string {
	if v == nil {
		return "N/A"
	}
	return strconv.FormatFloat(*v, 'f', decimals, 64)
}

// displayInt renders a nullable rounded integer for the HTML view.
func displayInt(v *int) string {
	if v == nil {
		return "N/A"
	}
	return strconv.Itoa(*v)
}
