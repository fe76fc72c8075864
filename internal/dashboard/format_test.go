package dashboard

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MattB543/ea-forum-clusters/pkg/models"
)

func floatPtr(v float64) *float64 { return &v }

func TestBuildOverview(t *testing.T) {
	levels := []models.LevelSummary{
		{
			Level: 5, PostCount: 200, MetaPosts: 50, ProperPosts: 130,
			AvgBaseScore: floatPtr(21.7), AvgScore: floatPtr(16.4),
		},
		{Level: 12, PostCount: 200, MetaPosts: 50, ProperPosts: 130},
	}

	o := BuildOverview(levels)
	assert.Equal(t, 200, o.TotalPosts)
	assert.Equal(t, 50, o.MetaPosts)
	assert.InDelta(t, 25.0, o.MetaShare, 1e-9)
	assert.InDelta(t, 65.0, o.ProperShare, 1e-9)
	require.NotNil(t, o.AvgBaseScore)
	assert.InDelta(t, 21.7, *o.AvgBaseScore, 1e-9)
}

func TestBuildOverview_Empty(t *testing.T) {
	o := BuildOverview(nil)
	assert.Zero(t, o.TotalPosts)
	assert.Zero(t, o.MetaShare)
	assert.Nil(t, o.AvgBaseScore)
}

func TestBuildTable_Rounding(t *testing.T) {
	clusters := []models.ClusterSummary{
		{
			Level: 5, ClusterID: 1, ClusterName: "Global Health", PostCount: 10,
			AvgBaseScore: floatPtr(15.5), StddevBaseScore: floatPtr(7.49),
			AvgScore: floatPtr(12.345), StddevScore: floatPtr(3.005),
		},
		{
			Level: 5, ClusterID: 2, ClusterName: "", PostCount: 4,
			AvgBaseScore: floatPtr(30.0),
		},
	}

	rows, maxes := BuildTable(clusters)
	require.Len(t, rows, 2)

	// Base score stats round to the nearest integer.
	require.NotNil(t, rows[0].AvgBaseScore)
	assert.Equal(t, 16, *rows[0].AvgBaseScore)
	require.NotNil(t, rows[0].StddevBaseScore)
	assert.Equal(t, 7, *rows[0].StddevBaseScore)

	// Score stats round to two decimals.
	require.NotNil(t, rows[0].AvgScore)
	assert.Equal(t, 12.35, *rows[0].AvgScore)
	require.NotNil(t, rows[0].StddevScore)
	assert.Equal(t, 3.01, *rows[0].StddevScore)

	// Missing stats stay nil, missing names get a synthesized label.
	assert.Nil(t, rows[1].AvgScore)
	assert.Equal(t, "Cluster 2", rows[1].ClusterName)

	// Maxima ignore nil cells and track the rounded values.
	assert.Equal(t, 10, maxes.PostCount)
	assert.Equal(t, 30, maxes.AvgBaseScore)
	assert.Equal(t, 7, maxes.StddevBaseScore)
	assert.Equal(t, 12.35, maxes.AvgScore)
}

func TestBuildTable_PreservesOrder(t *testing.T) {
	clusters := []models.ClusterSummary{
		{Level: 5, ClusterID: 3, PostCount: 50},
		{Level: 5, ClusterID: 1, PostCount: 50},
		{Level: 5, ClusterID: 7, PostCount: 2},
	}
	rows, _ := BuildTable(clusters)
	require.Len(t, rows, 3)
	assert.Equal(t, []int{3, 1, 7}, []int{rows[0].ClusterID, rows[1].ClusterID, rows[2].ClusterID})
}

func TestExportTableCSV(t *testing.T) {
	avgBase := 16
	rows := []TableRow{
		{ClusterName: "Global Health", PostCount: 10, AvgBaseScore: &avgBase, AvgScore: floatPtr(12.35)},
		{ClusterName: "Animal Welfare", PostCount: 4},
	}

	data, err := ExportTableCSV(rows)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "cluster_name,post_count,avg_base_score,stddev_base_score,avg_score,stddev_score", lines[0])
	assert.Equal(t, "Global Health,10,16,,12.35,", lines[1])
	// Absent statistics export as empty cells, not N/A.
	assert.Equal(t, "Animal Welfare,4,,,,", lines[2])
}
