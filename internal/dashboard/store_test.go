package dashboard

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MattB543/ea-forum-clusters/internal/artifact"
	"github.com/MattB543/ea-forum-clusters/pkg/models"
)

func writeArtifacts(t *testing.T, dir string, levels []models.LevelSummary, clusters []models.ClusterSummary) (string, string) {
	t.Helper()
	levelPath := filepath.Join(dir, "cluster_level_summary.csv")
	clusterPath := filepath.Join(dir, "cluster_cluster_summary.csv")
	require.NoError(t, artifact.WriteLevelSummaries(levelPath, levels))
	require.NoError(t, artifact.WriteClusterSummaries(clusterPath, clusters))
	return levelPath, clusterPath
}

func sampleLevels() []models.LevelSummary {
	return []models.LevelSummary{
		{Level: 5, PostCount: 3, MetaPosts: 1, ProperPosts: 2},
		{Level: 12, PostCount: 3, MetaPosts: 1, ProperPosts: 2},
	}
}

func sampleClusters() []models.ClusterSummary {
	return []models.ClusterSummary{
		{Level: 5, ClusterID: 1, ClusterName: "Global Health", PostCount: 2},
		{Level: 5, ClusterID: 2, ClusterName: "Animal Welfare", PostCount: 1},
		{Level: 12, ClusterID: 9, ClusterName: "Cluster 9", PostCount: 3},
	}
}

func TestStoreSnapshot(t *testing.T) {
	levelPath, clusterPath := writeArtifacts(t, t.TempDir(), sampleLevels(), sampleClusters())
	store := NewStore(levelPath, clusterPath, nil)

	levels, clusters, err := store.Snapshot()
	require.NoError(t, err)
	assert.Len(t, levels, 2)
	assert.Len(t, clusters, 3)
}

func TestStoreSnapshot_MissingArtifact(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(filepath.Join(dir, "missing.csv"), filepath.Join(dir, "also-missing.csv"), nil)

	_, _, err := store.Snapshot()
	assert.ErrorIs(t, err, artifact.ErrMissing)
}

func TestStoreClustersForLevel(t *testing.T) {
	levelPath, clusterPath := writeArtifacts(t, t.TempDir(), sampleLevels(), sampleClusters())
	store := NewStore(levelPath, clusterPath, nil)

	clusters, err := store.ClustersForLevel(5)
	require.NoError(t, err)
	require.Len(t, clusters, 2)
	assert.Equal(t, "Global Health", clusters[0].ClusterName)

	none, err := store.ClustersForLevel(60)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestStoreAvailableLevels(t *testing.T) {
	levelPath, clusterPath := writeArtifacts(t, t.TempDir(), sampleLevels(), sampleClusters())
	store := NewStore(levelPath, clusterPath, nil)

	levels, err := store.AvailableLevels()
	require.NoError(t, err)
	assert.Equal(t, []int{5, 12}, levels)
}

func TestStoreRefreshOnChange(t *testing.T) {
	dir := t.TempDir()
	levelPath, clusterPath := writeArtifacts(t, dir, sampleLevels(), sampleClusters())
	store := NewStore(levelPath, clusterPath, nil)

	levels, _, err := store.Snapshot()
	require.NoError(t, err)
	require.Len(t, levels, 2)

	// Rewrite the artifacts the way the summarizer does: whole-file replace.
	writeArtifacts(t, dir, []models.LevelSummary{{Level: 30, PostCount: 9}}, nil)
	// Some filesystems store mtimes with second granularity.
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(levelPath, future, future))
	require.NoError(t, os.Chtimes(clusterPath, future, future))

	levels, clusters, err := store.Snapshot()
	require.NoError(t, err)
	require.Len(t, levels, 1)
	assert.Equal(t, 30, levels[0].Level)
	assert.Empty(t, clusters)
}

func TestStoreServesCacheWhileUnchanged(t *testing.T) {
	levelPath, clusterPath := writeArtifacts(t, t.TempDir(), sampleLevels(), sampleClusters())
	store := NewStore(levelPath, clusterPath, nil)

	first, _, err := store.Snapshot()
	require.NoError(t, err)
	second, _, err := store.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
