package dashboard

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MattB543/ea-forum-clusters/pkg/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupRouter(t *testing.T, store *Store, posts *PostFetcher) *gin.Engine {
	t.Helper()
	router := gin.New()
	NewHandlers(store, posts, nil, nil).Register(router)
	return router
}

func populatedRouter(t *testing.T) *gin.Engine {
	t.Helper()
	levels := []models.LevelSummary{
		{Level: 5, PostCount: 3, MetaPosts: 1, ProperPosts: 2, AvgBaseScore: floatPtr(20), AvgScore: floatPtr(15.5)},
	}
	clusters := []models.ClusterSummary{
		{Level: 5, ClusterID: 1, ClusterName: "Global Health", PostCount: 2, AvgBaseScore: floatPtr(15.4), AvgScore: floatPtr(12.345)},
		{Level: 5, ClusterID: 2, ClusterName: "Animal Welfare", PostCount: 1, AvgBaseScore: floatPtr(30)},
	}
	levelPath, clusterPath := writeArtifacts(t, t.TempDir(), levels, clusters)
	store := NewStore(levelPath, clusterPath, nil)
	return setupRouter(t, store, NewPostFetcher(nil, nil))
}

func emptyRouter(t *testing.T) *gin.Engine {
	t.Helper()
	dir := t.TempDir()
	store := NewStore(filepath.Join(dir, "levels.csv"), filepath.Join(dir, "clusters.csv"), nil)
	return setupRouter(t, store, NewPostFetcher(nil, nil))
}

func doRequest(router *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestGetOverview(t *testing.T) {
	w := doRequest(populatedRouter(t), http.MethodGet, "/api/overview")
	require.Equal(t, http.StatusOK, w.Code)

	var o Overview
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &o))
	assert.Equal(t, 3, o.TotalPosts)
	assert.Equal(t, 1, o.MetaPosts)
	assert.InDelta(t, 33.333, o.MetaShare, 0.001)
}

func TestGetOverview_ArtifactsMissing(t *testing.T) {
	w := doRequest(emptyRouter(t), http.MethodGet, "/api/overview")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "Run the summarize command first")
}

func TestGetLevels(t *testing.T) {
	w := doRequest(populatedRouter(t), http.MethodGet, "/api/levels")
	require.Equal(t, http.StatusOK, w.Code)

	var levels []models.LevelSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &levels))
	require.Len(t, levels, 1)
	assert.Equal(t, 5, levels[0].Level)
}

func TestGetLevelClusters(t *testing.T) {
	w := doRequest(populatedRouter(t), http.MethodGet, "/api/levels/5/clusters")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Level    int        `json:"level"`
		Clusters []TableRow `json:"clusters"`
		Max      TableMax   `json:"max"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 5, resp.Level)
	require.Len(t, resp.Clusters, 2)
	// Display rounding: base scores to integers, scores to two decimals.
	require.NotNil(t, resp.Clusters[0].AvgBaseScore)
	assert.Equal(t, 15, *resp.Clusters[0].AvgBaseScore)
	require.NotNil(t, resp.Clusters[0].AvgScore)
	assert.Equal(t, 12.35, *resp.Clusters[0].AvgScore)
	assert.Equal(t, 2, resp.Max.PostCount)
}

func TestGetLevelClusters_UnknownLevel(t *testing.T) {
	w := doRequest(populatedRouter(t), http.MethodGet, "/api/levels/60/clusters")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetLevelClusters_BadLevel(t *testing.T) {
	w := doRequest(populatedRouter(t), http.MethodGet, "/api/levels/abc/clusters")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(populatedRouter(t), http.MethodGet, "/api/levels/-5/clusters")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetClusterPosts_DatabaseUnavailable(t *testing.T) {
	w := doRequest(populatedRouter(t), http.MethodGet, "/api/levels/5/clusters/1/posts")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Posts   []models.Post `json:"posts"`
		Message string        `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Posts)
	assert.Contains(t, resp.Message, "Set DATABASE_URL to enable drill-down")
}

func TestGetClusterPosts_LiveQuery(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// Level column probe, then the post query.
	mock.ExpectQuery("information_schema.columns").
		WithArgs("fellowship_mvp", "ea_cluster_5").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectQuery("information_schema.columns").
		WithArgs("fellowship_mvp", "ea_cluster_5_name").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectQuery("FROM fellowship_mvp").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{
			"post_id", "title", "author_display_name", "posted_at", "base_score", "score",
		}).AddRow("abc123", "On bednets", "A. Author", nil, 25.0, 19.5))

	levels := []models.LevelSummary{{Level: 5, PostCount: 1}}
	clusters := []models.ClusterSummary{{Level: 5, ClusterID: 1, ClusterName: "Global Health", PostCount: 1}}
	levelPath, clusterPath := writeArtifacts(t, t.TempDir(), levels, clusters)
	router := setupRouter(t, NewStore(levelPath, clusterPath, nil), NewPostFetcher(db, nil))

	w := doRequest(router, http.MethodGet, "/api/levels/5/clusters/1/posts?sort=score")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Posts []models.Post `json:"posts"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Posts, 1)
	assert.Equal(t, "On bednets", resp.Posts[0].Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExportLevel(t *testing.T) {
	w := doRequest(populatedRouter(t), http.MethodGet, "/api/levels/5/export.csv")
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, `attachment; filename="cluster_details_level_5.csv"`, w.Header().Get("Content-Disposition"))
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")

	body := w.Body.String()
	assert.Contains(t, body, "cluster_name,post_count,avg_base_score,stddev_base_score,avg_score,stddev_score")
	assert.Contains(t, body, "Global Health,2,15,,12.35,")
}

func TestExportLevel_ArtifactsMissing(t *testing.T) {
	w := doRequest(emptyRouter(t), http.MethodGet, "/api/levels/5/export.csv")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestGetPage(t *testing.T) {
	w := doRequest(populatedRouter(t), http.MethodGet, "/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")

	body := w.Body.String()
	assert.Contains(t, body, "Global Health")
	assert.Contains(t, body, "Animal Welfare")
	assert.Contains(t, body, "EA Meta")
}

func TestGetPage_ArtifactsMissing(t *testing.T) {
	w := doRequest(emptyRouter(t), http.MethodGet, "/")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "summarize")
}
