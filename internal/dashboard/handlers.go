package dashboard

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/MattB543/ea-forum-clusters/internal/artifact"
	"github.com/MattB543/ea-forum-clusters/internal/metrics"
	"github.com/MattB543/ea-forum-clusters/pkg/logging"
	"github.com/MattB543/ea-forum-clusters/pkg/models"
)

// ErrorResponse is the JSON error envelope
type ErrorResponse struct {
	Error string `json:"error"`
}

// Handlers serves the dashboard page and its JSON API from the artifact
// store, with optional live drill-down through the post fetcher.
type Handlers struct {
	store          *Store
	posts          *PostFetcher
	logger         logging.Logger
	serviceMetrics *metrics.Metrics
}

// NewHandlers wires the dashboard handler set.
func NewHandlers(store *Store, posts *PostFetcher, logger logging.Logger, m *metrics.Metrics) *Handlers {
	return &Handlers{store: store, posts: posts, logger: logger, serviceMetrics: m}
}

// Register mounts all dashboard routes on the router.
func (h *Handlers) Register(router *gin.Engine) {
	router.GET("/", h.GetPage)

	api := router.Group("/api")
	api.GET("/overview", h.GetOverview)
	api.GET("/levels", h.GetLevels)
	api.GET("/levels/:level/clusters", h.GetLevelClusters)
	api.GET("/levels/:level/clusters/:id/posts", h.GetClusterPosts)
	api.GET("/levels/:level/export.csv", h.ExportLevel)
}

// GetOverview returns dataset-wide totals and score statistics.
func (h *Handlers) GetOverview(c *gin.Context) {
	levels, _, err := h.snapshot(c)
	if err != nil {
		return
	}
	c.JSON(http.StatusOK, BuildOverview(levels))
}

// GetLevels returns the level summary rows.
func (h *Handlers) GetLevels(c *gin.Context) {
	levels, _, err := h.snapshot(c)
	if err != nil {
		return
	}
	c.JSON(http.StatusOK, levels)
}

// GetLevelClusters returns one level's display table with per-column maxima
// for proportional indicators.
func (h *Handlers) GetLevelClusters(c *gin.Context) {
	level, ok := h.levelParam(c)
	if !ok {
		return
	}
	clusters, err := h.store.ClustersForLevel(level)
	if err != nil {
		h.artifactError(c, err)
		return
	}
	if len(clusters) == 0 {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: fmt.Sprintf("No clusters for level %d", level)})
		return
	}

	rows, maxes := BuildTable(clusters)
	c.JSON(http.StatusOK, gin.H{
		"level":    level,
		"clusters": rows,
		"max":      maxes,
	})
}

// GetClusterPosts returns up to 500 posts in one cluster, live from the
// database. An unreachable database yields an empty list with an
// informational message, not an error.
func (h *Handlers) GetClusterPosts(c *gin.Context) {
	start := time.Now()
	defer func() {
		if h.serviceMetrics != nil {
			h.serviceMetrics.QueryDuration.WithLabelValues("cluster_posts").Observe(time.Since(start).Seconds())
		}
	}()

	level, ok := h.levelParam(c)
	if !ok {
		return
	}
	clusterID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid cluster id"})
		return
	}

	sortBy := SortByScore
	if c.DefaultQuery("sort", "score") == "date" {
		sortBy = SortByDate
	}

	posts := h.posts.FetchClusterPosts(c.Request.Context(), level, clusterID, sortBy)
	if h.serviceMetrics != nil {
		status := "success"
		if len(posts) == 0 {
			status = "empty"
		}
		h.serviceMetrics.DrilldownQueries.WithLabelValues(status).Inc()
	}

	if posts == nil {
		message := "No posts found or database unavailable. Set DATABASE_URL to enable drill-down."
		c.JSON(http.StatusOK, gin.H{"posts": []models.Post{}, "message": message})
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

// ExportLevel downloads one level's display table as CSV.
func (h *Handlers) ExportLevel(c *gin.Context) {
	level, ok := h.levelParam(c)
	if !ok {
		return
	}
	clusters, err := h.store.ClustersForLevel(level)
	if err != nil {
		h.artifactError(c, err)
		return
	}
	if len(clusters) == 0 {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: fmt.Sprintf("No clusters for level %d", level)})
		return
	}

	rows, _ := BuildTable(clusters)
	data, err := ExportTableCSV(rows)
	if err != nil {
		h.logger.WithError(err).Error("Failed to serialize level export")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to serialize export"})
		return
	}

	if h.serviceMetrics != nil {
		h.serviceMetrics.ExportDownloads.WithLabelValues(strconv.Itoa(level)).Inc()
	}
	filename := fmt.Sprintf("cluster_details_level_%d.csv", level)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

// snapshot loads the artifacts, writing the user-facing blocking error when
// they are missing.
func (h *Handlers) snapshot(c *gin.Context) ([]models.LevelSummary, []models.ClusterSummary, error) {
	levels, clusters, err := h.store.Snapshot()
	if err != nil {
		h.artifactError(c, err)
		return nil, nil, err
	}
	if h.serviceMetrics != nil {
		h.serviceMetrics.ArtifactLoads.WithLabelValues("success").Inc()
	}
	return levels, clusters, nil
}

func (h *Handlers) artifactError(c *gin.Context, err error) {
	if h.serviceMetrics != nil {
		h.serviceMetrics.ArtifactLoads.WithLabelValues("error").Inc()
	}
	if errors.Is(err, artifact.ErrMissing) {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error: "Summary artifacts not found. Run the summarize command first to generate them.",
		})
		return
	}
	h.logger.WithError(err).Error("Failed to load summary artifacts")
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to load summary artifacts"})
}

func (h *Handlers) levelParam(c *gin.Context) (int, bool) {
	level, err := strconv.Atoi(c.Param("level"))
	if err != nil || level <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid level"})
		return 0, false
	}
	return level, true
}
