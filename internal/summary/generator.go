package summary

import (
	"context"
	"fmt"

	"github.com/MattB543/ea-forum-clusters/internal/schema"
	"github.com/MattB543/ea-forum-clusters/pkg/database"
	"github.com/MattB543/ea-forum-clusters/pkg/logging"
	"github.com/MattB543/ea-forum-clusters/pkg/models"
)

// Generator runs the grouped aggregation queries that produce the two
// summary artifacts plus the console-only report sections.
type Generator struct {
	db     database.PostgresConn
	logger logging.Logger
}

// NewGenerator creates a generator bound to one database connection.
func NewGenerator(db database.PostgresConn, logger logging.Logger) *Generator {
	return &Generator{db: db, logger: logger}
}

// Report is the output of one aggregation run: the rows destined for the
// two CSV artifacts.
type Report struct {
	Levels   []models.LevelSummary
	Clusters []models.ClusterSummary
}

// Group is one cluster's row in the console per-level listing.
type Group struct {
	ClusterID       int
	ClusterName     string
	PostCount       int
	AvgBaseScore    *float64
	StddevBaseScore *float64
}

// GenerateReports aggregates every resolved level and returns the rows for
// both artifacts. A query failure aborts the whole run so no partial
// artifact is written.
func (g *Generator) GenerateReports(ctx context.Context, resolved []schema.LevelColumns) (Report, error) {
	var report Report
	for _, lc := range resolved {
		overview, err := g.LevelOverview(ctx, lc)
		if err != nil {
			return Report{}, err
		}
		report.Levels = append(report.Levels, overview)

		clusters, err := g.ClusterDetails(ctx, lc)
		if err != nil {
			return Report{}, err
		}
		report.Clusters = append(report.Clusters, clusters...)
	}
	return report, nil
}

// LevelOverview computes the dataset-wide counts and score statistics for
// all posts clustered at one level.
func (g *Generator) LevelOverview(ctx context.Context, lc schema.LevelColumns) (models.LevelSummary, error) {
	query := fmt.Sprintf(`
		SELECT
			COUNT(*)::int AS post_count,
			SUM(CASE WHEN %[2]s = $1 THEN 1 ELSE 0 END)::int AS meta_posts,
			SUM(CASE WHEN %[2]s = $2 THEN 1 ELSE 0 END)::int AS proper_posts,
			AVG(base_score) AS avg_base_score,
			STDDEV(base_score) AS stddev_base_score,
			AVG(score) AS avg_score,
			STDDEV(score) AS stddev_score
		FROM %[3]s
		WHERE %[1]s IS NOT NULL`,
		lc.IDColumn, schema.ClassificationColumn, schema.Table)

	row := g.db.QueryRowContext(ctx, query, string(models.ClassificationMeta), string(models.ClassificationProper))

	summary := models.LevelSummary{Level: lc.Level}
	var avgBase, stdBase, avgScore, stdScore nullFloat
	if err := row.Scan(&summary.PostCount, &summary.MetaPosts, &summary.ProperPosts,
		&avgBase, &stdBase, &avgScore, &stdScore); err != nil {
		return models.LevelSummary{}, fmt.Errorf("level %d overview query failed: %w", lc.Level, err)
	}
	summary.AvgBaseScore = avgBase.ptr()
	summary.StddevBaseScore = stdBase.ptr()
	summary.AvgScore = avgScore.ptr()
	summary.StddevScore = stdScore.ptr()
	return summary, nil
}

// ClusterDetails computes per-cluster counts and score statistics for one
// level, sorted by post count descending with cluster id as tie-breaker.
func (g *Generator) ClusterDetails(ctx context.Context, lc schema.LevelColumns) ([]models.ClusterSummary, error) {
	query := fmt.Sprintf(`
		SELECT
			%[1]s AS cluster_id,
			%[2]s,
			COUNT(*)::int AS post_count,
			SUM(CASE WHEN %[3]s = $1 THEN 1 ELSE 0 END)::int AS meta_posts,
			SUM(CASE WHEN %[3]s = $2 THEN 1 ELSE 0 END)::int AS proper_posts,
			AVG(base_score) AS avg_base_score,
			STDDEV(base_score) AS stddev_base_score,
			AVG(score) AS avg_score,
			STDDEV(score) AS stddev_score
		FROM %[4]s
		WHERE %[1]s IS NOT NULL
		GROUP BY %[1]s, cluster_name
		ORDER BY post_count DESC, cluster_id ASC`,
		lc.IDColumn, lc.NameExpr(), schema.ClassificationColumn, schema.Table)

	rows, err := g.db.QueryContext(ctx, query, string(models.ClassificationMeta), string(models.ClassificationProper))
	if err != nil {
		return nil, fmt.Errorf("level %d cluster query failed: %w", lc.Level, err)
	}
	defer rows.Close()

	var clusters []models.ClusterSummary
	for rows.Next() {
		cs := models.ClusterSummary{Level: lc.Level}
		var avgBase, stdBase, avgScore, stdScore nullFloat
		if err := rows.Scan(&cs.ClusterID, &cs.ClusterName, &cs.PostCount,
			&cs.MetaPosts, &cs.ProperPosts,
			&avgBase, &stdBase, &avgScore, &stdScore); err != nil {
			return nil, fmt.Errorf("level %d cluster scan failed: %w", lc.Level, err)
		}
		cs.AvgBaseScore = avgBase.ptr()
		cs.StddevBaseScore = stdBase.ptr()
		cs.AvgScore = avgScore.ptr()
		cs.StddevScore = stdScore.ptr()
		clusters = append(clusters, cs)
	}
	return clusters, rows.Err()
}

// ClassificationOverview compares the two recognized labels across the
// whole dataset, independent of clustering level.
func (g *Generator) ClassificationOverview(ctx context.Context) ([]models.ClassificationSummary, error) {
	rows, err := g.db.QueryContext(ctx, `
		SELECT
			ea_classification,
			COUNT(*)::int AS post_count,
			AVG(base_score) AS avg_base_score,
			STDDEV(base_score) AS stddev_base_score,
			AVG(score) AS avg_score,
			STDDEV(score) AS stddev_score
		FROM fellowship_mvp
		WHERE ea_classification IN ($1, $2)
		GROUP BY ea_classification
		ORDER BY ea_classification`,
		string(models.ClassificationMeta), string(models.ClassificationProper))
	if err != nil {
		return nil, fmt.Errorf("classification overview query failed: %w", err)
	}
	defer rows.Close()

	var summaries []models.ClassificationSummary
	for rows.Next() {
		var cs models.ClassificationSummary
		var label string
		var avgBase, stdBase, avgScore, stdScore nullFloat
		if err := rows.Scan(&label, &cs.PostCount, &avgBase, &stdBase, &avgScore, &stdScore); err != nil {
			return nil, fmt.Errorf("classification overview scan failed: %w", err)
		}
		cs.Classification = models.Classification(label)
		cs.AvgBaseScore = avgBase.ptr()
		cs.StddevBaseScore = stdBase.ptr()
		cs.AvgScore = avgScore.ptr()
		cs.StddevScore = stdScore.ptr()
		summaries = append(summaries, cs)
	}
	return summaries, rows.Err()
}

// LevelGroups lists one level's clusters for the console report, optionally
// restricted to a single classification label. The filter is always a
// bound parameter.
func (g *Generator) LevelGroups(ctx context.Context, lc schema.LevelColumns, classificationFilter string) ([]Group, error) {
	where := fmt.Sprintf("%s IS NOT NULL", lc.IDColumn)
	var args []interface{}
	if classificationFilter != "" {
		where += fmt.Sprintf(" AND %s = $1", schema.ClassificationColumn)
		args = append(args, classificationFilter)
	}

	query := fmt.Sprintf(`
		SELECT
			%[1]s AS cluster_id,
			%[2]s,
			COUNT(*)::int AS post_count,
			AVG(base_score) AS avg_base_score,
			STDDEV(base_score) AS stddev_base_score
		FROM %[3]s
		WHERE %[4]s
		GROUP BY %[1]s, cluster_name
		ORDER BY post_count DESC, cluster_id ASC`,
		lc.IDColumn, lc.NameExpr(), schema.Table, where)

	rows, err := g.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("level %d group query failed: %w", lc.Level, err)
	}
	defer rows.Close()

	var groups []Group
	for rows.Next() {
		var grp Group
		var avgBase, stdBase nullFloat
		if err := rows.Scan(&grp.ClusterID, &grp.ClusterName, &grp.PostCount, &avgBase, &stdBase); err != nil {
			return nil, fmt.Errorf("level %d group scan failed: %w", lc.Level, err)
		}
		grp.AvgBaseScore = avgBase.ptr()
		grp.StddevBaseScore = stdBase.ptr()
		groups = append(groups, grp)
	}
	return groups, rows.Err()
}
