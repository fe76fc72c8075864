package dashboard

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/MattB543/ea-forum-clusters/internal/schema"
	"github.com/MattB543/ea-forum-clusters/pkg/database"
	"github.com/MattB543/ea-forum-clusters/pkg/logging"
	"github.com/MattB543/ea-forum-clusters/pkg/models"
)

// maxClusterPosts caps a drill-down result.
const maxClusterPosts = 500

// SortBy selects the drill-down ordering.
type SortBy string

const (
	SortByScore SortBy = "score"
	SortByDate  SortBy = "date"
)

// PostFetcher runs live drill-down queries for a single cluster's posts.
// It degrades to empty results when no database is configured or the
// database is unreachable; the precomputed summaries never depend on it.
type PostFetcher struct {
	db     database.PostgresConn
	logger logging.Logger
}

// NewPostFetcher creates a fetcher. db may be nil, in which case every
// fetch returns an empty slice.
func NewPostFetcher(db database.PostgresConn, logger logging.Logger) *PostFetcher {
	return &PostFetcher{db: db, logger: logger}
}

// Available reports whether live drill-down is configured at all.
func (f *PostFetcher) Available() bool {
	return f.db != nil
}

// FetchClusterPosts returns up to 500 posts in the given cluster, ordered
// by score or publication date descending with NULLs last. Any failure is
// logged and surfaces as an empty result, not an error.
func (f *PostFetcher) FetchClusterPosts(ctx context.Context, level, clusterID int, sortBy SortBy) []models.Post {
	if f.db == nil {
		return nil
	}

	lc, ok, err := schema.ResolveLevel(ctx, f.db, level)
	if err != nil || !ok {
		if err != nil && f.logger != nil {
			f.logger.WithError(err).WithField("level", level).Warn("Cluster drill-down probe failed")
		}
		return nil
	}

	order := "score DESC NULLS LAST"
	if sortBy == SortByDate {
		order = "posted_at DESC NULLS LAST"
	}

	query := fmt.Sprintf(`
		SELECT
			post_id,
			title,
			author_display_name,
			posted_at,
			base_score,
			score
		FROM %s
		WHERE %s = $1
		ORDER BY %s
		LIMIT %d`,
		schema.Table, lc.IDColumn, order, maxClusterPosts)

	rows, err := f.db.QueryContext(ctx, query, clusterID)
	if err != nil {
		if f.logger != nil {
			f.logger.WithError(err).WithFields(logging.Fields{
				"level":      level,
				"cluster_id": clusterID,
			}).Warn("Cluster drill-down query failed")
		}
		return nil
	}
	defer rows.Close()

	var posts []models.Post
	for rows.Next() {
		var p models.Post
		var postedAt sql.NullTime
		var baseScore, score sql.NullFloat64
		if err := rows.Scan(&p.PostID, &p.Title, &p.AuthorDisplayName, &postedAt, &baseScore, &score); err != nil {
			if f.logger != nil {
				f.logger.WithError(err).Warn("Failed to scan cluster post")
			}
			continue
		}
		if postedAt.Valid {
			t := postedAt.Time
			p.PostedAt = &t
		}
		if baseScore.Valid {
			v := baseScore.Float64
			p.BaseScore = &v
		}
		if score.Valid {
			v := score.Float64
			p.Score = &v
		}
		posts = append(posts, p)
	}
	return posts
}
