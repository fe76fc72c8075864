package models

import "time"

// Classification is the coarse label describing a post's relationship to
// the forum's own community-discussion content.
type Classification string

const (
	ClassificationMeta   Classification = "EA_META"
	ClassificationProper Classification = "EA_PROPER"
)

// Pretty returns the human-readable form of a classification label.
func (c Classification) Pretty() string {
	switch c {
	case ClassificationMeta:
		return "EA Meta"
	case ClassificationProper:
		return "EA Proper"
	default:
		return string(c)
	}
}

// LevelSummary is one row of the per-level artifact: dataset-wide counts
// and score statistics for all posts assigned a cluster at that level.
// Statistic fields are nil when SQL AVG/STDDEV returned NULL (no non-NULL
// inputs).
type LevelSummary struct {
	Level           int      `json:"level"`
	PostCount       int      `json:"post_count"`
	MetaPosts       int      `json:"meta_posts"`
	ProperPosts     int      `json:"proper_posts"`
	AvgBaseScore    *float64 `json:"avg_base_score"`
	StddevBaseScore *float64 `json:"stddev_base_score"`
	AvgScore        *float64 `json:"avg_score"`
	StddevScore     *float64 `json:"stddev_score"`
}

// ClusterSummary is one row of the per-cluster artifact: counts and score
// statistics for a single (level, cluster) group.
type ClusterSummary struct {
	Level           int      `json:"level"`
	ClusterID       int      `json:"cluster_id"`
	ClusterName     string   `json:"cluster_name"`
	PostCount       int      `json:"post_count"`
	MetaPosts       int      `json:"meta_posts"`
	ProperPosts     int      `json:"proper_posts"`
	AvgBaseScore    *float64 `json:"avg_base_score"`
	StddevBaseScore *float64 `json:"stddev_base_score"`
	AvgScore        *float64 `json:"avg_score"`
	StddevScore     *float64 `json:"stddev_score"`
}

// ClassificationSummary compares the two recognized labels across the whole
// dataset, independent of clustering level. Console output only, never
// persisted.
type ClassificationSummary struct {
	Classification  Classification `json:"classification"`
	PostCount       int            `json:"post_count"`
	AvgBaseScore    *float64       `json:"avg_base_score"`
	StddevBaseScore *float64       `json:"stddev_base_score"`
	AvgScore        *float64       `json:"avg_score"`
	StddevScore     *float64       `json:"stddev_score"`
}

// Post is a single forum post row as returned by cluster drill-down.
type Post struct {
	PostID            string     `json:"post_id"`
	Title             string     `json:"title"`
	AuthorDisplayName string     `json:"author_display_name"`
	PostedAt          *time.Time `json:"posted_at"`
	BaseScore         *float64   `json:"base_score"`
	Score             *float64   `json:"score"`
}
