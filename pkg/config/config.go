package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// DefaultLevels are the cluster granularities processed when CLUSTER_LEVELS
// is unset or unparseable.
var DefaultLevels = []int{5, 12, 30, 60}

const (
	// LevelSummaryFile is the per-level artifact filename.
	LevelSummaryFile = "cluster_level_summary.csv"
	// ClusterSummaryFile is the per-cluster artifact filename.
	ClusterSummaryFile = "cluster_cluster_summary.csv"
)

// Config carries all runtime settings for both the summarizer and the
// dashboard. It is built once in main and passed down explicitly; nothing
// reads the environment after construction.
type Config struct {
	DatabaseURL          string
	Levels               []int
	ClassificationFilter string
	OutputDir            string
	LevelCSVPath         string
	ClusterCSVPath       string
}

// FromEnv builds a Config from the process environment, applying defaults
// for everything except the database URL, which callers resolve separately
// (it is required for the summarizer, optional for the dashboard).
func FromEnv(logger *logrus.Logger) Config {
	cfg := Config{
		Levels:               ParseLevels(os.Getenv("CLUSTER_LEVELS"), logger),
		ClassificationFilter: strings.TrimSpace(os.Getenv("EA_CLASSIFICATION_FILTER")),
		OutputDir:            strings.TrimSpace(os.Getenv("CLUSTER_SUMMARY_CSV_DIR")),
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "."
	}
	cfg.LevelCSVPath = strings.TrimSpace(os.Getenv("CLUSTER_LEVEL_CSV"))
	if cfg.LevelCSVPath == "" {
		cfg.LevelCSVPath = filepath.Join(cfg.OutputDir, LevelSummaryFile)
	}
	cfg.ClusterCSVPath = strings.TrimSpace(os.Getenv("CLUSTER_CLUSTER_CSV"))
	if cfg.ClusterCSVPath == "" {
		cfg.ClusterCSVPath = filepath.Join(cfg.OutputDir, ClusterSummaryFile)
	}
	return cfg
}

// ParseLevels parses a comma-separated list of positive cluster levels.
// Empty or malformed input falls back to DefaultLevels.
func ParseLevels(raw string, logger *logrus.Logger) []int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return append([]int(nil), DefaultLevels...)
	}
	var levels []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n <= 0 {
			if logger != nil {
				logger.WithField("levels", raw).Warn("Malformed CLUSTER_LEVELS, using defaults")
			}
			return append([]int(nil), DefaultLevels...)
		}
		levels = append(levels, n)
	}
	if len(levels) == 0 {
		return append([]int(nil), DefaultLevels...)
	}
	return levels
}
