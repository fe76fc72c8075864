package artifact

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/MattB543/ea-forum-clusters/pkg/models"
)

// ErrMissing is returned when a summary artifact is absent or empty. The
// dashboard surfaces it as a user-facing message directing the operator to
// run the summarizer, never as a crash.
var ErrMissing = errors.New("summary artifact missing")

var levelHeader = []string{
	"level", "post_count", "meta_posts", "proper_posts",
	"avg_base_score", "stddev_base_score", "avg_score", "stddev_score",
}

var clusterHeader = []string{
	"level", "cluster_id", "cluster_name",
	"post_count", "meta_posts", "proper_posts",
	"avg_base_score", "stddev_base_score", "avg_score", "stddev_score",
}

// WriteLevelSummaries persists the per-level artifact, replacing any prior
// file. The write goes to a temp file first and is renamed into place so a
// concurrent reader never observes a partial artifact.
func WriteLevelSummaries(path string, rows []models.LevelSummary) error {
	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		records = append(records, []string{
			strconv.Itoa(row.Level),
			strconv.Itoa(row.PostCount),
			strconv.Itoa(row.MetaPosts),
			strconv.Itoa(row.ProperPosts),
			formatFloat(row.AvgBaseScore),
			formatFloat(row.StddevBaseScore),
			formatFloat(row.AvgScore),
			formatFloat(row.StddevScore),
		})
	}
	return writeAtomic(path, levelHeader, records)
}

// WriteClusterSummaries persists the per-cluster artifact, replacing any
// prior file.
func WriteClusterSummaries(path string, rows []models.ClusterSummary) error {
	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		records = append(records, []string{
			strconv.Itoa(row.Level),
			strconv.Itoa(row.ClusterID),
			row.ClusterName,
			strconv.Itoa(row.PostCount),
			strconv.Itoa(row.MetaPosts),
			strconv.Itoa(row.ProperPosts),
			formatFloat(row.AvgBaseScore),
			formatFloat(row.StddevBaseScore),
			formatFloat(row.AvgScore),
			formatFloat(row.StddevScore),
		})
	}
	return writeAtomic(path, clusterHeader, records)
}

// ReadLevelSummaries loads the per-level artifact. A missing file or one
// with no data rows returns ErrMissing.
func ReadLevelSummaries(path string) ([]models.LevelSummary, error) {
	records, err := readRecords(path, levelHeader)
	if err != nil {
		return nil, err
	}

	rows := make([]models.LevelSummary, 0, len(records))
	for i, rec := range records {
		var row models.LevelSummary
		if row.Level, err = strconv.Atoi(rec[0]); err != nil {
			return nil, fmt.Errorf("%s row %d: bad level %q: %w", path, i+1, rec[0], err)
		}
		if row.PostCount, err = strconv.Atoi(rec[1]); err != nil {
			return nil, fmt.Errorf("%s row %d: bad post_count %q: %w", path, i+1, rec[1], err)
		}
		if row.MetaPosts, err = strconv.Atoi(rec[2]); err != nil {
			return nil, fmt.Errorf("%s row %d: bad meta_posts %q: %w", path, i+1, rec[2], err)
		}
		if row.ProperPosts, err = strconv.Atoi(rec[3]); err != nil {
			return nil, fmt.Errorf("%s row %d: bad proper_posts %q: %w", path, i+1, rec[3], err)
		}
		row.AvgBaseScore = parseFloat(rec[4])
		row.StddevBaseScore = parseFloat(rec[5])
		row.AvgScore = parseFloat(rec[6])
		row.StddevScore = parseFloat(rec[7])
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s has no rows: %w", path, ErrMissing)
	}
	return rows, nil
}

// ReadClusterSummaries loads the per-cluster artifact. A missing file
// returns ErrMissing; an empty one is allowed (a dataset can legitimately
// have levels but no clusters only when no level is supported, which the
// level artifact already reports).
func ReadClusterSummaries(path string) ([]models.ClusterSummary, error) {
	records, err := readRecords(path, clusterHeader)
	if err != nil {
		return nil, err
	}

	rows := make([]models.ClusterSummary, 0, len(records))
	for i, rec := range records {
		var row models.ClusterSummary
		if row.Level, err = strconv.Atoi(rec[0]); err != nil {
			return nil, fmt.Errorf("%s row %d: bad level %q: %w", path, i+1, rec[0], err)
		}
		if row.ClusterID, err = strconv.Atoi(rec[1]); err != nil {
			return nil, fmt.Errorf("%s row %d: bad cluster_id %q: %w", path, i+1, rec[1], err)
		}
		row.ClusterName = rec[2]
		if row.PostCount, err = strconv.Atoi(rec[3]); err != nil {
			return nil, fmt.Errorf("%s row %d: bad post_count %q: %w", path, i+1, rec[3], err)
		}
		if row.MetaPosts, err = strconv.Atoi(rec[4]); err != nil {
			return nil, fmt.Errorf("%s row %d: bad meta_posts %q: %w", path, i+1, rec[4], err)
		}
		if row.ProperPosts, err = strconv.Atoi(rec[5]); err != nil {
			return nil, fmt.Errorf("%s row %d: bad proper_posts %q: %w", path, i+1, rec[5], err)
		}
		row.AvgBaseScore = parseFloat(rec[6])
		row.StddevBaseScore = parseFloat(rec[7])
		row.AvgScore = parseFloat(rec[8])
		row.StddevScore = parseFloat(rec[9])
		rows = append(rows, row)
	}
	return rows, nil
}

func writeAtomic(path string, header []string, records [][]string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create artifact directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp artifact: %w", err)
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write artifact header: %w", err)
	}
	if err := w.WriteAll(records); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write artifact rows: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to flush artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp artifact: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace artifact %s: %w", path, err)
	}
	return nil
}

func readRecords(path string, header []string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, ErrMissing)
		}
		return nil, fmt.Errorf("failed to open artifact %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(header)
	all, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse artifact %s: %w", path, err)
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("%s is empty: %w", path, ErrMissing)
	}
	// First record is the header
	return all[1:], nil
}

// formatFloat serializes with full precision; rounding is a presentation
// concern, not persisted.
func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'g', -1, 64)
}

func parseFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
