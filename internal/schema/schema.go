package schema

import (
	"context"
	"fmt"

	"github.com/MattB543/ea-forum-clusters/pkg/database"
	"github.com/MattB543/ea-forum-clusters/pkg/logging"
)

const (
	// Table is the source-of-truth posts table.
	Table = "fellowship_mvp"
	// ClassificationColumn holds the optional EA_META/EA_PROPER label.
	ClassificationColumn = "ea_classification"
)

// LevelColumns is the validated column mapping for one cluster level.
// Queries are built only from these resolved names; the id column is known
// to exist and HasName reports whether the optional name column does.
type LevelColumns struct {
	Level      int
	IDColumn   string
	NameColumn string
	HasName    bool
}

// IDColumn returns the cluster-id column name for a level.
func IDColumn(level int) string {
	return fmt.Sprintf("ea_cluster_%d", level)
}

// NameColumn returns the optional cluster-name column name for a level.
func NameColumn(level int) string {
	return fmt.Sprintf("ea_cluster_%d_name", level)
}

// NameExpr returns the SELECT fragment producing cluster_name, falling back
// to "Cluster {id}" when the name column is absent or NULL.
func (lc LevelColumns) NameExpr() string {
	if lc.HasName {
		return fmt.Sprintf("COALESCE(%s, 'Cluster ' || %s::text) AS cluster_name", lc.NameColumn, lc.IDColumn)
	}
	return fmt.Sprintf("('Cluster ' || %s::text) AS cluster_name", lc.IDColumn)
}

// ColumnExists probes information_schema for a column on a table.
func ColumnExists(ctx context.Context, db database.PostgresConn, table, column string) (bool, error) {
	row := db.QueryRowContext(ctx, `
		SELECT 1
		FROM information_schema.columns
		WHERE table_name = $1 AND column_name = $2
		LIMIT 1`, table, column)

	var one int
	if err := row.Scan(&one); err != nil {
		if err == database.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("failed to probe column %s.%s: %w", table, column, err)
	}
	return true, nil
}

// ResolveLevel probes the schema for one level's columns. The second return
// is false when the level's id column does not exist (the level is
// unsupported for this dataset, not an error).
func ResolveLevel(ctx context.Context, db database.PostgresConn, level int) (LevelColumns, bool, error) {
	lc := LevelColumns{
		Level:      level,
		IDColumn:   IDColumn(level),
		NameColumn: NameColumn(level),
	}

	ok, err := ColumnExists(ctx, db, Table, lc.IDColumn)
	if err != nil {
		return LevelColumns{}, false, err
	}
	if !ok {
		return LevelColumns{}, false, nil
	}

	lc.HasName, err = ColumnExists(ctx, db, Table, lc.NameColumn)
	if err != nil {
		return LevelColumns{}, false, err
	}
	return lc, true, nil
}

// ResolveLevels resolves every requested level, logging and skipping the
// unsupported ones.
func ResolveLevels(ctx context.Context, db database.PostgresConn, levels []int, logger logging.Logger) ([]LevelColumns, error) {
	resolved := make([]LevelColumns, 0, len(levels))
	for _, level := range levels {
		lc, ok, err := ResolveLevel(ctx, db, level)
		if err != nil {
			return nil, err
		}
		if !ok {
			if logger != nil {
				logger.WithFields(logging.Fields{
					"level":  level,
					"column": IDColumn(level),
				}).Warn("Cluster columns not found, skipping level")
			}
			continue
		}
		resolved = append(resolved, lc)
	}
	return resolved, nil
}

// HasClassification reports whether the classification column exists.
func HasClassification(ctx context.Context, db database.PostgresConn) (bool, error) {
	return ColumnExists(ctx, db, Table, ClassificationColumn)
}

// ClassificationValues returns the distinct non-NULL classification labels
// in sorted order, or nil when the column does not exist.
func ClassificationValues(ctx context.Context, db database.PostgresConn) ([]string, error) {
	ok, err := HasClassification(ctx, db)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	rows, err := db.QueryContext(ctx, `
		SELECT DISTINCT ea_classification
		FROM fellowship_mvp
		WHERE ea_classification IS NOT NULL
		ORDER BY ea_classification`)
	if err != nil {
		return nil, fmt.Errorf("failed to list classification values: %w", err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan classification value: %w", err)
		}
		values = append(values, v)
	}
	return values, rows.Err()
}
