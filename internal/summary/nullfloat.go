package summary

import "database/sql"

// nullFloat wraps sql.NullFloat64 with a pointer conversion for the
// nullable statistic fields.
type nullFloat struct {
	sql.NullFloat64
}

func (n nullFloat) ptr() *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}
