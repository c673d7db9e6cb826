package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

type table struct {
	Name    string
	Columns []string
}

// requiredSchema lists the tables and columns the queries depend on. The
// dataset is produced elsewhere; extra tables and columns are ignored.
var requiredSchema = []table{
	{
		Name:    "measurement",
		Columns: []string{"station", "date", "prcp", "tobs"},
	},
	{
		Name:    "station",
		Columns: []string{"station", "name", "latitude", "longitude", "elevation"},
	},
}

// Verify reflects the dataset schema and reports every missing table or
// column as an ErrSchemaMismatch.
func (s *Store) Verify(ctx context.Context) error {
	return s.WithSession(ctx, func(ss *Session) error {
		var missing []string
		for _, t := range requiredSchema {
			cols, err := ss.tableColumns(ctx, t.Name)
			if err != nil {
				return fmt.Errorf("reflect %s: %w", t.Name, err)
			}
			if len(cols) == 0 {
				missing = append(missing, "table "+t.Name)
				continue
			}
			for _, c := range t.Columns {
				if !cols[c] {
					missing = append(missing, t.Name+"."+c)
				}
			}
		}
		if len(missing) > 0 {
			sort.Strings(missing)
			return fmt.Errorf("%w: missing %s", ErrSchemaMismatch, strings.Join(missing, ", "))
		}
		return nil
	})
}

func (ss *Session) tableColumns(ctx context.Context, name string) (map[string]bool, error) {
	rows, err := ss.conn.QueryContext(ctx, "SELECT name FROM pragma_table_info(?)", name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var col string
		if err := rows.Scan(&col); err != nil {
			return nil, err
		}
		cols[strings.ToLower(col)] = true
	}
	return cols, rows.Err()
}
