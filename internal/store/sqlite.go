package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lox/climateapi/internal/daterange"
	"github.com/lox/climateapi/internal/models"
)

// Column names a measurement value that can be projected into a series.
type Column string

const (
	ColumnPrecipitation Column = "prcp"
	ColumnTemperature   Column = "tobs"
)

func (c Column) valid() bool {
	return c == ColumnPrecipitation || c == ColumnTemperature
}

// Precipitation rows without a value are not part of the series;
// temperature rows are kept and carry a nil value.
func (c Column) dropsNulls() bool {
	return c == ColumnPrecipitation
}

// rangeClause returns the WHERE fragment and arguments selecting dates
// inside r. Dates are compared as YYYY-MM-DD text.
func rangeClause(r daterange.Range) (string, []any) {
	if r.OpenEnded() {
		return "date >= ?", []any{r.StartText()}
	}
	return "date >= ? AND date <= ?", []any{r.StartText(), r.EndText()}
}

// LatestObservedDate returns the most recent measurement date.
func (ss *Session) LatestObservedDate(ctx context.Context) (t time.Time, err error) {
	defer func(start time.Time) { observe("latest_date", start, err) }(time.Now())

	var latest sql.NullString
	if err := ss.conn.QueryRowContext(ctx, `SELECT MAX(date) FROM measurement`).Scan(&latest); err != nil {
		return time.Time{}, fmt.Errorf("latest date: %w", err)
	}
	if !latest.Valid {
		return time.Time{}, ErrEmptyDataset
	}
	t, err = daterange.Parse(latest.String)
	if err != nil {
		return time.Time{}, fmt.Errorf("latest date: %w", err)
	}
	return t, nil
}

// FilteredSeries returns (date, value) pairs for col within r, ordered by
// date. Rows sharing a date keep their table order.
func (ss *Session) FilteredSeries(ctx context.Context, col Column, r daterange.Range) (points []models.SeriesPoint, err error) {
	if !col.valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, col)
	}
	defer func(start time.Time) { observe("series_"+string(col), start, err) }(time.Now())

	where, args := rangeClause(r)
	if col.dropsNulls() {
		where += " AND " + string(col) + " IS NOT NULL"
	}
	rows, err := ss.conn.QueryContext(ctx,
		`SELECT date, `+string(col)+` FROM measurement WHERE `+where+` ORDER BY date ASC, rowid ASC`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("query %s series: %w", col, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			date  string
			value sql.NullFloat64
		)
		if err := rows.Scan(&date, &value); err != nil {
			return nil, fmt.Errorf("scan %s series: %w", col, err)
		}
		d, err := daterange.Parse(date)
		if err != nil {
			return nil, fmt.Errorf("%s series row: %w", col, err)
		}
		p := models.SeriesPoint{Date: d}
		if value.Valid {
			v := value.Float64
			p.Value = &v
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// AggregateStats computes min, max and mean temperature over r. A range
// with no temperature readings yields ErrNoMatchingRows.
func (ss *Session) AggregateStats(ctx context.Context, r daterange.Range) (summary models.StatSummary, err error) {
	defer func(start time.Time) { observe("aggregate_stats", start, err) }(time.Now())

	where, args := rangeClause(r)
	var (
		count        int64
		lo, hi, mean sql.NullFloat64
	)
	err = ss.conn.QueryRowContext(ctx,
		`SELECT COUNT(tobs), MIN(tobs), MAX(tobs), AVG(tobs) FROM measurement WHERE `+where,
		args...).Scan(&count, &lo, &hi, &mean)
	if err != nil {
		return models.StatSummary{}, fmt.Errorf("aggregate stats: %w", err)
	}
	if count == 0 || !mean.Valid {
		return models.StatSummary{}, fmt.Errorf("%w: %s", ErrNoMatchingRows, r)
	}
	return models.StatSummary{Min: lo.Float64, Max: hi.Float64, Avg: mean.Float64}, nil
}

// Stations returns every station in table order.
func (ss *Session) Stations(ctx context.Context) (stations []models.Station, err error) {
	defer func(start time.Time) { observe("stations", start, err) }(time.Now())

	rows, err := ss.conn.QueryContext(ctx, `
		SELECT station, COALESCE(name, ''), COALESCE(latitude, 0), COALESCE(longitude, 0), COALESCE(elevation, 0)
		FROM station
		ORDER BY rowid ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query stations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var st models.Station
		if err := rows.Scan(&st.StationID, &st.Name, &st.Latitude, &st.Longitude, &st.Elevation); err != nil {
			return nil, fmt.Errorf("scan station: %w", err)
		}
		stations = append(stations, st)
	}
	return stations, rows.Err()
}

type Counts struct {
	Measurements int64
	Stations     int64
}

func (ss *Session) Counts(ctx context.Context) (c Counts, err error) {
	defer func(start time.Time) { observe("counts", start, err) }(time.Now())

	err = ss.conn.QueryRowContext(ctx,
		`SELECT (SELECT COUNT(*) FROM measurement), (SELECT COUNT(*) FROM station)`,
	).Scan(&c.Measurements, &c.Stations)
	if err != nil {
		return Counts{}, fmt.Errorf("count rows: %w", err)
	}
	return c, nil
}
