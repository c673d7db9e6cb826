package models

import (
	"database/sql"
	"time"
)

// Station mirrors a row of the station table.
type Station struct {
	StationID string  `json:"station"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Elevation float64 `json:"elevation"`
}

// Measurement mirrors a row of the measurement table. Dates are UTC
// midnight; the table stores them as YYYY-MM-DD text.
type Measurement struct {
	StationID     string
	Date          time.Time
	Precipitation sql.NullFloat64
	Temperature   sql.NullFloat64
}

// SeriesPoint is one (date, value) pair projected from a measurement
// column. Value is nil when the stored value is NULL.
type SeriesPoint struct {
	Date  time.Time
	Value *float64
}

type StatSummary struct {
	Min float64
	Max float64
	Avg float64
}
