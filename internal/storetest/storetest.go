// Package storetest builds throwaway climate datasets for tests. The
// schema matches the reflected hawaii.sqlite layout.
package storetest

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/lox/climateapi/internal/daterange"
	"github.com/lox/climateapi/internal/models"
	"github.com/lox/climateapi/internal/store"
)

const Schema = `
CREATE TABLE measurement (
    id INTEGER NOT NULL,
    station TEXT,
    date TEXT,
    prcp FLOAT,
    tobs FLOAT,
    PRIMARY KEY (id)
);

CREATE TABLE station (
    id INTEGER NOT NULL,
    station TEXT,
    name TEXT,
    latitude FLOAT,
    longitude FLOAT,
    elevation FLOAT,
    PRIMARY KEY (id)
);
`

// NewDB returns an in-memory database with the dataset schema. The pool is
// capped at one connection so every query sees the same memory database.
func NewDB(t testing.TB) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	t.Cleanup(func() { db.Close() })

	if _, err := db.Exec(Schema); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	return db
}

func New(t testing.TB) (*store.Store, *sql.DB) {
	t.Helper()
	db := NewDB(t)
	return store.New(db), db
}

// WriteFile creates a dataset file in a temp directory, lets seed populate
// it, and returns its path.
func WriteFile(t testing.TB, seed func(db *sql.DB)) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hawaii.sqlite")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("create dataset: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(Schema); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	if seed != nil {
		seed(db)
	}
	return path
}

func InsertStation(t testing.TB, db *sql.DB, st models.Station) {
	t.Helper()
	_, err := db.Exec(`INSERT INTO station (station, name, latitude, longitude, elevation) VALUES (?, ?, ?, ?, ?)`,
		st.StationID, st.Name, st.Latitude, st.Longitude, st.Elevation)
	if err != nil {
		t.Fatalf("insert station %s: %v", st.StationID, err)
	}
}

// InsertMeasurement stores m with its date in YYYY-MM-DD text form.
func InsertMeasurement(t testing.TB, db *sql.DB, m models.Measurement) {
	t.Helper()
	_, err := db.Exec(`INSERT INTO measurement (station, date, prcp, tobs) VALUES (?, ?, ?, ?)`,
		m.StationID, m.Date.Format(daterange.Layout), m.Precipitation, m.Temperature)
	if err != nil {
		t.Fatalf("insert measurement %s %s: %v", m.StationID, m.Date.Format(daterange.Layout), err)
	}
}

// Reading is shorthand for a measurement row. A nil pointer stores NULL.
func Reading(station, date string, prcp, tobs *float64) models.Measurement {
	d, err := daterange.Parse(date)
	if err != nil {
		panic(err)
	}
	m := models.Measurement{StationID: station, Date: d}
	if prcp != nil {
		m.Precipitation = sql.NullFloat64{Float64: *prcp, Valid: true}
	}
	if tobs != nil {
		m.Temperature = sql.NullFloat64{Float64: *tobs, Valid: true}
	}
	return m
}

func F(v float64) *float64 {
	return &v
}

// SeedThreeDays loads two stations and three days of readings, one with
// no precipitation value. Temperatures are 58, 62 and 70.
func SeedThreeDays(t testing.TB, db *sql.DB) {
	t.Helper()
	InsertStation(t, db, models.Station{StationID: "USC1", Name: "Station A", Latitude: 21.2716, Longitude: -157.8168, Elevation: 3})
	InsertStation(t, db, models.Station{StationID: "USC2", Name: "Station B", Latitude: 21.4234, Longitude: -157.8015, Elevation: 14.6})

	InsertMeasurement(t, db, Reading("USC1", "2017-08-21", F(0.02), F(58)))
	InsertMeasurement(t, db, Reading("USC1", "2017-08-22", nil, F(62)))
	InsertMeasurement(t, db, Reading("USC2", "2017-08-23", F(0.45), F(70)))
}
