package api

import (
	"errors"
	"net/http"

	"github.com/lox/climateapi/internal/daterange"
	"github.com/lox/climateapi/internal/store"
)

type indexData struct {
	BaseURL      string
	ExampleStart string
	ExampleEnd   string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := indexData{
		BaseURL:      "http://" + r.Host,
		ExampleStart: "2015-08-23",
		ExampleEnd:   "2017-08-23",
	}

	// Examples span the two years before the latest observation when the
	// dataset has any.
	err := s.store.WithSession(r.Context(), func(ss *store.Session) error {
		latest, err := ss.LatestObservedDate(r.Context())
		if err != nil {
			return err
		}
		data.ExampleEnd = latest.Format(daterange.Layout)
		data.ExampleStart = latest.AddDate(-2, 0, 0).Format(daterange.Layout)
		return nil
	})
	if err != nil && !errors.Is(err, store.ErrEmptyDataset) {
		s.logger.Warn("index: latest date", "error", err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, "index.html", data); err != nil {
		s.logger.Error("render index", "error", err)
	}
}

type HealthStatus struct {
	Status       string `json:"status"`
	LatestDate   string `json:"latest_date,omitempty"`
	Measurements int64  `json:"measurements"`
	Stations     int64  `json:"stations"`
	Error        string `json:"error,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := HealthStatus{Status: "ok"}
	err := s.store.WithSession(r.Context(), func(ss *store.Session) error {
		counts, err := ss.Counts(r.Context())
		if err != nil {
			return err
		}
		health.Measurements = counts.Measurements
		health.Stations = counts.Stations

		latest, err := ss.LatestObservedDate(r.Context())
		if errors.Is(err, store.ErrEmptyDataset) {
			health.Status = "empty"
			return nil
		}
		if err != nil {
			return err
		}
		health.LatestDate = latest.Format(daterange.Layout)
		return nil
	})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, HealthStatus{Status: "error", Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, health)
}
