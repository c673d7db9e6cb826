package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lox/climateapi/internal/daterange"
	"github.com/lox/climateapi/internal/models"
	"github.com/lox/climateapi/internal/store"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, kind, msg := http.StatusInternalServerError, "internal", "internal server error"
	switch {
	case errors.Is(err, daterange.ErrInvalidDateFormat):
		status, kind, msg = http.StatusBadRequest, "invalid_date_format", err.Error()
	case errors.Is(err, store.ErrEmptyDataset):
		status, kind, msg = http.StatusNotFound, "empty_dataset", err.Error()
	case errors.Is(err, store.ErrNoMatchingRows):
		status, kind, msg = http.StatusNotFound, "no_matching_rows", err.Error()
	default:
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, errorResponse{Error: kind, Message: msg})
}

// trailingYear loads col for the year ending at the latest observation.
func (s *Server) trailingYear(ctx context.Context, col store.Column) ([]models.SeriesPoint, error) {
	var points []models.SeriesPoint
	err := s.store.WithSession(ctx, func(ss *store.Session) error {
		latest, err := ss.LatestObservedDate(ctx)
		if err != nil {
			return err
		}
		points, err = ss.FilteredSeries(ctx, col, daterange.TrailingYear(latest))
		return err
	})
	return points, err
}

func (s *Server) stations(ctx context.Context) ([]models.Station, error) {
	var stations []models.Station
	err := s.store.WithSession(ctx, func(ss *store.Session) error {
		var err error
		stations, err = ss.Stations(ctx)
		return err
	})
	return stations, err
}

func (s *Server) handlePrecipitation(w http.ResponseWriter, r *http.Request) {
	points, err := s.trailingYear(r.Context(), store.ColumnPrecipitation)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]map[string]*float64{labelPrecipitation: shapeSeries(points)})
}

func (s *Server) handleTobs(w http.ResponseWriter, r *http.Request) {
	points, err := s.trailingYear(r.Context(), store.ColumnTemperature)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]map[string]*float64{labelTemperature: shapeSeries(points)})
}

func (s *Server) handleStations(w http.ResponseWriter, r *http.Request) {
	stations, err := s.stations(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]indexedStrings{labelStation: shapeStationIndex(stations)})
}

// handleStats serves /api/v1.0/{start} and /api/v1.0/{start}/{end}.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	rng, err := daterange.Explicit(chi.URLParam(r, "start"), chi.URLParam(r, "end"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var summary models.StatSummary
	err = s.store.WithSession(r.Context(), func(ss *store.Session) error {
		var err error
		summary, err = ss.AggregateStats(r.Context(), rng)
		return err
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, shapeStats(summary))
}

func (s *Server) handleStationsList(w http.ResponseWriter, r *http.Request) {
	stations, err := s.stations(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if stations == nil {
		stations = []models.Station{}
	}
	writeJSON(w, http.StatusOK, stations)
}

func (s *Server) handleSeriesList(col store.Column) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		points, err := s.trailingYear(r.Context(), col)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, shapeSeriesList(points))
	}
}
