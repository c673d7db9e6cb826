package api

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/lox/climateapi/internal/daterange"
	"github.com/lox/climateapi/internal/models"
)

// Labels wrapping the v1.0 payloads. Clients of v1.0 key on these names.
const (
	labelPrecipitation = "Prcp"
	labelTemperature   = "Temp"
	labelStation       = "Station"
)

// shapeSeries collapses points into a date -> value mapping. When several
// stations report the same date the last row wins.
func shapeSeries(points []models.SeriesPoint) map[string]*float64 {
	out := make(map[string]*float64, len(points))
	for _, p := range points {
		out[p.Date.Format(daterange.Layout)] = p.Value
	}
	return out
}

// statsResponse field order is part of the wire format.
type statsResponse struct {
	TempMax float64 `json:"Temp_MAX"`
	TempMin float64 `json:"Temp_MIN"`
	TempAvg float64 `json:"Temp_AVG"`
}

func shapeStats(s models.StatSummary) statsResponse {
	return statsResponse{TempMax: s.Max, TempMin: s.Min, TempAvg: s.Avg}
}

// indexedStrings encodes as an object keyed by position ("0", "1", ...)
// in numeric order.
type indexedStrings []string

func (s indexedStrings) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, v := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('"')
		buf.WriteString(strconv.Itoa(i))
		buf.WriteString(`":`)
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		buf.Write(b)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func shapeStationIndex(stations []models.Station) indexedStrings {
	out := make(indexedStrings, len(stations))
	for i, st := range stations {
		out[i] = st.StationID
	}
	return out
}

type seriesEntry struct {
	Date  string   `json:"date"`
	Value *float64 `json:"value"`
}

// shapeSeriesList keeps every point, in order, duplicates included.
func shapeSeriesList(points []models.SeriesPoint) []seriesEntry {
	out := make([]seriesEntry, 0, len(points))
	for _, p := range points {
		out = append(out, seriesEntry{Date: p.Date.Format(daterange.Layout), Value: p.Value})
	}
	return out
}
