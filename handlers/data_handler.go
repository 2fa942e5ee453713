// handlers/data_handler.go
package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gewnthar/mncovid/models"
)

const (
	SeriesCases            = "cases"
	SeriesTests            = "tests"
	SeriesHospitalizations = "hospitalizations"
	SeriesDeaths           = "deaths"
)

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		h.logger.Error("health check failed", "error", err)
		h.respondWithJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":  "error",
			"message": "database connection error",
		})
		return
	}
	h.respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// asOf reads the optional as_of query parameter. Absent means no bound.
func asOf(r *http.Request) (models.Date, error) {
	s := r.URL.Query().Get("as_of")
	if s == "" {
		return models.Date{}, nil
	}
	d, err := models.ParseDate(s)
	if err != nil {
		return models.Date{}, errors.New("invalid 'as_of' query parameter, use YYYY-MM-DD")
	}
	return d, nil
}

func (h *Handler) StatewideLatest(w http.ResponseWriter, r *http.Request) {
	date, err := asOf(r)
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	row, err := h.store.LatestStatewideTotal(r.Context(), date)
	if err != nil {
		h.respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load statewide totals: %v", err))
		return
	}
	if row == nil {
		h.respondWithError(w, http.StatusNotFound, "No statewide totals stored")
		return
	}
	h.respondWithJSON(w, http.StatusOK, row)
}

func (h *Handler) CountiesLatest(w http.ResponseWriter, r *http.Request) {
	date, err := asOf(r)
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	rows, err := h.store.LatestCountyTests(r.Context(), date)
	if err != nil {
		h.respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load county totals: %v", err))
		return
	}
	if rows == nil {
		rows = []models.CountyLatest{}
	}
	h.respondWithJSON(w, http.StatusOK, rows)
}

// Timeseries serves one series as the scraper saw it on as_of.
// Expects GET /api/timeseries/{cases|tests|hospitalizations|deaths}?as_of=YYYY-MM-DD
func (h *Handler) Timeseries(w http.ResponseWriter, r *http.Request) {
	date, err := asOf(r)
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	series := r.PathValue("series")
	var rows any
	switch series {
	case SeriesCases:
		rows, err = nonNil(h.store.CasesBySampleDateAsOf(r.Context(), date))
	case SeriesTests:
		rows, err = nonNil(h.store.TestsAsOf(r.Context(), date))
	case SeriesHospitalizations:
		rows, err = nonNil(h.store.HospitalizationsAsOf(r.Context(), date))
	case SeriesDeaths:
		rows, err = nonNil(h.store.DeathsSeriesAsOf(r.Context(), date))
	default:
		h.respondWithError(w, http.StatusNotFound, fmt.Sprintf("Unknown series '%s'. Use 'cases', 'tests', 'hospitalizations', or 'deaths'.", series))
		return
	}
	if err != nil {
		h.respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load %s series: %v", series, err))
		return
	}
	h.respondWithJSON(w, http.StatusOK, models.TimeseriesResponse{Series: series, AsOf: date, Rows: rows})
}

// nonNil keeps empty results encoding as [] rather than null.
func nonNil[T any](rows []T, err error) ([]T, error) {
	if rows == nil {
		rows = []T{}
	}
	return rows, err
}
