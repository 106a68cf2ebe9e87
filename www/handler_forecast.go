package www

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/icodeforyou/darksky-go/database"
	"github.com/icodeforyou/darksky-go/task"
)

func NewCurrentlyHandler(logger *slog.Logger, db *database.Database) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		fetch, err := db.GetLatestFetch(r.Context())
		if errors.Is(err, database.ErrNotFound) {
			writeError(logger, w, http.StatusNotFound, err)
			return
		}
		if err != nil {
			logger.Error("handling currently request", slog.Any("error", err))
			writeError(logger, w, http.StatusInternalServerError, err)
			return
		}

		points, err := db.GetPoints(r.Context(), fetch.ID, database.BlockCurrently)
		if err != nil {
			logger.Error("handling currently request", slog.Any("error", err))
			writeError(logger, w, http.StatusInternalServerError, err)
			return
		}
		if len(points) == 0 {
			writeError(logger, w, http.StatusNotFound, errors.New("latest forecast has no current conditions"))
			return
		}

		alerts, err := db.GetAlerts(r.Context(), fetch.ID)
		if err != nil {
			logger.Error("handling currently request", slog.Any("error", err))
			writeError(logger, w, http.StatusInternalServerError, err)
			return
		}

		writeJSON(logger, w, http.StatusOK, task.NewConditions(fetch, points[0], alerts))
	}
}

func NewHourlyHandler(logger *slog.Logger, db *database.Database) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		from := time.Now().Truncate(time.Hour).Add(-time.Duration(intOrDefault(r.URL, "hours", 24)) * time.Hour)
		points, err := db.GetHourlyFrom(r.Context(), from)
		if err != nil {
			logger.Error("handling hourly request", slog.Any("error", err))
			writeError(logger, w, http.StatusInternalServerError, err)
			return
		}

		writeJSON(logger, w, http.StatusOK, points)
	}
}

func NewDailyHandler(logger *slog.Logger, db *database.Database) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		fetch, err := db.GetLatestFetch(r.Context())
		if errors.Is(err, database.ErrNotFound) {
			writeError(logger, w, http.StatusNotFound, err)
			return
		}
		if err != nil {
			logger.Error("handling daily request", slog.Any("error", err))
			writeError(logger, w, http.StatusInternalServerError, err)
			return
		}

		points, err := db.GetPoints(r.Context(), fetch.ID, database.BlockDaily)
		if err != nil {
			logger.Error("handling daily request", slog.Any("error", err))
			writeError(logger, w, http.StatusInternalServerError, err)
			return
		}

		writeJSON(logger, w, http.StatusOK, points)
	}
}

// NewFetchHandler runs the forecast task in the background.
func NewFetchHandler(task func()) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		go task()
		w.WriteHeader(http.StatusAccepted)
	}
}
