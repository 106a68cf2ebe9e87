package www

import (
	"log/slog"
	"net/http"

	"github.com/icodeforyou/darksky-go/database"
	"github.com/icodeforyou/darksky-go/logging"
)

func NewLogHandler(logger *slog.Logger, db *database.Database) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		page := intOrDefault(r.URL, "page", 1)
		pageSize := intOrDefault(r.URL, "pageSize", 25)
		level := slog.LevelDebug.String()
		if l := r.URL.Query().Get("level"); l != "" {
			level = l
		}

		e, err := db.GetLogEntries(r.Context(), logging.LevelFromString(&level), page, pageSize)
		if err != nil {
			logger.Error("handling log request", slog.Any("error", err))
			writeError(logger, w, http.StatusInternalServerError, err)
			return
		}

		writeJSON(logger, w, http.StatusOK, struct {
			Page     int                    `json:"page"`
			PageSize int                    `json:"pageSize"`
			Entries  []database.LogEntryRow `json:"entries"`
		}{
			Page:     page,
			PageSize: pageSize,
			Entries:  e,
		})
	}
}
