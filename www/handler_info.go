package www

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/icodeforyou/darksky-go/config"
)

type Info struct {
	Version   string    `json:"version"`
	StartedAt time.Time `json:"startedAt"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Lang      string    `json:"lang"`
	Units     string    `json:"units"`
	RunAt     string    `json:"runAt"`
}

func NewInfo(version string, cnfg config.AppConfigDarkSky) Info {
	return Info{
		Version:   version,
		StartedAt: time.Now(),
		Latitude:  cnfg.Latitude,
		Longitude: cnfg.Longitude,
		Lang:      cnfg.GetLang(),
		Units:     cnfg.GetUnits(),
		RunAt:     cnfg.RunAt,
	}
}

func NewInfoHandler(logger *slog.Logger, info Info) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(logger, w, http.StatusOK, info)
	}
}
