package task

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/icodeforyou/darksky-go/config"
	"github.com/icodeforyou/darksky-go/darksky"
	"github.com/icodeforyou/darksky-go/database"
)

// staleAfter is how old the newest archived fetch may be before a fetch is
// made right away on start.
const staleAfter = time.Hour

func NewForecastTask(
	logger *slog.Logger,
	db *database.Database,
	cnfg config.AppConfigDarkSky,
	fetcher darksky.Fetcher,
	notify func(Conditions),
) func() {
	return func() {
		runForecastTask(logger, db, cnfg, fetcher, notify)
	}
}

func runForecastTask(
	logger *slog.Logger,
	db *database.Database,
	cnfg config.AppConfigDarkSky,
	fetcher darksky.Fetcher,
	notify func(Conditions),
) {
	logger.Debug("running forecast task...")

	ctx, cancel := context.WithTimeout(context.Background(), cnfg.GetTimeout()+10*time.Second)
	defer cancel()

	opts := append(cnfg.Options(), darksky.WithFetcher(fetcher), darksky.WithLogger(logger))
	f, err := darksky.NewForecast(ctx, cnfg.Key, cnfg.Latitude, cnfg.Longitude, opts...)
	if err != nil {
		var se *darksky.StatusError
		if errors.As(err, &se) {
			logger.Error("forecast task error", slog.Int("status", se.StatusCode), slog.Any("error", err))
		} else {
			logger.Error("forecast task error", slog.Any("error", err))
		}
		return
	}

	a, err := toArchive(f, time.Now())
	if err != nil {
		logger.Error("forecast task error", slog.String("forecast", f.String()), slog.Any("error", err))
		return
	}

	if err := db.SaveForecast(ctx, a.fetch, a.points, a.alerts); err != nil {
		logger.Error("forecast task error", slog.Any("error", err))
		return
	}

	if currently, ok := a.currently.Get(); ok && notify != nil {
		notify(NewConditions(a.fetch, currently, a.alerts))
	}

	logger.Info("forecast task done",
		slog.String("fetchId", a.fetch.ID.String()),
		slog.Int("noOfPoints", len(a.points)),
		slog.Int("noOfAlerts", len(a.alerts)))
}

func needImmediateForecastUpdate(ctx context.Context, db *database.Database) bool {
	latest, err := db.GetLatestFetch(ctx)
	if err != nil {
		return true
	}
	return time.Since(latest.FetchedAt) > staleAfter
}
