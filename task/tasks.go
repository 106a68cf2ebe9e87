package task

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/icodeforyou/darksky-go/config"
	"github.com/icodeforyou/darksky-go/darksky"
	"github.com/icodeforyou/darksky-go/database"
	"github.com/robfig/cron/v3"
)

type Tasks struct {
	cron            *cron.Cron
	cnfg            *config.AppConfig
	db              *database.Database
	logger          *slog.Logger
	listeners       []Listener
	mutex           sync.RWMutex
	ForecastTask    func()
	MaintenanceTask func()
}

func NewTasks(db *database.Database, fetcher darksky.Fetcher, cnfg *config.AppConfig) *Tasks {
	logger := slog.Default().With("module", "tasks")
	t := &Tasks{
		cron:   cron.New(),
		cnfg:   cnfg,
		db:     db,
		logger: logger,
	}
	t.ForecastTask = NewForecastTask(logger.With(slog.String("task", "forecast")), db, cnfg.DarkSky, fetcher, t.notify)
	t.MaintenanceTask = NewMaintenanceTask(logger.With(slog.String("task", "maintenance")), db, cnfg)
	return t
}

// OnForecast registers a listener for the current conditions of every new forecast.
func (t *Tasks) OnForecast(l Listener) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.listeners = append(t.listeners, l)
}

func (t *Tasks) notify(c Conditions) {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	for _, l := range t.listeners {
		l(c)
	}
}

func (t *Tasks) Run() {
	_, err := t.cron.AddFunc(t.cnfg.DarkSky.RunAt, t.ForecastTask)
	if err != nil {
		panic(err)
	}
	_, err = t.cron.AddFunc("30 2 * * *", t.MaintenanceTask)
	if err != nil {
		panic(err)
	}
	t.cron.Start()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if needImmediateForecastUpdate(ctx, t.db) {
		t.logger.Info("need an immediate update of forecast")
		go t.ForecastTask()
	} else {
		t.logger.Debug("no need for immediate update of forecast")
	}
}

func (t *Tasks) Stop() context.Context {
	return t.cron.Stop()
}
