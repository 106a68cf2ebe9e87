package www

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/icodeforyou/darksky-go/config"
	"github.com/icodeforyou/darksky-go/database"
	"github.com/icodeforyou/darksky-go/task"
)

type Server struct {
	logger *slog.Logger
	config config.AppConfigApi
	db     *database.Database
	hub    *Hub
	mux    *http.ServeMux
}

func StartServer(db *database.Database, tasks *task.Tasks, cnfg *config.AppConfig, version string) *Server {
	logger := slog.Default().With("module", "www")

	s := &Server{
		logger: logger,
		config: cnfg.Api,
		db:     db,
		hub:    NewHub(logger),
		mux:    http.NewServeMux(),
	}

	go s.hub.Run()

	tasks.OnForecast(s.broadcast)

	logReqMW := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s.logger.Debug("http request",
				slog.String("method", r.Method),
				slog.String("url", r.URL.String()),
				slog.String("remoteAddr", r.RemoteAddr))
			next.ServeHTTP(w, r)
		})
	}

	s.mux.Handle("/api/currently", logReqMW(NewCurrentlyHandler(
		logger.With(slog.String("handler", "currently")),
		s.db)))

	s.mux.Handle("/api/hourly", logReqMW(NewHourlyHandler(
		logger.With(slog.String("handler", "hourly")),
		s.db)))

	s.mux.Handle("/api/daily", logReqMW(NewDailyHandler(
		logger.With(slog.String("handler", "daily")),
		s.db)))

	s.mux.Handle("/api/fetch", logReqMW(NewFetchHandler(tasks.ForecastTask)))

	s.mux.Handle("/api/log", logReqMW(NewLogHandler(
		logger.With(slog.String("handler", "log")),
		s.db)))

	s.mux.Handle("/api/info", logReqMW(NewInfoHandler(
		logger.With(slog.String("handler", "info")),
		NewInfo(version, cnfg.DarkSky))))

	s.mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		name := r.Header.Get("User-Agent")
		client, err := NewClient(s.hub, w, r, name)
		if err != nil {
			s.logger.Error("new websocket client failed", slog.Any("error", err))
			return
		}
		s.hub.Register <- client
		go client.WritePump()
		go client.ReadPump()
	})

	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) broadcast(c task.Conditions) {
	buf, err := json.Marshal(c)
	if err != nil {
		s.logger.Error("encoding conditions for websocket clients", slog.Any("error", err))
		return
	}
	s.hub.Broadcast <- buf
}

func (s *Server) Run(ctx context.Context) {
	s.logger.Info("starting server...", "port", s.config.Port)
	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.config.Address, s.config.Port),
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErrors := make(chan error, 1)

	go func() {
		srvErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-srvErrors:
		if err != nil && err != http.ErrServerClosed {
			s.logger.Error("server error", slog.Any("error", err))
		}

	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("server shutdown failed", slog.Any("error", err))
		}
	}
}
