package internal

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"seatcheck/internal/controllers"
	"seatcheck/internal/providers"
	"seatcheck/internal/statistic"
	"seatcheck/internal/statistic/interfaces"
	"seatcheck/internal/structures"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type App struct {
	WebServer *http.Server
	Logger    providers.Logger
}

// NewHandler assembles the chi tree: infrastructure endpoints on the root,
// API routes in an instrumented group.
func NewHandler(conf *structures.Config, router providers.RouterProviderInterface, healthController *controllers.HealthController, metrics providers.MetricsProviderInterface) http.Handler {
	mux := chi.NewRouter()
	mux.Get("/health", healthController.Health)
	if conf.Metrics.Enabled {
		mux.Handle("/metrics", promhttp.Handler())
	}

	mux.Group(func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return providers.MetricsMiddleware(metrics, next)
		})
		router.Mount(r)
	})
	return mux
}

// NewApp restores the snapshot, serves until SIGINT/SIGTERM and persists
// again on the way out.
func NewApp(handler http.Handler, scheduler interfaces.SchedulerInterface, fileManager *statistic.FileManager, conf *structures.Config, logger providers.Logger) (*App, error) {
	defer fileManager.Close()

	logger.Infof(providers.TypeApp, "Starting %s", conf.AppName)
	err := scheduler.Restore()
	if err != nil {
		logger.Errorf(providers.TypeApp, "Restore error: %s", err)
	}

	app := &App{
		WebServer: &http.Server{
			Addr:         conf.WebServer.Host + ":" + strconv.Itoa(conf.WebServer.Port),
			Handler:      handler,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Logger: logger,
	}

	scheduler.Init()

	serverErr := make(chan error, 1)
	go func() {
		logger.Infof(providers.TypeApp, "Listening HTTP clients on %s:%d", conf.WebServer.Host, conf.WebServer.Port)
		if err := app.WebServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Infof(providers.TypeApp, "Shutdown signal received")
	case err := <-serverErr:
		scheduler.Stop()
		return nil, fmt.Errorf("server error: %w", err)
	}

	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err = app.WebServer.Shutdown(ctx); err != nil {
		return nil, err
	}
	err = scheduler.Persist()
	if err != nil {
		return nil, err
	}
	logger.Infof(providers.TypeApp, "gracefully stopped")
	return app, nil
}
