package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/maxpoletaev/siloring/internal/telemetry"
)

func CreateRouter(oracle Oracle, health Health) *chi.Mux {
	r := chi.NewRouter()
	newSilosAPI(oracle).Bind(r)
	newHealthAPI(oracle, health).Bind(r)
	r.Handle("/metrics", telemetry.MetricsHandler())

	return r
}

// StartServer serves the admin API until ctx is cancelled.
func StartServer(ctx context.Context, handler http.Handler, logger kitlog.Logger, bindAddr string) error {
	server := &http.Server{
		Addr:              bindAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			level.Error(logger).Log("msg", "failed to shutdown server", "err", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}
