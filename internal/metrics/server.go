package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gonzague/TV-Playlist-Cleaner/internal/log"
)

// Serve starts a debug listener exposing /metrics and /healthz until ctx is
// cancelled. addr empty disables it. Errors are logged, never fatal: the
// listener is a convenience for watching long validation runs, not a
// dependency of the pipeline.
func Serve(ctx context.Context, addr string) {
	if addr == "" {
		return
	}
	logger := log.WithComponent("metrics")

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	go func() {
		logger.Info().Str("addr", addr).Msg("metrics listener up")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn().Err(err).Msg("metrics listener failed")
		}
	}()
}
