package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kilianp07/drt/infra/logger"
)

// Route mounts an extra handler beside /metrics.
type Route struct {
	Pattern string
	Handler http.Handler
}

// NewServeMux returns a dedicated mux exposing /metrics and the given routes.
func NewServeMux(routes ...Route) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	for _, r := range routes {
		mux.Handle(r.Pattern, r.Handler)
	}
	return mux
}

// StartPromServer serves /metrics and the given routes on addr until the
// provided context is canceled.
func StartPromServer(ctx context.Context, addr string, routes ...Route) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return Serve(ctx, ln, routes...)
}

// Serve is StartPromServer on an existing listener.
func Serve(ctx context.Context, ln net.Listener, routes ...Route) error {
	log := logger.New("metrics-http")
	srv := &http.Server{Handler: NewServeMux(routes...), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Errorf("prom server shutdown: %v", err)
		}
		cancel()
	}()
	log.Infof("serving metrics on %s", ln.Addr())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
