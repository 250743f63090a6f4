// Package server exposes a message store over the JSON API the client syncs against.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"msgsync/discovery"
	"msgsync/logging"
)

const (
	// APIRoot is the path prefix of the message API.
	APIRoot = "/api"

	shutdownTimeout = 5 * time.Second
)

// Options configures the HTTP handler.
type Options struct {
	Log      logrus.FieldLogger
	Registry *prometheus.Registry
	// WriteRate limits POST/DELETE requests per second across all clients. Zero disables the limit.
	WriteRate  float64
	WriteBurst int
}

// New builds the HTTP handler for store.
func New(store MessageStore, opts Options) (http.Handler, error) {
	if store == nil {
		return nil, errors.New("message store is required")
	}
	log := opts.Log
	if log == nil {
		log = logging.Discard()
	}
	registry := opts.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	metrics, err := NewMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	api := &apiService{store: store, log: log}

	r := mux.NewRouter()
	r.Use(loggingMiddleware(log), metricsMiddleware(metrics))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	a := r.PathPrefix(APIRoot).Subrouter()
	if opts.WriteRate > 0 {
		burst := opts.WriteBurst
		if burst <= 0 {
			burst = 1
		}
		a.Use(writeLimitMiddleware(rate.NewLimiter(rate.Limit(opts.WriteRate), burst), api))
	}
	a.HandleFunc("/messages", api.listMessages).Methods(http.MethodGet)
	a.HandleFunc("/messages/{id}", api.getMessage).Methods(http.MethodGet)
	a.HandleFunc("/messages", api.createMessage).Methods(http.MethodPost)
	a.HandleFunc("/messages/{id}", api.deleteMessage).Methods(http.MethodDelete)

	return r, nil
}

// RunConfig configures a listening server.
type RunConfig struct {
	Addr      string
	ServerID  string
	Advertise bool
	Options   Options
}

// Run serves store on cfg.Addr until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, store MessageStore, cfg RunConfig) error {
	log := cfg.Options.Log
	if log == nil {
		log = logging.Discard()
		cfg.Options.Log = log
	}

	handler, err := New(store, cfg.Options)
	if err != nil {
		return err
	}

	listener, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen on %q: %w", cfg.Addr, err)
	}

	srv := &http.Server{
		Handler:      handler,
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}

	if cfg.Advertise {
		advertiser, err := advertise(cfg, listener.Addr())
		if err != nil {
			log.WithError(err).Warn("mDNS advertisement failed")
		} else {
			defer advertiser.Stop()
			log.Info("mDNS advertisement running")
		}
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(listener)
	}()
	log.WithField("addr", listener.Addr().String()).Info("message server listening")

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("message server stopped")
	return nil
}

func advertise(cfg RunConfig, addr net.Addr) (*discovery.Advertiser, error) {
	_, portRaw, err := net.SplitHostPort(addr.String())
	if err != nil {
		return nil, err
	}
	port, err := strconv.Atoi(portRaw)
	if err != nil {
		return nil, err
	}

	instance, err := os.Hostname()
	if err != nil || instance == "" {
		instance = "msgsync"
	}

	return discovery.Advertise(discovery.Config{
		ServerID:     cfg.ServerID,
		InstanceName: instance,
		Port:         port,
		APIRoot:      APIRoot,
	})
}
