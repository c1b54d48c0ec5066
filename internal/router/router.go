package router

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/okzk/sdnotify"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"node-metrics/internal/config"
	"node-metrics/internal/domain"
	"node-metrics/internal/endpoints"
	"node-metrics/internal/telemetry"
	"node-metrics/internal/util"
)

const RequestIDHeader = "X-Request-ID"

func NewRouter(metricStore domain.MetricStore, webSlogger *util.MetricsLogger, collectors *telemetry.Collectors) *mux.Router {
	r := mux.NewRouter()

	addRoutes(r, metricStore, webSlogger, collectors)

	// mux runs r.Use middleware for matched routes only, so the fallback
	// handlers get the same chain explicitly.
	observe := func(h http.Handler) http.Handler {
		if collectors != nil {
			h = collectors.Middleware(h)
		}
		return requestIDMiddleware(loggingMiddleware(webSlogger)(h))
	}

	r.NotFoundHandler = observe(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		endpoints.APIResponse{}.WriteErrorResponseWithStatusCode(w, endpoints.ErrRouteNotFound, http.StatusNotFound)
	}))
	r.MethodNotAllowedHandler = observe(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		endpoints.APIResponse{}.WriteErrorResponseWithStatusCode(w, endpoints.ErrMethodNotAllowed, http.StatusMethodNotAllowed)
	}))

	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(webSlogger))
	if collectors != nil {
		r.Use(collectors.Middleware)
	}

	return r
}

func addRoutes(r *mux.Router, metricStore domain.MetricStore, webSlogger *util.MetricsLogger, collectors *telemetry.Collectors) {

	metricsHandler := &endpoints.Metrics{}
	metricsHandler.Init(metricStore, webSlogger, collectors)

	r.HandleFunc("/metrics", metricsHandler.ListMetricsHandler).Methods("GET")
	r.HandleFunc("/metrics", metricsHandler.IngestMetricHandler).Methods("POST")
	r.HandleFunc("/metrics/health", metricsHandler.HealthHandler).Methods("GET")
	r.HandleFunc("/health", metricsHandler.HealthHandler).Methods("GET")
}

func NewServer(addr string, handler http.Handler, cfg config.HTTP) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}

// Run serves the API, and the telemetry endpoint when configured, until ctx
// is cancelled or SIGINT/SIGTERM arrives, then shuts both servers down.
func Run(ctx context.Context, cfg *config.Config, metricStore domain.MetricStore, webSlogger *util.MetricsLogger, collectors *telemetry.Collectors) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	servers := []*http.Server{
		NewServer(cfg.HTTP.Address, NewRouter(metricStore, webSlogger, collectors), cfg.HTTP),
	}
	if cfg.Telemetry.Address != "" && collectors != nil {
		telemetryMux := http.NewServeMux()
		telemetryMux.Handle("/metrics", collectors.Handler())
		servers = append(servers, NewServer(cfg.Telemetry.Address, telemetryMux, cfg.HTTP))
	}

	listeners := make([]net.Listener, 0, len(servers))
	for _, server := range servers {
		ln, err := net.Listen("tcp", server.Addr)
		if err != nil {
			for _, l := range listeners {
				l.Close()
			}
			return errors.Wrapf(err, "cannot listen on %s", server.Addr)
		}
		listeners = append(listeners, ln)
	}

	g, gctx := errgroup.WithContext(ctx)

	for i, server := range servers {
		server := server
		ln := listeners[i]
		g.Go(func() error {
			log.Printf("Listening on %s", ln.Addr())
			webSlogger.LogEvent(util.LOG_LEVEL_INFO, "Listening on", ln.Addr().String())

			if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return errors.Wrapf(err, "server on %s failed", server.Addr)
			}
			return nil
		})
	}

	_ = sdnotify.Ready()

	g.Go(func() error {
		<-gctx.Done()
		log.Println("Shutting down server...")
		_ = sdnotify.Stopping()

		var firstErr error
		for _, server := range servers {
			if err := gracefulShutdown(server, cfg.HTTP.ShutdownTimeout); err != nil && firstErr == nil {
				firstErr = err
			}
		}

		if firstErr != nil {
			log.Printf("Server stopped with error: %s", firstErr.Error())
		} else {
			log.Println("Server stopped gracefully.")
		}
		return firstErr
	})

	return g.Wait()
}

func gracefulShutdown(server *http.Server, maximumTime time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), maximumTime)
	defer cancel()

	return server.Shutdown(ctx)
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
			r.Header.Set(RequestIDHeader, id)
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

func loggingMiddleware(logger *util.MetricsLogger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := telemetry.NewStatusRecorder(w)

			next.ServeHTTP(rw, r)

			logger.LogFields(util.LOG_LEVEL_INFO, "Request",
				zap.String("method", r.Method),
				zap.String("uri", r.RequestURI),
				zap.Int("status", rw.Status),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", r.Header.Get(RequestIDHeader)),
			)
		})
	}
}
