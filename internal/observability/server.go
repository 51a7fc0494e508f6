package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	metricsPath       = "/metrics"
	readHeaderTimeout = 5 * time.Second
	serverStopTimeout = 2 * time.Second

	httpStatusServerError = 500
)

// statusWriter captures the response status code.
type statusWriter struct {
	http.ResponseWriter

	statusCode int
	written    bool
}

func (sw *statusWriter) WriteHeader(code int) {
	if !sw.written {
		sw.statusCode = code
		sw.written = true
	}

	sw.ResponseWriter.WriteHeader(code)
}

func (sw *statusWriter) Write(buf []byte) (int, error) {
	if !sw.written {
		sw.statusCode = http.StatusOK
		sw.written = true
	}

	n, err := sw.ResponseWriter.Write(buf)
	if err != nil {
		return n, fmt.Errorf("write response: %w", err)
	}

	return n, nil
}

// HTTPMiddleware creates a server span per request, named "METHOD /path".
func HTTPMiddleware(tracer trace.Tracer, next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, hr *http.Request) {
		parentCtx := otel.GetTextMapPropagator().Extract(hr.Context(), propagation.HeaderCarrier(hr.Header))

		ctx, span := tracer.Start(parentCtx, hr.Method+" "+hr.URL.Path,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				semconv.HTTPRequestMethodKey.String(hr.Method),
				attribute.String("http.target", hr.URL.Path),
			),
		)
		defer span.End()

		sw := &statusWriter{ResponseWriter: rw}
		next.ServeHTTP(sw, hr.WithContext(ctx))

		span.SetAttributes(semconv.HTTPResponseStatusCode(sw.statusCode))

		if sw.statusCode >= httpStatusServerError {
			span.SetStatus(codes.Error, http.StatusText(sw.statusCode))
		}
	})
}

// MetricsServer serves the Prometheus scrape endpoint.
type MetricsServer struct {
	server   *http.Server
	listener net.Listener
	logger   *slog.Logger
}

// NewMetricsServer listens on addr and routes /metrics to handler.
func NewMetricsServer(addr string, handler http.Handler, tracer trace.Tracer, logger *slog.Logger) (*MetricsServer, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle(metricsPath, HTTPMiddleware(tracer, handler))

	return &MetricsServer{
		server:   &http.Server{Handler: mux, ReadHeaderTimeout: readHeaderTimeout},
		listener: listener,
		logger:   logger,
	}, nil
}

// Addr returns the bound address.
func (ms *MetricsServer) Addr() string {
	return ms.listener.Addr().String()
}

// Start serves in the background until Stop.
func (ms *MetricsServer) Start() {
	ms.logger.Info("serving metrics", "addr", ms.Addr(), "path", metricsPath)

	go func() {
		err := ms.server.Serve(ms.listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			ms.logger.Error("metrics server stopped", "error", err)
		}
	}()
}

// Stop shuts the server down.
func (ms *MetricsServer) Stop(ctx context.Context) error {
	stopCtx, cancel := context.WithTimeout(ctx, serverStopTimeout)
	defer cancel()

	err := ms.server.Shutdown(stopCtx)
	if err != nil {
		return fmt.Errorf("stop metrics server: %w", err)
	}

	return nil
}
