package ecojourney

import (
	"log/slog"
	"net/http"

	"golang.org/x/sync/errgroup"
)

// MetricsCollector sends its current measurements on metrics.
type MetricsCollector interface {
	Collect(metrics chan *Metric)
}

type PrometheusMetricsHandler struct {
	collectors []MetricsCollector
}

func NewHTTPMetricsHandler(collectors ...MetricsCollector) *PrometheusMetricsHandler {
	return &PrometheusMetricsHandler{
		collectors: collectors,
	}
}

func (rh *PrometheusMetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	metrics := make(chan *Metric)

	traceAttr := slog.Attr{}
	if traceID := r.Header.Get("X-Cloud-Trace-Context"); traceID != "" {
		traceAttr = slog.String("logging.googleapis.com/trace", traceID)
	}

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	errg, errgctx := errgroup.WithContext(r.Context())

	errg.Go(func() error {
		defer close(metrics)
		for _, collector := range rh.collectors {
			collector.Collect(metrics)
		}
		return nil
	})

	errg.Go(func() error {
		err := WriteMetrics(errgctx, w, metrics)
		// drain so that collectors never block on a failed writer
		for range metrics {
		}
		return err
	})

	if err := errg.Wait(); err != nil {
		slog.Error("failed to write metrics", "err", err.Error(), traceAttr)
		return
	}
	slog.Debug("metrics have been successfully collected", traceAttr)
}
