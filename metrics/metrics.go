// metrics/metrics.go
package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

const (
	OutcomeSuccess = "success"
	OutcomeSkipped = "skipped"
	OutcomeError   = "error"
)

// Metrics holds the counters shared by the update job, the notifier and the
// read API. Batch runs push them to a pushgateway; serve exposes them on
// /metrics.
type Metrics struct {
	Registry *prometheus.Registry

	ReconcileRuns        *prometheus.CounterVec
	RowsWritten          *prometheus.CounterVec
	Retractions          *prometheus.CounterVec
	NotificationFailures *prometheus.CounterVec
	ScrapeFailures       *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		ReconcileRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mncovid_reconcile_runs_total",
			Help: "Reconciler runs by reconciler and outcome",
		}, []string{"reconciler", "outcome"}),
		RowsWritten: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mncovid_rows_written_total",
			Help: "Rows inserted, updated or removed by entity",
		}, []string{"entity"}),
		Retractions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mncovid_retractions_total",
			Help: "Cumulative values that decreased versus the previous day",
		}, []string{"metric"}),
		NotificationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mncovid_notification_failures_total",
			Help: "Notifications that could not be delivered, by channel",
		}, []string{"channel"}),
		ScrapeFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mncovid_scrape_failures_total",
			Help: "Situation page fetch or structure failures, by kind",
		}, []string{"kind"}),
	}
}

// Push sends every collected metric to the pushgateway at url under job.
func (m *Metrics) Push(ctx context.Context, url, job string) error {
	if err := push.New(url, job).Gatherer(m.Registry).PushContext(ctx); err != nil {
		return fmt.Errorf("failed to push metrics to %s: %w", url, err)
	}
	return nil
}
