// services/reconciler.go
package services

import (
	"log/slog"

	"github.com/gewnthar/mncovid/database"
	"github.com/gewnthar/mncovid/metrics"
)

// Reconciler merges parsed page records into storage. Each method owns the
// writes for its entities and runs its whole read-modify-write sequence in
// one transaction, so a failure leaves that entity at its last committed
// state.
type Reconciler struct {
	store   *database.Store
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewReconciler(store *database.Store, m *metrics.Metrics, logger *slog.Logger) *Reconciler {
	return &Reconciler{store: store, metrics: m, logger: logger}
}

func (r *Reconciler) rowsWritten(entity string, n int) {
	if n > 0 {
		r.metrics.RowsWritten.WithLabelValues(entity).Add(float64(n))
	}
}

func (r *Reconciler) retraction(metric string) {
	r.metrics.Retractions.WithLabelValues(metric).Inc()
}
