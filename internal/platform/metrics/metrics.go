// Package metrics expone los contadores del engine y del backend en Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "petsync"

// Recorder agrupa los contadores. Un Recorder nil es válido y no registra nada.
type Recorder struct {
	Events     *prometheus.CounterVec
	Mutations  *prometheus.CounterVec
	BulkItems  *prometheus.CounterVec
	Reconciles *prometheus.CounterVec
	Broadcasts *prometheus.CounterVec
}

// New registra los contadores en reg. Con reg nil usa un registry propio
// (útil en tests para no chocar con el global).
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	r := &Recorder{
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Push events processed by the entity store, by outcome.",
		}, []string{"kind", "outcome"}),
		Mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "optimistic_mutations_total",
			Help:      "Optimistic mutations by final result (begun, committed, rolled_back).",
		}, []string{"kind", "result"}),
		BulkItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bulk_items_total",
			Help:      "Bulk action items by status (succeeded, failed, skipped).",
		}, []string{"kind", "action", "status"}),
		Reconciles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconciliations_total",
			Help:      "Reconciliation passes by result.",
		}, []string{"kind", "result"}),
		Broadcasts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "push_broadcasts_total",
			Help:      "Events broadcast by the backend push hub.",
		}, []string{"kind", "type"}),
	}
	reg.MustRegister(r.Events, r.Mutations, r.BulkItems, r.Reconciles, r.Broadcasts)
	return r
}

func (r *Recorder) Event(kind, outcome string) {
	if r == nil {
		return
	}
	r.Events.WithLabelValues(kind, outcome).Inc()
}

func (r *Recorder) Mutation(kind, result string) {
	if r == nil {
		return
	}
	r.Mutations.WithLabelValues(kind, result).Inc()
}

func (r *Recorder) BulkItem(kind, action, status string) {
	if r == nil {
		return
	}
	r.BulkItems.WithLabelValues(kind, action, status).Inc()
}

func (r *Recorder) Reconcile(kind, result string) {
	if r == nil {
		return
	}
	r.Reconciles.WithLabelValues(kind, result).Inc()
}

func (r *Recorder) Broadcast(kind, typ string) {
	if r == nil {
		return
	}
	r.Broadcasts.WithLabelValues(kind, typ).Inc()
}
