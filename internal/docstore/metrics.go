package docstore

import (
	stderrors "errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// metrics is nil when the store was built without WithMetrics; every method
// accepts a nil receiver.
type metrics struct {
	saves        *prometheus.CounterVec
	loads        *prometheus.CounterVec
	saveDuration *prometheus.HistogramVec
	keys         *prometheus.GaugeVec
	autoSaveStop *prometheus.CounterVec
}

// newMetrics registers the store collectors on reg. Collectors already
// registered by another store are shared.
func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	m := &metrics{}
	var err error
	if m.saves, err = register(reg, prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plugindata_saves_total",
			Help: "Total number of document saves",
		},
		[]string{"owner", "database", "status"},
	)); err != nil {
		return nil, err
	}
	if m.loads, err = register(reg, prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plugindata_loads_total",
			Help: "Total number of document loads",
		},
		[]string{"owner", "database", "status"},
	)); err != nil {
		return nil, err
	}
	if m.saveDuration, err = register(reg, prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "plugindata_save_duration_seconds",
			Help:    "Document save latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"owner", "database"},
	)); err != nil {
		return nil, err
	}
	if m.keys, err = register(reg, prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "plugindata_document_keys",
			Help: "Number of keys in the document as of the last load or save",
		},
		[]string{"owner", "database"},
	)); err != nil {
		return nil, err
	}
	if m.autoSaveStop, err = register(reg, prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plugindata_autosave_stopped_total",
			Help: "Number of autosave loops stopped by a failed save",
		},
		[]string{"owner", "database"},
	)); err != nil {
		return nil, err
	}
	return m, nil
}

// register registers c on reg, reusing a compatible collector that another
// store already registered.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if stderrors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		var zero C
		return zero, fmt.Errorf("failed to register metrics: %w", err)
	}
	return c, nil
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (m *metrics) observeSave(owner, db string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.saves.WithLabelValues(owner, db, status(err)).Inc()
	m.saveDuration.WithLabelValues(owner, db).Observe(d.Seconds())
}

func (m *metrics) observeLoad(owner, db string, err error) {
	if m == nil {
		return
	}
	m.loads.WithLabelValues(owner, db, status(err)).Inc()
}

func (m *metrics) setKeys(owner, db string, n int) {
	if m == nil {
		return
	}
	m.keys.WithLabelValues(owner, db).Set(float64(n))
}

func (m *metrics) autoSaveStopped(owner, db string) {
	if m == nil {
		return
	}
	m.autoSaveStop.WithLabelValues(owner, db).Inc()
}
