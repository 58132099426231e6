package sampler

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "mumblelink"

// Metrics are the prometheus collectors updated by a Sampler.
type Metrics struct {
	Samples        *prometheus.CounterVec
	TickChanges    *prometheus.CounterVec
	SettleFailures *prometheus.CounterVec
	DecodeErrors   *prometheus.CounterVec
	Tick           *prometheus.GaugeVec
	MapID          *prometheus.GaugeVec
	WriterPID      *prometheus.GaugeVec
}

// NewMetrics creates the collectors and registers them with reg when it is not nil.
// Collectors already registered by an earlier call are reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Samples: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "samples_total",
			Help:      "Link region reads.",
		}, []string{"link"}),
		TickChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tick_changes_total",
			Help:      "Samples that observed a new ui tick.",
		}, []string{"link"}),
		SettleFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settle_failures_total",
			Help:      "Samples whose tick kept moving during every read attempt.",
		}, []string{"link"}),
		DecodeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_errors_total",
			Help:      "Fields whose contents could not be decoded.",
		}, []string{"link", "field"}),
		Tick: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ui_tick",
			Help:      "Last observed ui tick.",
		}, []string{"link"}),
		MapID: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "map_id",
			Help:      "Last observed map id.",
		}, []string{"link"}),
		WriterPID: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "writer_pid",
			Help:      "Process id reported by the writer.",
		}, []string{"link"}),
	}
	if reg == nil {
		return m, nil
	}
	var err error
	if m.Samples, err = register(reg, m.Samples); err != nil {
		return nil, err
	}
	if m.TickChanges, err = register(reg, m.TickChanges); err != nil {
		return nil, err
	}
	if m.SettleFailures, err = register(reg, m.SettleFailures); err != nil {
		return nil, err
	}
	if m.DecodeErrors, err = register(reg, m.DecodeErrors); err != nil {
		return nil, err
	}
	if m.Tick, err = register(reg, m.Tick); err != nil {
		return nil, err
	}
	if m.MapID, err = register(reg, m.MapID); err != nil {
		return nil, err
	}
	if m.WriterPID, err = register(reg, m.WriterPID); err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}
