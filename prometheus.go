package rolling

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusConfig is a config of the Prometheus metrics provided by the store.
//
// An instance can be created only by the [Prometheus] function. The zero value is invalid.
type PrometheusConfig struct {
	// Namespace of the metrics.
	Namespace string
	// Subsystem of the metrics.
	Subsystem string
	// Options for the items gauge.
	Items prometheus.GaugeOpts
	// Options for the listeners gauge.
	Listeners prometheus.GaugeOpts
	// Options for the pushed items counter.
	ItemsPushed prometheus.CounterOpts
	// Options for the evicted items counter.
	ItemsEvicted prometheus.CounterOpts
	// Options for the changes counter.
	Changes prometheus.CounterOpts
	// Options for the persist errors counter.
	PersistErrors prometheus.CounterOpts

	registerer prometheus.Registerer
}

// Prometheus returns a [PrometheusConfig] with the provided registerer. If registerer is nil,
// metrics will not be registered. Many default parameters can be configured by passing
// configuration functions.
//
// Every store registers its own collectors, so stores sharing a registerer need distinct
// subsystems or constant labels.
func Prometheus(
	registerer prometheus.Registerer,
	configFuncs ...func(c *PrometheusConfig),
) *PrometheusConfig {
	const (
		namespace = "rolling"
		subsystem = ""
	)

	c := PrometheusConfig{
		registerer: registerer,
		Namespace:  namespace,
		Subsystem:  subsystem,
		Items: prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "items",
			Help:      "Number of items in store",
		},
		Listeners: prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "listeners",
			Help:      "Number of store subscribers",
		},
		ItemsPushed: prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "items_pushed",
			Help:      "Number of items pushed into store",
		},
		ItemsEvicted: prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "items_evicted",
			Help:      "Number of items evicted from store by its capacity",
		},
		Changes: prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "changes",
			Help:      "Number of store changes",
		},
		PersistErrors: prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "persist_errors",
			Help:      "Number of errors occurred during snapshot persistence",
		},
	}

	for _, cf := range configFuncs {
		if cf != nil {
			cf(&c)
		}
	}

	return &c
}

func (c *PrometheusConfig) metrics() *metrics {
	for _, opts := range []*prometheus.Opts{
		(*prometheus.Opts)(&c.Items),
		(*prometheus.Opts)(&c.Listeners),
		(*prometheus.Opts)(&c.ItemsPushed),
		(*prometheus.Opts)(&c.ItemsEvicted),
		(*prometheus.Opts)(&c.Changes),
		(*prometheus.Opts)(&c.PersistErrors),
	} {
		opts.Namespace = c.Namespace
		opts.Subsystem = c.Subsystem
	}

	m := metrics{
		items:         prometheus.NewGauge(c.Items),
		listeners:     prometheus.NewGauge(c.Listeners),
		itemsPushed:   prometheus.NewCounter(c.ItemsPushed),
		itemsEvicted:  prometheus.NewCounter(c.ItemsEvicted),
		changes:       prometheus.NewCounterVec(c.Changes, []string{"type"}),
		persistErrors: prometheus.NewCounter(c.PersistErrors),
	}

	if c.registerer != nil {
		c.registerer.MustRegister(
			m.items,
			m.listeners,
			m.itemsPushed,
			m.itemsEvicted,
			m.changes,
			m.persistErrors,
		)
	}

	return &m
}

type metrics struct {
	items         prometheus.Gauge
	listeners     prometheus.Gauge
	itemsPushed   prometheus.Counter
	itemsEvicted  prometheus.Counter
	changes       *prometheus.CounterVec
	persistErrors prometheus.Counter
}
