package feed

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusConfig is a config of the Prometheus metrics provided by the feed.
//
// An instance can be created only by the [Prometheus] function. The zero value is invalid.
type PrometheusConfig struct {
	// Namespace of the metrics.
	Namespace string
	// Subsystem of the metrics.
	Subsystem string
	// Options for the frames counter.
	Frames prometheus.CounterOpts
	// Options for the decoded items counter.
	Items prometheus.CounterOpts
	// Options for the dropped frames counter, labelled by reason.
	DroppedFrames prometheus.CounterOpts
	// Options for the sessions counter.
	Sessions prometheus.CounterOpts
	// Options for the session errors counter.
	SessionErrors prometheus.CounterOpts

	registerer prometheus.Registerer
}

// Prometheus returns a [PrometheusConfig] with the provided registerer. If registerer is nil,
// metrics will not be registered. Many default parameters can be configured by passing
// configuration functions.
func Prometheus(
	registerer prometheus.Registerer,
	configFuncs ...func(c *PrometheusConfig),
) *PrometheusConfig {
	const (
		namespace = "rolling"
		subsystem = "feed"
	)

	c := PrometheusConfig{
		registerer: registerer,
		Namespace:  namespace,
		Subsystem:  subsystem,
		Frames: prometheus.CounterOpts{
			Name: "frames",
			Help: "Number of frames read from the feed",
		},
		Items: prometheus.CounterOpts{
			Name: "items",
			Help: "Number of items decoded from the feed",
		},
		DroppedFrames: prometheus.CounterOpts{
			Name: "dropped_frames",
			Help: "Number of frames dropped because they were too large or couldn't be decoded",
		},
		Sessions: prometheus.CounterOpts{
			Name: "sessions",
			Help: "Number of established feed sessions",
		},
		SessionErrors: prometheus.CounterOpts{
			Name: "session_errors",
			Help: "Number of feed sessions that ended with an error, failed dials included",
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
		(*prometheus.Opts)(&c.Frames),
		(*prometheus.Opts)(&c.Items),
		(*prometheus.Opts)(&c.DroppedFrames),
		(*prometheus.Opts)(&c.Sessions),
		(*prometheus.Opts)(&c.SessionErrors),
	} {
		opts.Namespace = c.Namespace
		opts.Subsystem = c.Subsystem
	}

	m := metrics{
		frames:        prometheus.NewCounter(c.Frames),
		items:         prometheus.NewCounter(c.Items),
		droppedFrames: prometheus.NewCounterVec(c.DroppedFrames, []string{"reason"}),
		sessions:      prometheus.NewCounter(c.Sessions),
		sessionErrors: prometheus.NewCounter(c.SessionErrors),
	}

	if c.registerer != nil {
		c.registerer.MustRegister(
			m.frames,
			m.items,
			m.droppedFrames,
			m.sessions,
			m.sessionErrors,
		)
	}

	return &m
}

type metrics struct {
	frames        prometheus.Counter
	items         prometheus.Counter
	droppedFrames *prometheus.CounterVec
	sessions      prometheus.Counter
	sessionErrors prometheus.Counter
}
