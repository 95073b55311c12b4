// Package metrics exposes prometheus counters/gauges for the ring
// buffers and trunking state machine, grounded on the corpus's own
// promauto-registered GaugeVec/CounterVec pattern.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds every metric this engine publishes.
type Registry struct {
	RingDrops      *prometheus.CounterVec
	RingReadWaits  *prometheus.CounterVec
	RingUsed       *prometheus.GaugeVec
	SMTuneCount    prometheus.Gauge
	SMReleaseCount prometheus.Gauge
	SMState        prometheus.Gauge
	CCCandidates   prometheus.Gauge
	AffiliatedRIDs prometheus.Gauge
}

// NewRegistry constructs and registers every metric against the
// default prometheus registry.
func NewRegistry() *Registry {
	return NewRegistryFor(prometheus.DefaultRegisterer)
}

// NewRegistryFor constructs and registers every metric against the
// given registerer, letting tests use an isolated
// prometheus.NewRegistry() instead of the process-wide default.
func NewRegistryFor(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)
	return &Registry{
		RingDrops: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dsdneo_ring_producer_drops_total",
				Help: "Number of samples a ring producer dropped due to a full ring.",
			},
			[]string{"ring"},
		),
		RingReadWaits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dsdneo_ring_read_waits_total",
				Help: "Number of times a ring reader blocked waiting for data.",
			},
			[]string{"ring"},
		),
		RingUsed: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "dsdneo_ring_used_samples",
				Help: "Current number of samples occupying a ring.",
			},
			[]string{"ring"},
		),
		SMTuneCount: factory.NewGauge(prometheus.GaugeOpts{
			Name: "dsdneo_sm_tune_total",
			Help: "Number of voice-channel tunes the trunking SM has issued.",
		}),
		SMReleaseCount: factory.NewGauge(prometheus.GaugeOpts{
			Name: "dsdneo_sm_release_total",
			Help: "Number of voice-channel releases the trunking SM has issued.",
		}),
		SMState: factory.NewGauge(prometheus.GaugeOpts{
			Name: "dsdneo_sm_state",
			Help: "Current trunking SM state, as its SMState enum value.",
		}),
		CCCandidates: factory.NewGauge(prometheus.GaugeOpts{
			Name: "dsdneo_sm_cc_candidates",
			Help: "Number of control-channel candidates currently tracked.",
		}),
		AffiliatedRIDs: factory.NewGauge(prometheus.GaugeOpts{
			Name: "dsdneo_sm_affiliated_rids",
			Help: "Number of radio IDs currently in the affiliation table.",
		}),
	}
}
