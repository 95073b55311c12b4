package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestNewRegistryForRegistersAndUpdates(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewRegistryFor(reg)

	m.RingDrops.WithLabelValues("iq").Inc()
	m.SMTuneCount.Inc()
	m.SMState.Set(2)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}

	found := map[string]bool{}
	for _, f := range families {
		found[f.GetName()] = true
	}
	for _, want := range []string{"dsdneo_ring_producer_drops_total", "dsdneo_sm_tune_total", "dsdneo_sm_state"} {
		if !found[want] {
			t.Errorf("expected metric %q to be registered", want)
		}
	}
}

func TestRingDropsCounterIncrementsPerLabel(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewRegistryFor(reg)

	m.RingDrops.WithLabelValues("pcm").Inc()
	m.RingDrops.WithLabelValues("pcm").Inc()

	var metric dto.Metric
	if err := m.RingDrops.WithLabelValues("pcm").Write(&metric); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if metric.GetCounter().GetValue() != 2 {
		t.Errorf("counter = %v, want 2", metric.GetCounter().GetValue())
	}
}
