package parsermetrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Collector) float64 {
	t.Helper()
	ch := make(chan prometheus.Metric, 16)
	c.Collect(ch)
	close(ch)
	var total float64
	for m := range ch {
		var out dto.Metric
		require.NoError(t, m.Write(&out))
		total += out.GetCounter().GetValue()
	}
	return total
}

func TestNew_RegistersWhenRegistryGiven(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := New(reg)
	require.NotNil(t, m)

	m.ObserveSection("ok")
	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNew_NotRegisteredWithNilRegistry(t *testing.T) {
	t.Parallel()

	m := New(nil)
	m.ObserveSection("ok")

	ch := make(chan *prometheus.Desc, 16)
	m.Describe(ch)
	close(ch)
	var count int
	for range ch {
		count++
	}
	assert.Zero(t, count, "Describe must be a no-op when Metrics was not registered")
}

func TestObserveMethods_IncrementCounters(t *testing.T) {
	t.Parallel()

	m := New(nil)
	m.ObserveSection("ok")
	m.ObserveSection("ok")
	m.ObservePiggybackBlock()
	m.ObserveStoreMerge("expired")
	m.ObserveExpiredEntry()

	assert.Equal(t, float64(2), counterValue(t, m.sectionsTotal))
	assert.Equal(t, float64(1), counterValue(t, m.piggybackBlocksTotal))
	assert.Equal(t, float64(1), counterValue(t, m.storeMergesTotal))
	assert.Equal(t, float64(1), counterValue(t, m.expiredEntriesTotal))
}

func TestNilMetrics_AllMethodsAreSafe(t *testing.T) {
	t.Parallel()

	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveSection("ok")
		m.ObservePiggybackBlock()
		m.ObserveStoreMerge("ok")
		m.ObserveExpiredEntry()
		m.Describe(make(chan *prometheus.Desc, 1))
		m.Collect(make(chan prometheus.Metric, 1))
	})
}
