package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounterAccumulates(t *testing.T) {
	registry := NewRegistry()

	registry.IncrementCounter("actions_total", nil, "test counter")
	registry.IncrementCounter("actions_total", nil, "test counter")
	registry.AddToCounter("actions_total", 3, nil, "test counter")

	all := registry.GetAllMetrics()
	counters := all["counters"].(map[string]*Metric)
	require.Contains(t, counters, "actions_total")
	assert.Equal(t, float64(5), counters["actions_total"].Value)
}

func TestCountersWithLabelsAreDistinct(t *testing.T) {
	registry := NewRegistry()

	registry.IncrementCounter("actions_total", map[string]string{"action": "add"}, "")
	registry.IncrementCounter("actions_total", map[string]string{"action": "remove"}, "")
	registry.IncrementCounter("actions_total", map[string]string{"action": "add"}, "")

	all := registry.GetAllMetrics()
	counters := all["counters"].(map[string]*Metric)
	assert.Equal(t, float64(2), counters["actions_total_action:add"].Value)
	assert.Equal(t, float64(1), counters["actions_total_action:remove"].Value)
}

func TestMetricKeyLabelOrderStable(t *testing.T) {
	a := metricKey("m", map[string]string{"x": "1", "y": "2"})
	b := metricKey("m", map[string]string{"y": "2", "x": "1"})
	assert.Equal(t, a, b)
}

func TestGaugeOverwrites(t *testing.T) {
	registry := NewRegistry()

	registry.SetGauge("queue_size", 3, nil, "")
	registry.SetGauge("queue_size", 7, nil, "")

	all := registry.GetAllMetrics()
	gauges := all["gauges"].(map[string]*Metric)
	assert.Equal(t, float64(7), gauges["queue_size"].Value)
}

func TestTimerStatistics(t *testing.T) {
	registry := NewRegistry()

	for i := 1; i <= 10; i++ {
		registry.RecordTimer("request_duration", time.Duration(i)*time.Millisecond, nil, "")
	}

	all := registry.GetAllMetrics()
	timers := all["timers"].(map[string]*TimerMetric)
	timer := timers["request_duration"]
	require.NotNil(t, timer)

	assert.Equal(t, int64(10), timer.Count)
	assert.Equal(t, float64(1), timer.Min)
	assert.Equal(t, float64(10), timer.Max)
	assert.InDelta(t, 5.5, timer.Average, 0.001)
	assert.Greater(t, timer.P95, 0.0)
}

func TestGetAllMetricsIncludesUptime(t *testing.T) {
	registry := NewRegistry()
	all := registry.GetAllMetrics()

	assert.Contains(t, all, "uptime_ms")
	assert.Contains(t, all, "timestamp")
}
