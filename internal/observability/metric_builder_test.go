package observability

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric"
	noopmetric "go.opentelemetry.io/otel/metric/noop"
)

var errCreate = errors.New("creation failed")

// failingMeter rejects counters and accepts everything else.
type failingMeter struct {
	noopmetric.Meter
}

func (failingMeter) Int64Counter(string, ...metric.Int64CounterOption) (metric.Int64Counter, error) {
	return noopmetric.Int64Counter{}, errCreate
}

func TestMetricBuilder_AllInstruments(t *testing.T) {
	t.Parallel()

	b := newMetricBuilder(noopmetric.NewMeterProvider().Meter("test"))

	assert.NotNil(t, b.counter("c", "counter", "{x}"))
	assert.NotNil(t, b.histogram("h", "histogram", "s", 0.1, 1))
	assert.NotNil(t, b.histogram("h2", "histogram", "s"))
	assert.NotNil(t, b.upDownCounter("u", "updown", "{x}"))
	assert.NotNil(t, b.observableCounter("o", "observable", "{x}"))
	require.NoError(t, b.err)
}

func TestMetricBuilder_KeepsFirstError(t *testing.T) {
	t.Parallel()

	b := newMetricBuilder(failingMeter{})

	b.counter("first", "", "")
	b.counter("second", "", "")

	require.ErrorIs(t, b.err, errCreate)
	assert.Contains(t, b.err.Error(), "create first")
}

func TestNewCheckMetrics_PropagatesBuilderError(t *testing.T) {
	t.Parallel()

	_, err := NewCheckMetrics(failingMeter{})
	require.ErrorIs(t, err, errCreate)
}
