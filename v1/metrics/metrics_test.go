package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/Aleph-Alpha/pbcodec/v1/observability"
)

func TestObserveOperation(t *testing.T) {
	m := NewMetrics(Config{ServiceName: "unicorns"})

	m.ObserveOperation(observability.OperationContext{
		Component: "codec", Operation: "decode", Duration: 3 * time.Millisecond, Size: 120,
	})
	m.ObserveOperation(observability.OperationContext{
		Component: "codec", Operation: "decode", Error: errors.New("bad bytes"),
	})
	m.ObserveOperation(observability.OperationContext{
		Component: "schema", Operation: "resolve",
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues("codec", "decode", statusSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues("codec", "decode", statusError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues("schema", "resolve", statusSuccess)))
	assert.Equal(t, 3, testutil.CollectAndCount(m.operationsTotal))
	assert.Equal(t, 2, testutil.CollectAndCount(m.operationDuration))

	// only sized operations reach the payload histogram
	assert.Equal(t, 1, testutil.CollectAndCount(m.payloadBytes))
}

func TestMetricsHandlerCarriesServiceLabel(t *testing.T) {
	m := NewMetrics(Config{ServiceName: "unicorns", Namespace: "test"})
	m.ObserveOperation(observability.OperationContext{Component: "kafka", Operation: "produce", Size: 10})

	counter := m.CreateCounter("test_poison_messages_total", "Poison messages skipped", []string{"topic"})
	counter.WithLabelValues("in").Inc()

	srv := httptest.NewServer(m.Server.Handler)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `test_operations_total{component="kafka",operation="produce",service="unicorns",status="success"} 1`)
	assert.Contains(t, string(body), `test_poison_messages_total{service="unicorns",topic="in"} 1`)
}

func TestCreateMetricsRegistersOnce(t *testing.T) {
	m := NewMetrics(Config{ServiceName: "unicorns"})
	m.CreateGauge("in_flight", "In-flight messages", nil)
	m.CreateHistogram("batch_size", "Batch size", []string{"topic"}, []float64{1, 10, 100})

	assert.Panics(t, func() {
		m.CreateGauge("in_flight", "In-flight messages", nil)
	})
}

func TestFXModuleProvidesObserver(t *testing.T) {
	var (
		m        *Metrics
		observer observability.Observer
	)
	app := fxtest.New(t,
		FXModule,
		fx.Provide(func() Config { return Config{ServiceName: "unicorns"} }),
		fx.Populate(&m, &observer),
	)
	app.RequireStart()
	defer app.RequireStop()

	assert.Same(t, m, observer)
}
