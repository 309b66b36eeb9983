package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilRegistererIsNoOp(t *testing.T) {
	m := NewRequestMetrics(nil)
	assert.NotPanics(t, func() {
		m.IncRequest("GET", "ok")
		m.ObserveDuration("GET", time.Millisecond)
	})

	var unset *RequestMetrics
	assert.NotPanics(t, func() {
		unset.IncRequest("GET", "ok")
		unset.ObserveDuration("GET", time.Millisecond)
	})
}

func TestCountersRegisterAndIncrement(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewRequestMetrics(reg)

	m.IncRequest("POST", "api_error")
	m.ObserveDuration("POST", 5*time.Millisecond)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, fam := range families {
		names = append(names, fam.GetName())
	}
	assert.Contains(t, names, "storefront_requests_total")
	assert.Contains(t, names, "storefront_request_duration_seconds")
}
