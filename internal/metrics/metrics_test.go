package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NotPanics(t, func() { Register(reg) })

	DeliveriesTotal.WithLabelValues("crm", "failed").Inc()
	assert.Equal(t, float64(1), testutil.ToFloat64(DeliveriesTotal.WithLabelValues("crm", "failed")))

	n, err := testutil.GatherAndCount(reg, "form_deliveries_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
