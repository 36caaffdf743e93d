package prom

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_CountsByOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	r, err := NewRecorder(reg)
	require.NoError(t, err)

	r.ObserveLogin("success")
	r.ObserveLogin("failed")
	r.ObserveLogin("failed")
	r.ObserveRefresh("stale_token")
	r.ObserveLogout("success")

	assert.Equal(t, 1.0, testutil.ToFloat64(r.logins.WithLabelValues("success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.logins.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.refreshes.WithLabelValues("stale_token")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.logouts.WithLabelValues("success")))
}

func TestNewRecorder_DoubleRegistrationFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewRecorder(reg)
	require.NoError(t, err)

	_, err = NewRecorder(reg)
	assert.Error(t, err)
}
