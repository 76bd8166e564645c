package twofactor_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/totpguard/pkg/secretstore"
	"github.com/dmitrymomot/totpguard/svc/twofactor"
)

func histogramCount(t *testing.T, reg *prometheus.Registry, op string) uint64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "totpguard_store_latency_seconds" {
			continue
		}
		for _, m := range mf.GetMetric() {
			if labelValue(m, "op") == op {
				return m.GetHistogram().GetSampleCount()
			}
		}
	}
	return 0
}

func labelValue(m *dto.Metric, name string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}

func TestMetrics(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	metrics, err := twofactor.NewMetrics(reg)
	require.NoError(t, err)

	svc, engine := newService(t, secretstore.NewMemoryStore(), twofactor.WithMetrics(metrics))
	secret := enroll(t, svc, engine, "alice")

	require.NoError(t, svc.VerifyLogin(ctx, "alice", currentCode(t, engine, secret)))
	require.Error(t, svc.VerifyLogin(ctx, "alice", wrongCode(t, engine, secret)))
	require.Error(t, svc.VerifyLogin(ctx, "bob", "123456"))

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Enrollments.WithLabelValues("started")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Enrollments.WithLabelValues("confirmed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Verifications.WithLabelValues("enrollment", "verified")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Verifications.WithLabelValues("login", "verified")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Verifications.WithLabelValues("login", "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Verifications.WithLabelValues("login", "not_enrolled")))

	// start, confirm and three logins each load once.
	assert.Equal(t, uint64(5), histogramCount(t, reg, "load"))
	assert.Equal(t, uint64(1), histogramCount(t, reg, "save_pending"))
	assert.Equal(t, uint64(1), histogramCount(t, reg, "enable"))
}

func TestNewMetrics_DuplicateRegistration(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	twofactor.MustNewMetrics(reg)

	_, err := twofactor.NewMetrics(reg)
	assert.Error(t, err)
	assert.Panics(t, func() { twofactor.MustNewMetrics(reg) })
}
