package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newManualMeter(t *testing.T) (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	return reader, provider
}

// sumOf returns the counter value recorded for the data point carrying attr
func sumOf(t *testing.T, reader *sdkmetric.ManualReader, name string, attr attribute.KeyValue) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "%s is not an int64 sum", name)
			for _, dp := range sum.DataPoints {
				if v, ok := dp.Attributes.Value(attr.Key); ok && v == attr.Value {
					return dp.Value
				}
			}
		}
	}
	return 0
}

func TestNewMeterProvider_Disabled(t *testing.T) {
	mp, err := NewMeterProvider(context.Background(), MetricsConfig{
		Enabled:        false,
		ExportInterval: time.Minute,
		ServiceName:    "fatoora-test",
	}, zap.NewNop())
	require.NoError(t, err)

	assert.False(t, mp.IsEnabled())
	assert.NotNil(t, mp.Meter("test"))
	assert.NoError(t, mp.Shutdown(context.Background()))
}

func TestHistogram_RecordDuration(t *testing.T) {
	reader, provider := newManualMeter(t)
	h, err := NewHistogram(provider.Meter("test"), HistogramOpts{
		Name:       "test_duration_seconds",
		Unit:       "s",
		Boundaries: HTTPDurationBuckets,
	})
	require.NoError(t, err)

	h.RecordDuration(context.Background(), 250*time.Millisecond, AttrHTTPRoute.String("/documents"))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.Len(t, rm.ScopeMetrics, 1)
	hist, ok := rm.ScopeMetrics[0].Metrics[0].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(1), hist.DataPoints[0].Count)
	assert.InDelta(t, 0.25, hist.DataPoints[0].Sum, 1e-9)
}

func TestBusinessMetrics(t *testing.T) {
	reader, provider := newManualMeter(t)
	bm, err := NewBusinessMetrics(provider.Meter("business"))
	require.NoError(t, err)
	ctx := context.Background()

	bm.RecordDocumentComputed(ctx, "invoice", "invoice")
	bm.RecordDocumentComputed(ctx, "offer", "invoice")
	bm.RecordDocumentComputed(ctx, "invoice", "invoice")
	bm.RecordTransition(ctx, "credit_invoice")
	bm.RecordEntitlementDenied(ctx, "trial_ended")
	bm.RecordPaymentCallback(ctx, CallbackDuplicate)

	assert.Equal(t, int64(2), sumOf(t, reader, "fatoora_documents_computed_total", AttrDocumentType.String("invoice")))
	assert.Equal(t, int64(1), sumOf(t, reader, "fatoora_documents_computed_total", AttrDocumentType.String("offer")))
	assert.Equal(t, int64(1), sumOf(t, reader, "fatoora_document_transitions_total", AttrTransition.String("credit_invoice")))
	assert.Equal(t, int64(1), sumOf(t, reader, "fatoora_entitlement_denials_total", AttrReason.String("trial_ended")))
	assert.Equal(t, int64(1), sumOf(t, reader, "fatoora_payment_callbacks_total", AttrOutcome.String(CallbackDuplicate)))
}

func TestBusinessMetrics_NilIsNoop(t *testing.T) {
	var bm *BusinessMetrics

	assert.NotPanics(t, func() {
		bm.RecordDocumentComputed(context.Background(), "invoice", "invoice")
		bm.RecordTransition(context.Background(), "credit_invoice")
		bm.RecordEntitlementDenied(context.Background(), "trial_ended")
		bm.RecordPaymentCallback(context.Background(), CallbackFailed)
	})
}

func TestNewBusinessMetrics_NilMeter(t *testing.T) {
	_, err := NewBusinessMetrics(nil)
	assert.ErrorIs(t, err, ErrMeterNil)
}

func TestLoggerProvider_Disabled(t *testing.T) {
	lp, err := NewLoggerProvider(context.Background(), LogsConfig{Enabled: false}, zap.NewNop())
	require.NoError(t, err)

	assert.False(t, lp.IsEnabled())
	assert.NoError(t, lp.Shutdown(context.Background()))

	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core)
	assert.Same(t, base, Bridge(base, "fatoora-test", lp, zapcore.InfoLevel))
	assert.False(t, NewZapOTELCore("fatoora-test", lp, zapcore.InfoLevel).Enabled(zapcore.ErrorLevel))

	base.Info("still logged")
	assert.Equal(t, 1, logs.Len())
}

func TestLevelFilterCore(t *testing.T) {
	inner, logs := observer.New(zapcore.DebugLevel)
	core := &levelFilterCore{Core: inner, minLevel: zapcore.WarnLevel}
	log := zap.New(core).With(zap.String("account_id", "acc-1"))

	log.Info("dropped")
	log.Warn("kept")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "kept", entry.Message)
	assert.Equal(t, "acc-1", entry.ContextMap()["account_id"])
}

func TestProfiler_Disabled(t *testing.T) {
	p, err := NewProfiler(ProfilerConfig{Enabled: false}, zap.NewNop())
	require.NoError(t, err)

	assert.False(t, p.IsEnabled())
	assert.NoError(t, p.Stop())
	assert.NoError(t, p.Stop())
}

func TestProfiler_RequiresServerAddress(t *testing.T) {
	_, err := NewProfiler(ProfilerConfig{Enabled: true, ApplicationName: "fatoora"}, zap.NewNop())
	assert.Error(t, err)
}

func TestEnableSpanProfiles_DisabledTracing(t *testing.T) {
	tp, err := NewTracerProvider(context.Background(), Config{Enabled: false}, zap.NewNop())
	require.NoError(t, err)

	tp.EnableSpanProfiles()

	assert.False(t, tp.spanProfilesEnabled)
}
