package metrics_test

import (
	"context"
	"testing"
	"time"

	"geosite/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestPipeline_Records(t *testing.T) {
	reg := prometheus.NewRegistry()
	p, err := metrics.NewPipeline(reg)
	require.NoError(t, err)

	p.ObserveRun("OK", time.Unix(1700000000, 0))
	p.ObserveRun("FETCH", time.Unix(1700000100, 0))
	p.SetDomains(42)
	p.SetArtifactSize("json", 1234)
	p.ObservePhase("fetch", 250*time.Millisecond)

	n, err := testutil.GatherAndCount(reg, "geosite_runs_total")
	require.NoError(t, err)
	require.Equal(t, 2, n)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	values := map[string]float64{}
	for _, mf := range mfs {
		for _, m := range mf.GetMetric() {
			if m.GetGauge() != nil {
				values[mf.GetName()] = m.GetGauge().GetValue()
			}
		}
	}
	require.InDelta(t, 42, values["geosite_domains"], 0)
	require.InDelta(t, 1234, values["geosite_artifact_bytes"], 0)
	require.InDelta(t, 1700000000, values["geosite_last_success_timestamp_seconds"], 0)
}

func TestPipeline_DoubleRegisterFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := metrics.NewPipeline(reg)
	require.NoError(t, err)

	_, err = metrics.NewPipeline(reg)
	require.Error(t, err)
}

func TestPipeline_NilIsNoop(t *testing.T) {
	var p *metrics.Pipeline
	require.NotPanics(t, func() {
		p.ObserveRun("OK", time.Now())
		p.ObservePhase("fetch", time.Second)
		p.SetDomains(1)
		p.SetArtifactSize("srs", 1)
	})
}

func TestNewMeterProvider(t *testing.T) {
	reg := prometheus.NewRegistry()
	mp, err := metrics.NewMeterProvider(reg)
	require.NoError(t, err)

	c, err := mp.Meter("test").Int64Counter("geosite_test_events")
	require.NoError(t, err)
	c.Add(context.Background(), 3)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, mfs)
	require.NoError(t, mp.Shutdown(context.Background()))
}
