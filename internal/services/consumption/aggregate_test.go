package consumption

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/j-veylop/neon-usage-tui/internal/models"
)

const (
	dayA = "2026-10-01T00:00:00Z"
	dayB = "2026-10-02T00:00:00Z"
	dayC = "2026-10-03T00:00:00Z"
)

func sample(name models.MetricName, v float64) models.MetricSample {
	return models.MetricSample{Name: name, Value: v}
}

func response(projects ...models.ProjectConsumption) *models.ConsumptionResponse {
	return &models.ConsumptionResponse{Projects: projects}
}

func project(id string, days ...models.ConsumptionDay) models.ProjectConsumption {
	return models.ProjectConsumption{
		ProjectID: id,
		Periods:   []models.ConsumptionPeriod{{PeriodID: "p-" + id, Consumption: days}},
	}
}

func day(start string, samples ...models.MetricSample) models.ConsumptionDay {
	return models.ConsumptionDay{TimeframeStart: start, Metrics: samples}
}

func TestAggregate_EndToEndExample(t *testing.T) {
	resp := response(project("proj-1",
		day(dayA,
			sample(models.MetricComputeUnitSeconds, 3600),
			sample(models.MetricRootBranchBytesMonth, 2147483648),
		),
		day(dayB,
			sample(models.MetricComputeUnitSeconds, 1800),
			sample(models.MetricPublicNetworkTransferBytes, 536870912),
		),
	))

	got := Aggregate(resp)

	want := []models.DailyUsage{
		{Date: dayA, Compute: 3600, StorageRoot: 2.0},
		{Date: dayB, Compute: 1800, DataTransfer: 0.5},
	}
	assert.Equal(t, want, got)

	summary := models.Summarize(got)
	assert.InDelta(t, 1.5, summary.ComputeHours(), 1e-9)
	assert.InDelta(t, 1.0, summary.AvgStorage, 1e-9)
	assert.InDelta(t, 0.5, summary.DataTransfer, 1e-9)
	assert.Zero(t, summary.PeakExtraBranches)
}

func TestAggregate_EmptyInput(t *testing.T) {
	tests := []struct {
		resp *models.ConsumptionResponse
		name string
	}{
		{name: "nil response", resp: nil},
		{name: "no projects", resp: response()},
		{name: "project without periods", resp: response(models.ProjectConsumption{ProjectID: "a"})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Aggregate(tt.resp)
			require.NotNil(t, got)
			assert.Empty(t, got)
		})
	}
}

func TestAggregate_UnknownMetricsIgnored(t *testing.T) {
	base := response(project("a",
		day(dayA, sample(models.MetricComputeUnitSeconds, 100)),
	))
	withUnknown := response(project("a",
		day(dayA,
			sample(models.MetricComputeUnitSeconds, 100),
			sample("future_metric_bytes", 9e12),
			sample("", 5),
		),
	))

	assert.Equal(t, Aggregate(base), Aggregate(withUnknown))
}

func TestAggregate_MergeOrderDoesNotMatter(t *testing.T) {
	a := project("a",
		day(dayB, sample(models.MetricComputeUnitSeconds, 10)),
		day(dayA, sample(models.MetricExtraBranchesMonth, 2)),
	)
	b := project("b",
		day(dayA,
			sample(models.MetricComputeUnitSeconds, 5),
			sample(models.MetricChildBranchBytesMonth, BytesPerGiB),
		),
	)

	forward := Aggregate(response(a, b))
	backward := Aggregate(response(b, a))

	require.Len(t, forward, 2)
	assert.Equal(t, forward, backward)
	assert.Equal(t, 5.0, forward[0].Compute)
	assert.Equal(t, 2.0, forward[0].ExtraBranches)
	assert.Equal(t, 1.0, forward[0].StorageChild)
	assert.Equal(t, 10.0, forward[1].Compute)
}

func TestAggregate_UnitConversion(t *testing.T) {
	tests := []struct {
		check func(t *testing.T, d models.DailyUsage)
		name  string
		in    models.MetricSample
	}{
		{
			name:  "compute stays in seconds",
			in:    sample(models.MetricComputeUnitSeconds, 7200),
			check: func(t *testing.T, d models.DailyUsage) { assert.Equal(t, 7200.0, d.Compute) },
		},
		{
			name:  "root bytes to GiB",
			in:    sample(models.MetricRootBranchBytesMonth, 3*BytesPerGiB),
			check: func(t *testing.T, d models.DailyUsage) { assert.Equal(t, 3.0, d.StorageRoot) },
		},
		{
			name:  "child bytes to GiB",
			in:    sample(models.MetricChildBranchBytesMonth, BytesPerGiB/4),
			check: func(t *testing.T, d models.DailyUsage) { assert.Equal(t, 0.25, d.StorageChild) },
		},
		{
			name:  "history bytes to GiB",
			in:    sample(models.MetricInstantRestoreBytesMonth, BytesPerGiB),
			check: func(t *testing.T, d models.DailyUsage) { assert.Equal(t, 1.0, d.StorageHistory) },
		},
		{
			name:  "private transfer counts as transfer",
			in:    sample(models.MetricPrivateNetworkTransferBytes, BytesPerGiB/2),
			check: func(t *testing.T, d models.DailyUsage) { assert.Equal(t, 0.5, d.DataTransfer) },
		},
		{
			name:  "extra branches stay a count",
			in:    sample(models.MetricExtraBranchesMonth, 4),
			check: func(t *testing.T, d models.DailyUsage) { assert.Equal(t, 4.0, d.ExtraBranches) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Aggregate(response(project("a", day(dayA, tt.in))))
			require.Len(t, got, 1)
			tt.check(t, got[0])
		})
	}
}

func TestAggregate_PublicAndPrivateTransferSum(t *testing.T) {
	got := Aggregate(response(project("a", day(dayA,
		sample(models.MetricPublicNetworkTransferBytes, BytesPerGiB),
		sample(models.MetricPrivateNetworkTransferBytes, BytesPerGiB),
	))))

	require.Len(t, got, 1)
	assert.Equal(t, 2.0, got[0].DataTransfer)
}

func TestAggregate_GroupsByDateAcrossPeriods(t *testing.T) {
	resp := response(models.ProjectConsumption{
		ProjectID: "a",
		Periods: []models.ConsumptionPeriod{
			{PeriodID: "1", Consumption: []models.ConsumptionDay{
				day(dayC, sample(models.MetricComputeUnitSeconds, 1)),
				day(dayA, sample(models.MetricComputeUnitSeconds, 2)),
			}},
			{PeriodID: "2", Consumption: []models.ConsumptionDay{
				day(dayA, sample(models.MetricComputeUnitSeconds, 3)),
			}},
		},
	})

	got := Aggregate(resp)

	require.Len(t, got, 2)
	assert.Equal(t, dayA, got[0].Date)
	assert.Equal(t, 5.0, got[0].Compute)
	assert.Equal(t, dayC, got[1].Date)
	assert.Equal(t, 1.0, got[1].Compute)
}

func TestAggregate_DayWithoutSamplesKept(t *testing.T) {
	got := Aggregate(response(project("a", day(dayB))))

	require.Len(t, got, 1)
	assert.Equal(t, models.DailyUsage{Date: dayB}, got[0])
}

func TestAggregate_SkipsNegativeAndNaN(t *testing.T) {
	got := Aggregate(response(project("a", day(dayA,
		sample(models.MetricComputeUnitSeconds, 10),
		sample(models.MetricComputeUnitSeconds, -4),
		sample(models.MetricComputeUnitSeconds, math.NaN()),
	))))

	require.Len(t, got, 1)
	assert.Equal(t, 10.0, got[0].Compute)
}

func TestAggregate_SortedAscending(t *testing.T) {
	got := Aggregate(response(
		project("a", day(dayC), day(dayA)),
		project("b", day(dayB)),
	))

	dates := make([]string, len(got))
	for i, d := range got {
		dates[i] = d.Date
	}
	assert.Equal(t, []string{dayA, dayB, dayC}, dates)
}

func TestMetricTargets_MatchAllMetrics(t *testing.T) {
	assert.Len(t, metricTargets, len(models.AllMetrics))
	for _, m := range models.AllMetrics {
		_, ok := metricTargets[m]
		assert.True(t, ok, "no target for %s", m)
	}
}
