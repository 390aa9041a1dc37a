package consumption

import (
	"sort"

	"github.com/samber/lo"

	"github.com/j-veylop/neon-usage-tui/internal/models"
)

// BytesPerGiB converts byte-valued metrics to gibibytes.
const BytesPerGiB = 1 << 30

// metricTarget tells the aggregator where a metric lands and in what unit.
type metricTarget struct {
	field   func(*models.DailyUsage) *float64
	divisor float64
}

var metricTargets = map[models.MetricName]metricTarget{
	models.MetricComputeUnitSeconds: {
		field:   func(d *models.DailyUsage) *float64 { return &d.Compute },
		divisor: 1,
	},
	models.MetricRootBranchBytesMonth: {
		field:   func(d *models.DailyUsage) *float64 { return &d.StorageRoot },
		divisor: BytesPerGiB,
	},
	models.MetricChildBranchBytesMonth: {
		field:   func(d *models.DailyUsage) *float64 { return &d.StorageChild },
		divisor: BytesPerGiB,
	},
	models.MetricInstantRestoreBytesMonth: {
		field:   func(d *models.DailyUsage) *float64 { return &d.StorageHistory },
		divisor: BytesPerGiB,
	},
	models.MetricPublicNetworkTransferBytes: {
		field:   func(d *models.DailyUsage) *float64 { return &d.DataTransfer },
		divisor: BytesPerGiB,
	},
	models.MetricPrivateNetworkTransferBytes: {
		field:   func(d *models.DailyUsage) *float64 { return &d.DataTransfer },
		divisor: BytesPerGiB,
	},
	models.MetricExtraBranchesMonth: {
		field:   func(d *models.DailyUsage) *float64 { return &d.ExtraBranches },
		divisor: 1,
	},
}

// Aggregate merges every project and period of resp into one record per
// timeframe start, sorted by date. Unknown metrics are ignored so new upstream
// metrics never break the dashboard. The result is never nil.
func Aggregate(resp *models.ConsumptionResponse) []models.DailyUsage {
	byDate := make(map[string]*models.DailyUsage)

	if resp != nil {
		for _, project := range resp.Projects {
			for _, period := range project.Periods {
				for _, day := range period.Consumption {
					accumulateDay(byDate, day)
				}
			}
		}
	}

	dates := lo.Keys(byDate)
	sort.Strings(dates)

	out := make([]models.DailyUsage, 0, len(dates))
	for _, date := range dates {
		out = append(out, *byDate[date])
	}
	return out
}

func accumulateDay(byDate map[string]*models.DailyUsage, day models.ConsumptionDay) {
	record, ok := byDate[day.TimeframeStart]
	if !ok {
		record = &models.DailyUsage{Date: day.TimeframeStart}
		byDate[day.TimeframeStart] = record
	}

	for _, sample := range day.Metrics {
		target, known := metricTargets[sample.Name]
		if !known {
			continue
		}
		// Fields only grow; negative and NaN samples contribute nothing.
		if !(sample.Value > 0) {
			continue
		}
		*target.field(record) += sample.Value / target.divisor
	}
}
