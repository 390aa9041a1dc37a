package models

// MetricName identifies a consumption metric reported by the billing API.
type MetricName string

// Metrics consumed by the dashboard.
const (
	MetricComputeUnitSeconds          MetricName = "compute_unit_seconds"
	MetricRootBranchBytesMonth        MetricName = "root_branch_bytes_month"
	MetricChildBranchBytesMonth       MetricName = "child_branch_bytes_month"
	MetricInstantRestoreBytesMonth    MetricName = "instant_restore_bytes_month"
	MetricPublicNetworkTransferBytes  MetricName = "public_network_transfer_bytes"
	MetricPrivateNetworkTransferBytes MetricName = "private_network_transfer_bytes"
	MetricExtraBranchesMonth          MetricName = "extra_branches_month"
)

// AllMetrics lists every metric the aggregator understands, in request order.
var AllMetrics = []MetricName{
	MetricComputeUnitSeconds,
	MetricRootBranchBytesMonth,
	MetricChildBranchBytesMonth,
	MetricInstantRestoreBytesMonth,
	MetricPublicNetworkTransferBytes,
	MetricPrivateNetworkTransferBytes,
	MetricExtraBranchesMonth,
}

// MetricSample is one (name, value) observation for a single day.
type MetricSample struct {
	Name  MetricName
	Value float64
}

// ConsumptionDay holds the samples of one daily timeframe.
type ConsumptionDay struct {
	TimeframeStart string
	TimeframeEnd   string
	Metrics        []MetricSample
}

// ConsumptionPeriod is one billing period of a project.
type ConsumptionPeriod struct {
	PeriodID    string
	Plan        string
	Consumption []ConsumptionDay
}

// ProjectConsumption is a project's consumption history.
type ProjectConsumption struct {
	ProjectID string
	Periods   []ConsumptionPeriod
}

// ConsumptionResponse is the parsed consumption history document.
type ConsumptionResponse struct {
	Projects []ProjectConsumption
}
