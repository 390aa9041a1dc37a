// Package models defines data structures and domain types.
package models

import (
	"time"

	"github.com/samber/lo"
)

// DailyUsage is the consumption of every selected project summed for one calendar day.
type DailyUsage struct {
	Date           string  `json:"date"`
	Compute        float64 `json:"compute"`        // Seconds
	StorageRoot    float64 `json:"storageRoot"`    // GiB
	StorageChild   float64 `json:"storageChild"`   // GiB
	StorageHistory float64 `json:"storageHistory"` // GiB
	DataTransfer   float64 `json:"dataTransfer"`   // GiB, public + private egress
	ExtraBranches  float64 `json:"extraBranches"`  // Count
}

// Day parses the record's date key.
func (d DailyUsage) Day() (time.Time, error) {
	return time.Parse(time.RFC3339, d.Date)
}

// TotalStorage returns root + child + history storage in GiB.
func (d DailyUsage) TotalStorage() float64 {
	return d.StorageRoot + d.StorageChild + d.StorageHistory
}

// Project is an entry of the organization's project list.
type Project struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// UsageSummary holds the dashboard's headline numbers.
type UsageSummary struct {
	ComputeSeconds    float64
	StorageSum        float64
	AvgStorage        float64
	DataTransfer      float64
	PeakExtraBranches float64
	Days              int
}

// ComputeHours converts the summed compute time to hours.
func (s UsageSummary) ComputeHours() float64 {
	return s.ComputeSeconds / 3600
}

// Summarize reduces a daily series to the summary cards. Compute and transfer
// are summed, storage is averaged per day and extra branches take the peak.
func Summarize(records []DailyUsage) UsageSummary {
	summary := UsageSummary{Days: len(records)}
	if len(records) == 0 {
		return summary
	}

	summary.ComputeSeconds = lo.SumBy(records, func(d DailyUsage) float64 { return d.Compute })
	summary.StorageSum = lo.SumBy(records, DailyUsage.TotalStorage)
	summary.DataTransfer = lo.SumBy(records, func(d DailyUsage) float64 { return d.DataTransfer })
	summary.PeakExtraBranches = lo.MaxBy(records, func(a, b DailyUsage) bool {
		return a.ExtraBranches > b.ExtraBranches
	}).ExtraBranches
	summary.AvgStorage = summary.StorageSum / float64(len(records))

	return summary
}

// ComputeSeries extracts the compute seconds of each record in order.
func ComputeSeries(records []DailyUsage) []float64 {
	return lo.Map(records, func(d DailyUsage, _ int) float64 { return d.Compute })
}

// TransferSeries extracts the egress GiB of each record in order.
func TransferSeries(records []DailyUsage) []float64 {
	return lo.Map(records, func(d DailyUsage, _ int) float64 { return d.DataTransfer })
}

// UsageResult is one completed aggregation for a project filter.
type UsageResult struct {
	FetchedAt  time.Time
	Range      DateRange
	Records    []DailyUsage
	ProjectIDs []string
	Seq        uint64
	FromCache  bool
}

// Filtered reports whether the result is restricted to a subset of projects.
func (r *UsageResult) Filtered() bool {
	return r != nil && len(r.ProjectIDs) > 0
}
