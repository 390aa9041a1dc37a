package models

import (
	"math"
	"testing"
	"time"
)

func TestSummarize_Empty(t *testing.T) {
	got := Summarize(nil)
	if got != (UsageSummary{}) {
		t.Errorf("Summarize(nil) = %+v, want zero summary", got)
	}
	if got.ComputeHours() != 0 {
		t.Errorf("ComputeHours() = %v, want 0", got.ComputeHours())
	}
}

func TestSummarize_SumVersusMax(t *testing.T) {
	records := []DailyUsage{
		{Date: "2026-10-01T00:00:00Z", Compute: 3600, ExtraBranches: 2},
		{Date: "2026-10-02T00:00:00Z", Compute: 1800, ExtraBranches: 5},
		{Date: "2026-10-03T00:00:00Z", Compute: 5400, ExtraBranches: 3},
	}

	got := Summarize(records)

	if got.PeakExtraBranches != 5 {
		t.Errorf("PeakExtraBranches = %v, want 5 (maximum, not sum)", got.PeakExtraBranches)
	}
	if got.ComputeSeconds != 10800 {
		t.Errorf("ComputeSeconds = %v, want 10800 (sum, not max)", got.ComputeSeconds)
	}
	if got.ComputeHours() != 3 {
		t.Errorf("ComputeHours() = %v, want 3", got.ComputeHours())
	}
	if got.Days != 3 {
		t.Errorf("Days = %d, want 3", got.Days)
	}
}

func TestSummarize_StorageAverage(t *testing.T) {
	records := []DailyUsage{
		{StorageRoot: 1, StorageChild: 1, StorageHistory: 1, DataTransfer: 0.25},
		{StorageRoot: 2, StorageChild: 0, StorageHistory: 1, DataTransfer: 0.75},
	}

	got := Summarize(records)

	if got.StorageSum != 6 {
		t.Errorf("StorageSum = %v, want 6", got.StorageSum)
	}
	if got.AvgStorage != 3 {
		t.Errorf("AvgStorage = %v, want 3", got.AvgStorage)
	}
	if math.Abs(got.DataTransfer-1) > 1e-9 {
		t.Errorf("DataTransfer = %v, want 1", got.DataTransfer)
	}
}

func TestDailyUsage_Day(t *testing.T) {
	d := DailyUsage{Date: "2026-10-05T00:00:00Z"}
	day, err := d.Day()
	if err != nil {
		t.Fatalf("Day() error = %v", err)
	}
	if !day.Equal(time.Date(2026, 10, 5, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Day() = %v", day)
	}

	if _, err := (DailyUsage{Date: "yesterday"}).Day(); err == nil {
		t.Error("Day() should fail for a non RFC 3339 key")
	}
}

func TestSeries(t *testing.T) {
	records := []DailyUsage{
		{Compute: 10, DataTransfer: 0.5},
		{Compute: 20, DataTransfer: 1.5},
	}

	compute := ComputeSeries(records)
	if len(compute) != 2 || compute[0] != 10 || compute[1] != 20 {
		t.Errorf("ComputeSeries() = %v", compute)
	}

	transfer := TransferSeries(records)
	if len(transfer) != 2 || transfer[0] != 0.5 || transfer[1] != 1.5 {
		t.Errorf("TransferSeries() = %v", transfer)
	}
}

func TestAllMetrics(t *testing.T) {
	seen := make(map[MetricName]bool, len(AllMetrics))
	for _, m := range AllMetrics {
		if seen[m] {
			t.Errorf("%s listed twice", m)
		}
		seen[m] = true
	}
	if len(AllMetrics) != 7 {
		t.Errorf("AllMetrics has %d entries, want 7", len(AllMetrics))
	}
}

func TestDateRange(t *testing.T) {
	r := DateRange{
		From: time.Date(2026, 9, 16, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC),
	}

	if got := r.FromParam(); got != "2026-09-16T00:00:00.000Z" {
		t.Errorf("FromParam() = %q", got)
	}
	if got := r.ToParam(); got != "2026-10-17T00:00:00.000Z" {
		t.Errorf("ToParam() = %q", got)
	}
	if got := r.Days(); got != 31 {
		t.Errorf("Days() = %d, want 31", got)
	}
	if got := (DateRange{}).Days(); got != 0 {
		t.Errorf("zero range Days() = %d, want 0", got)
	}
	if got := (DateRange{}).String(); got != "-" {
		t.Errorf("zero range String() = %q", got)
	}
}

func TestUpstreamCall_Failed(t *testing.T) {
	tests := []struct {
		name string
		call UpstreamCall
		want bool
	}{
		{"OK", UpstreamCall{StatusCode: 200}, false},
		{"Status", UpstreamCall{StatusCode: 403}, true},
		{"Transport", UpstreamCall{Error: "dial tcp: timeout"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.call.Failed(); got != tt.want {
				t.Errorf("Failed() = %v, want %v", got, tt.want)
			}
		})
	}
}
