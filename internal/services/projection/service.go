// Package projection extrapolates the recent compute rate of a usage result
// over a full window and compares it to the configured budget.
package projection

import (
	"fmt"
	"math"
	"sync"

	"github.com/samber/lo"

	"github.com/j-veylop/neon-usage-tui/internal/models"
)

const (
	// WindowDays is the length of the window a projection covers.
	WindowDays = 30
	// RateDays is how many of the newest days make up the recent rate.
	RateDays = 7

	lowConfThreshold = 7
	medConfThreshold = 21
)

// Service computes projections and keeps the newest one.
type Service struct {
	mu sync.RWMutex

	budgetHours float64
	lastSeq     uint64
	last        *models.ComputeProjection
}

// New creates a projection service for a compute budget in hours. A budget
// of 0 leaves the status unknown.
func New(budgetHours float64) *Service {
	return &Service{budgetHours: max(budgetHours, 0)}
}

// Calculate projects result, reusing the cached projection when result was
// already seen.
func (s *Service) Calculate(result *models.UsageResult) *models.ComputeProjection {
	if result == nil {
		return nil
	}

	s.mu.RLock()
	if s.last != nil && s.lastSeq == result.Seq {
		cached := s.last
		s.mu.RUnlock()
		return cached
	}
	s.mu.RUnlock()

	proj := Project(result.Records, s.budgetHours)

	s.mu.Lock()
	if result.Seq >= s.lastSeq {
		s.lastSeq = result.Seq
		s.last = proj
	}
	s.mu.Unlock()

	return proj
}

// Cached returns the newest projection, or nil.
func (s *Service) Cached() *models.ComputeProjection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// Project extrapolates records, ordered ascending by date, over WindowDays.
func Project(records []models.DailyUsage, budgetHours float64) *models.ComputeProjection {
	proj := &models.ComputeProjection{
		Status:      models.ProjectionUnknown,
		Confidence:  confidence(len(records)),
		BudgetHours: budgetHours,
		DataPoints:  len(records),
	}
	if len(records) == 0 {
		proj.VsPrior = formatComparison(0, 0)
		return proj
	}

	recentStart := max(len(records)-RateDays, 0)
	priorStart := max(recentStart-RateDays, 0)

	proj.RecentRate = dailyRate(records[recentStart:])
	proj.PriorRate = dailyRate(records[priorStart:recentStart])
	proj.WindowHours = models.Summarize(records).ComputeHours()

	// Days already observed keep their actual value; the rest run at the recent rate.
	remaining := max(WindowDays-len(records), 0)
	proj.ProjectedHours = proj.WindowHours + proj.RecentRate*float64(remaining)
	if len(records) >= WindowDays {
		proj.ProjectedHours = proj.RecentRate * WindowDays
	}

	proj.VsPrior = formatComparison(proj.RecentRate, proj.PriorRate)
	proj.Status = status(proj.WindowHours, proj.ProjectedHours, budgetHours)

	return proj
}

func dailyRate(days []models.DailyUsage) float64 {
	if len(days) == 0 {
		return 0
	}
	return lo.SumBy(days, func(d models.DailyUsage) float64 { return d.Compute }) / 3600 / float64(len(days))
}

func confidence(dataPoints int) string {
	switch {
	case dataPoints < lowConfThreshold:
		return "low"
	case dataPoints < medConfThreshold:
		return "medium"
	default:
		return "high"
	}
}

func status(used, projected, budget float64) models.ProjectionStatus {
	switch {
	case budget <= 0:
		return models.ProjectionUnknown
	case used >= budget:
		return models.ProjectionCritical
	case projected >= budget:
		return models.ProjectionWarning
	default:
		return models.ProjectionSafe
	}
}

func formatComparison(current, reference float64) string {
	if reference <= 0 {
		return "No prior week to compare"
	}
	diff := ((current - reference) / reference) * 100
	if math.Abs(diff) < 10 {
		return "Similar to the prior week"
	} else if diff > 0 {
		return fmt.Sprintf("%.0f%% higher than the prior week", diff)
	}
	return fmt.Sprintf("%.0f%% lower than the prior week", -diff)
}
