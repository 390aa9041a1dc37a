package models

// ProjectionStatus indicates how the projected compute compares to the budget.
type ProjectionStatus string

const (
	ProjectionSafe     ProjectionStatus = "SAFE"
	ProjectionWarning  ProjectionStatus = "WARNING"
	ProjectionCritical ProjectionStatus = "CRITICAL"
	ProjectionUnknown  ProjectionStatus = "UNKNOWN"
)

// ComputeProjection extrapolates the recent compute rate over a full window.
type ComputeProjection struct {
	Status         ProjectionStatus
	Confidence     string  // "low", "medium" or "high"
	VsPrior        string  // Comparison text vs the preceding week
	RecentRate     float64 // Compute hours per day over the newest week
	PriorRate      float64 // Compute hours per day over the week before
	WindowHours    float64 // Compute hours already used in the window
	ProjectedHours float64 // Compute hours for a full window at RecentRate
	BudgetHours    float64 // 0 when no budget is configured
	DataPoints     int     // Days the projection is based on
}

// HasData reports whether any day fed the projection.
func (p *ComputeProjection) HasData() bool {
	return p != nil && p.DataPoints > 0
}
