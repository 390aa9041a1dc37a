package consumption

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/j-veylop/neon-usage-tui/internal/logger"
	"github.com/j-veylop/neon-usage-tui/internal/models"
)

// ErrMalformedPayload is returned when the consumption document cannot be
// mapped onto the projects → periods → consumption → metrics shape.
var ErrMalformedPayload = errors.New("malformed consumption payload")

// Field policy of the parse step:
//
//	projects, periods, consumption  missing/null → empty; not a list → ErrMalformedPayload
//	timeframe_start                 RFC 3339 instant or bare YYYY-MM-DD date; anything else → day skipped
//	metrics                         missing/null → day kept with no samples; not a list → ErrMalformedPayload
//	metric_name                     missing or not a string → sample skipped
//	value                           missing/null → 0; non-numeric or negative → 0 and counted in DroppedValues
//
// Numeric strings are accepted as numbers. Unknown fields are ignored.
type rawDocument struct {
	Projects []rawProject `json:"projects"`
}

type rawProject struct {
	ProjectID looseString `json:"project_id"`
	Periods   []rawPeriod `json:"periods"`
}

type rawPeriod struct {
	PeriodID    looseString `json:"period_id"`
	PeriodPlan  looseString `json:"period_plan"`
	Consumption []rawDay    `json:"consumption"`
}

type rawDay struct {
	TimeframeStart looseString `json:"timeframe_start"`
	TimeframeEnd   looseString `json:"timeframe_end"`
	Metrics        []rawMetric `json:"metrics"`
}

type rawMetric struct {
	MetricName looseString `json:"metric_name"`
	Value      looseNumber `json:"value"`
}

// looseString keeps JSON strings and silently ignores any other type.
type looseString string

func (s *looseString) UnmarshalJSON(b []byte) error {
	var v string
	if err := json.Unmarshal(b, &v); err == nil {
		*s = looseString(v)
	}
	return nil
}

// looseNumber accepts JSON numbers and numeric strings.
type looseNumber struct {
	value   float64
	present bool
	valid   bool
}

func (n *looseNumber) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	n.present = true

	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		n.value, n.valid = f, true
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			n.value, n.valid = f, true
		}
	}
	return nil
}

// ParseStats counts what the parse step had to drop.
type ParseStats struct {
	Projects       int
	Days           int
	Samples        int
	SkippedDays    int
	SkippedSamples int
	DroppedValues  int
}

// ParseConsumption decodes a consumption history document into its typed form.
func ParseConsumption(data []byte) (*models.ConsumptionResponse, error) {
	resp, stats, err := parseConsumption(data)
	if err != nil {
		return nil, err
	}
	if stats.SkippedDays > 0 || stats.SkippedSamples > 0 || stats.DroppedValues > 0 {
		logger.Warn("consumption payload had unusable fields",
			"skipped_days", stats.SkippedDays,
			"skipped_samples", stats.SkippedSamples,
			"dropped_values", stats.DroppedValues,
		)
	}
	return resp, nil
}

func parseConsumption(data []byte) (*models.ConsumptionResponse, ParseStats, error) {
	var stats ParseStats

	var doc rawDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, stats, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}

	resp := &models.ConsumptionResponse{
		Projects: make([]models.ProjectConsumption, 0, len(doc.Projects)),
	}

	for _, rp := range doc.Projects {
		stats.Projects++
		project := models.ProjectConsumption{ProjectID: string(rp.ProjectID)}

		for _, rper := range rp.Periods {
			period := models.ConsumptionPeriod{
				PeriodID: string(rper.PeriodID),
				Plan:     string(rper.PeriodPlan),
			}

			for _, rd := range rper.Consumption {
				dateKey, ok := normalizeDateKey(string(rd.TimeframeStart))
				if !ok {
					stats.SkippedDays++
					continue
				}
				stats.Days++

				day := models.ConsumptionDay{
					TimeframeStart: dateKey,
					TimeframeEnd:   string(rd.TimeframeEnd),
					Metrics:        make([]models.MetricSample, 0, len(rd.Metrics)),
				}

				for _, rm := range rd.Metrics {
					if rm.MetricName == "" {
						stats.SkippedSamples++
						continue
					}
					value := rm.Value.value
					if rm.Value.present && (!rm.Value.valid || value < 0) {
						stats.DroppedValues++
						value = 0
					}
					stats.Samples++
					day.Metrics = append(day.Metrics, models.MetricSample{
						Name:  models.MetricName(rm.MetricName),
						Value: value,
					})
				}

				period.Consumption = append(period.Consumption, day)
			}

			project.Periods = append(project.Periods, period)
		}

		resp.Projects = append(resp.Projects, project)
	}

	return resp, stats, nil
}

// normalizeDateKey rewrites a timeframe start as a UTC RFC 3339 string so that
// lexicographic and chronological order agree. A bare calendar date is taken
// as UTC midnight.
func normalizeDateKey(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	for _, layout := range []string{time.RFC3339Nano, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Format(time.RFC3339), true
		}
	}
	return "", false
}
