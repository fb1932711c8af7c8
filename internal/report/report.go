// Package report aggregates persisted therapy-session trials into chart-ready
// series: autonomy per stimulus category, performance over time and load
// averages with a half-over-half trend. All functions are pure; loading the
// data is the report service's job.
package report

import (
	"math"
	"sort"
)

// Trial outcomes as stored on therapy_session_trials.
const (
	OutcomeIndependent = "independent"
	OutcomePrompted    = "prompted"
	OutcomeError       = "error"
)

// UncategorizedLabel groups trials whose stimulus reference is missing.
const UncategorizedLabel = "uncategorized"

// Trial is the slice of a persisted trial that reports care about.
type Trial struct {
	Outcome  string
	Category string   // empty when the stimulus reference is missing
	Load     *float64 // optional numeric load value
}

// Session is one persisted therapy session with its trials, in
// chronological order.
type Session struct {
	ID     string
	Date   string // ISO date, used as the chart label
	Trials []Trial
}

// CategoryAutonomy is one bar of the autonomy-by-category chart.
type CategoryAutonomy struct {
	Category    string `json:"category"`
	Total       int    `json:"total"`
	Independent int    `json:"independent"`
	Percent     int    `json:"percent"`
}

// AutonomyByCategory groups trials by category label (falling back to
// "uncategorized"), computes the rounded percentage of independent outcomes
// per category and returns entries sorted descending by that percentage.
// An empty trial set yields an empty series.
func AutonomyByCategory(trials []Trial) []CategoryAutonomy {
	type bucket struct {
		total, independent int
	}
	buckets := make(map[string]*bucket)
	order := make([]string, 0)

	for _, t := range trials {
		cat := t.Category
		if cat == "" {
			cat = UncategorizedLabel
		}
		b, ok := buckets[cat]
		if !ok {
			b = &bucket{}
			buckets[cat] = b
			order = append(order, cat)
		}
		b.total++
		if t.Outcome == OutcomeIndependent {
			b.independent++
		}
	}

	out := make([]CategoryAutonomy, 0, len(order))
	for _, cat := range order {
		b := buckets[cat]
		out = append(out, CategoryAutonomy{
			Category:    cat,
			Total:       b.total,
			Independent: b.independent,
			Percent:     percent(b.independent, b.total),
		})
	}
	// Stable sort keeps first-encountered order for equal percentages.
	sort.SliceStable(out, func(i, j int) bool { return out[i].Percent > out[j].Percent })
	return out
}

// PerformancePoint is one session on the performance-over-time chart.
type PerformancePoint struct {
	SessionID       string `json:"session_id"`
	Date            string `json:"date"`
	Trials          int    `json:"trials"`
	SuccessPercent  int    `json:"success_percent"`  // independent + prompted
	PromptedPercent int    `json:"prompted_percent"`
	ErrorPercent    int    `json:"error_percent"`
}

// PerformanceOverTime builds one point per session that has at least one
// trial. Sessions with zero trials are skipped entirely — they are not
// represented as zero points.
func PerformanceOverTime(sessions []Session) []PerformancePoint {
	points := make([]PerformancePoint, 0, len(sessions))
	for _, s := range sessions {
		total := len(s.Trials)
		if total == 0 {
			continue
		}
		var independent, prompted, failed int
		for _, t := range s.Trials {
			switch t.Outcome {
			case OutcomeIndependent:
				independent++
			case OutcomePrompted:
				prompted++
			case OutcomeError:
				failed++
			}
		}
		points = append(points, PerformancePoint{
			SessionID:       s.ID,
			Date:            s.Date,
			Trials:          total,
			SuccessPercent:  percent(independent+prompted, total),
			PromptedPercent: percent(prompted, total),
			ErrorPercent:    percent(failed, total),
		})
	}
	return points
}

// LoadSummary is the mean of a numeric series with an optional trend.
type LoadSummary struct {
	Count int      `json:"count"`
	Mean  float64  `json:"mean"`
	Trend *float64 `json:"trend,omitempty"`
}

// LoadTrend computes the mean of a chronologically ordered series, rounded
// to one decimal. With at least 4 points it also computes the trend:
// mean(second half) − mean(first half); for odd lengths the middle point
// belongs to the second half. Fewer than 4 points yields no trend value.
// An empty series yields a nil summary — no-data, never NaN.
func LoadTrend(values []float64) *LoadSummary {
	n := len(values)
	if n == 0 {
		return nil
	}
	summary := &LoadSummary{Count: n, Mean: round1(mean(values))}
	if n >= 4 {
		mid := n / 2
		trend := round1(mean(values[mid:]) - mean(values[:mid]))
		summary.Trend = &trend
	}
	return summary
}

// SessionLoads flattens the optional load values of every trial in a session
// set, preserving chronological order.
func SessionLoads(sessions []Session) []float64 {
	var loads []float64
	for _, s := range sessions {
		for _, t := range s.Trials {
			if t.Load != nil {
				loads = append(loads, *t.Load)
			}
		}
	}
	return loads
}

func percent(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
