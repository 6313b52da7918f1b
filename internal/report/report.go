// Package report defines the stable, JSON-serializable report payload
// (§6 report payload table) produced by a conformance run.
package report

import "time"

// PropertyResult is one property's outcome within a RequestReport (§6).
type PropertyResult struct {
	PropertyName        string             `json:"propertyName"`
	PropertyDescription string             `json:"propertyDescription"`
	RFCReference        string             `json:"rfcReference"`
	Passed              bool               `json:"passed"`
	FailureReason       string             `json:"failureReason,omitempty"`
	Details             string             `json:"details,omitempty"`
	ExecutionTimeMs     float64            `json:"executionTimeMs"`
	Metrics             map[string]float64 `json:"metrics,omitempty"`
}

// RequestReport is the per-(request,response) outcome (§3, §6).
type RequestReport struct {
	ID                 string           `json:"id"`
	RequestMethod      string           `json:"requestMethod"`
	RequestPath        string           `json:"requestPath"`
	ResponseStatusCode int              `json:"responseStatusCode"`
	OverallPassed      bool             `json:"overallPassed"`
	TotalProperties    int              `json:"totalProperties"`
	PassedProperties   int              `json:"passedProperties"`
	FailedProperties   int              `json:"failedProperties"`
	ExecutionTimeMs    float64          `json:"executionTimeMs"`
	PropertyResults    []PropertyResult `json:"propertyResults"`
}

// Summary aggregates a run's RequestReports (§6).
type Summary struct {
	OverallPassRate         float64 `json:"overallPassRate"`
	TotalTests              int     `json:"totalTests"`
	PassedTests             int     `json:"passedTests"`
	FailedTests             int     `json:"failedTests"`
	TotalProperties         int     `json:"totalProperties"`
	PassedProperties        int     `json:"passedProperties"`
	FailedProperties        int     `json:"failedProperties"`
	UniqueEndpoints         int     `json:"uniqueEndpoints"`
	PropertyPassRate        float64 `json:"propertyPassRate"`
	AverageResponseTimeMs   float64 `json:"averageResponseTimeMs"`
}

// Report is the top-level payload (§6).
type Report struct {
	Title       string          `json:"title"`
	GeneratedAt time.Time       `json:"generatedAt"`
	Summary     Summary         `json:"summary"`
	Results     []RequestReport `json:"results"`
}

// Summarize builds Summary from results.
func Summarize(results []RequestReport) Summary {
	s := Summary{TotalTests: len(results)}

	endpoints := make(map[string]struct{})
	var totalExecMs float64
	for _, r := range results {
		endpoints[r.RequestMethod+" "+r.RequestPath] = struct{}{}
		totalExecMs += r.ExecutionTimeMs
		if r.OverallPassed {
			s.PassedTests++
		} else {
			s.FailedTests++
		}
		s.TotalProperties += r.TotalProperties
		s.PassedProperties += r.PassedProperties
		s.FailedProperties += r.FailedProperties
	}
	s.UniqueEndpoints = len(endpoints)

	if s.TotalTests > 0 {
		s.OverallPassRate = float64(s.PassedTests) / float64(s.TotalTests)
		s.AverageResponseTimeMs = totalExecMs / float64(s.TotalTests)
	}
	if s.TotalProperties > 0 {
		s.PropertyPassRate = float64(s.PassedProperties) / float64(s.TotalProperties)
	}
	return s
}

// New builds a full Report from a run's results.
func New(title string, results []RequestReport) Report {
	return Report{
		Title:       title,
		GeneratedAt: time.Now(),
		Summary:     Summarize(results),
		Results:     results,
	}
}
