// Package narrative turns structured analysis findings into prose
// through an external text-generation service. The analysis engine never
// formats prose itself; it hands findings here and falls back to fixed
// text when generation fails.
package narrative

import (
	"context"
	"fmt"
	"strings"

	"eco-monitor/internal/models"
)

// Generator produces prose from a prompt. Implementations must be safe
// for concurrent use.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// promptLocationCap bounds how many locations the prompts enumerate
const promptLocationCap = 10

// summaryContextCap bounds the data excerpt in the summary prompt
const summaryContextCap = 500

// FormatFindings renders per-location statistics as the data block both
// prompts share. Only the first few locations are included; the full set
// is persisted regardless.
func FormatFindings(locations []models.LocationAnalysis) string {
	limit := len(locations)
	if limit > promptLocationCap {
		limit = promptLocationCap
	}

	var b strings.Builder
	for _, loc := range locations[:limit] {
		fmt.Fprintf(&b, "%s:\n", loc.Location)
		fmt.Fprintf(&b, "  - PM2.5 trend: %s\n", loc.PM25Trend)
		fmt.Fprintf(&b, "  - PM2.5: avg=%.1f, min=%.1f, max=%.1f\n", loc.AvgPM25, loc.MinPM25, loc.MaxPM25)
		fmt.Fprintf(&b, "  - anomalies: %d\n", loc.AnomaliesCount)
		fmt.Fprintf(&b, "  - average temperature: %.1f C\n", loc.AvgTemp)
	}

	return b.String()
}

// BuildSummaryPrompt asks for a one-sentence situation summary
func BuildSummaryPrompt(scope, findings string) string {
	if len(findings) > summaryContextCap {
		findings = findings[:summaryContextCap]
	}

	return fmt.Sprintf(
		"Air quality data for %s over the last week:\n%s\n\nWrite a BRIEF summary (one sentence) of the environmental situation.",
		scope, findings,
	)
}

// BuildDetailedPrompt asks for a multi-paragraph report. A focused
// prompt compares districts within one city; the broad prompt compares
// cities against each other.
func BuildDetailedPrompt(scope, findings string, focused bool) string {
	if focused {
		return fmt.Sprintf(`You are an environmental analyst. Review the air quality in %s over the last week.

DATA FOR THE WEEK:
%s

REFERENCE:
- PM2.5 guideline: up to 25 ug/m3 (WHO), 35 ug/m3 (acceptable)
- Trends: increasing = worsening, decreasing = improving, stable = steady

Write a detailed report (4-5 paragraphs):

1. Overall picture: how is the situation in %s? Which districts are better or worse?

2. Trends: which districts are worsening, which are improving?

3. District comparison: center vs north vs south, where is the air cleaner?

4. Recommendations: what should residents of %s do?`, scope, findings, scope, scope)
	}

	return fmt.Sprintf(`You are an environmental analyst reviewing air quality in %s over the last week.

DATA FOR THE WEEK:
%s

REFERENCE:
- PM2.5 guideline: up to 25 ug/m3 (WHO), 35 ug/m3 (acceptable)
- AQI: 0-50 good, 51-100 moderate, 101+ unhealthy

Write a DETAILED report (4-6 paragraphs):

1. Overall assessment: which cities are in the best and worst shape, are there critical exceedances?

2. Trends and dynamics: which cities are worsening (increasing), improving (decreasing), or steady?

3. Anomalies and spikes: where did pollution jump sharply, what are the likely causes (weather, seasonality)?

4. Health risks: which groups are at risk under current conditions, what symptoms are possible?

5. Recommendations: what should residents do (limit outdoor time, masks, ventilation) and what should authorities do (emission control, transport)?

Keep the language clear but professional.`, scope, findings)
}
