package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString(fmt.Sprintf("# %s\n\n", r.Title))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Train: GW%d-GW%d | Test: GW%d\n\n",
		r.TrainFrom, r.TrainTo, r.TestGameweek))

	// Data Summary
	sb.WriteString("## Data Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Total Players | %d |\n", r.DataSummary.TotalPlayers))
	sb.WriteString(fmt.Sprintf("| Prediction/Outcome Pairs | %d |\n", r.DataSummary.PairCount))
	sb.WriteString(fmt.Sprintf("| Excluded (absent outcome) | %d |\n", r.DataSummary.ExcludedAbsent))
	sb.WriteString(fmt.Sprintf("| Date Range Start (ms) | %d |\n", r.DataSummary.DateRangeStart))
	sb.WriteString(fmt.Sprintf("| Date Range End (ms) | %d |\n", r.DataSummary.DateRangeEnd))
	sb.WriteString("\n")

	// Data Quality
	sb.WriteString("## Data Quality\n\n")
	if len(r.DataQuality.SufficiencyChecks) > 0 {
		sb.WriteString("### Sufficiency Checks\n\n")
		sb.WriteString("| Check | Threshold | Actual | Status |\n")
		sb.WriteString("|-------|-----------|--------|--------|\n")
		for _, check := range r.DataQuality.SufficiencyChecks {
			status := "FAIL"
			if check.Pass {
				status = "PASS"
			}
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
				check.Name, check.Threshold, check.Actual, status))
		}
		sb.WriteString("\n")

		if r.DataQuality.AllChecksPassed {
			sb.WriteString("**All checks passed.**\n\n")
		} else {
			sb.WriteString("**Some checks failed.** Metrics below may not be trustworthy.\n\n")
		}
	} else {
		sb.WriteString("No data quality checks performed.\n\n")
	}

	if len(r.DataQuality.NeutralReasonCounts) > 0 {
		sb.WriteString("### Neutral Fallbacks\n\n")
		sb.WriteString("| Reason | Count |\n")
		sb.WriteString("|--------|-------|\n")
		for _, row := range r.DataQuality.NeutralReasonCounts {
			sb.WriteString(fmt.Sprintf("| %s | %d |\n", row.Reason, row.Count))
		}
		sb.WriteString("\n")
	}

	// Parameter Set Metrics
	sb.WriteString("## Parameter Set Metrics\n\n")
	if len(r.MetricRows) > 0 {
		sb.WriteString("| Param Set | Name | Ver | N | RMSE | MAE | Spearman | p-value | P@K | K | Best |\n")
		sb.WriteString("|-----------|------|-----|---|------|-----|----------|---------|-----|---|------|\n")
		for _, m := range r.MetricRows {
			best := ""
			if m.Best {
				best = "*"
			}
			sb.WriteString(fmt.Sprintf("| %s | %s | %d | %d | %.4f | %.4f | %.4f | %.4f | %.4f | %d | %s |\n",
				shortID(m.ParamSetID), m.Name, m.Version, m.SampleSize,
				m.RMSE, m.MAE, m.SpearmanRho, m.SpearmanPValue,
				m.PrecisionAtK, m.KUsed, best))
		}
	} else {
		sb.WriteString("No metrics available.\n")
	}
	sb.WriteString("\n")

	// Strata
	sb.WriteString("## Subgroup Metrics\n\n")
	if len(r.StrataRows) > 0 {
		sb.WriteString("| Dimension | Label | N | RMSE | MAE | Spearman | P@K |\n")
		sb.WriteString("|-----------|-------|---|------|-----|----------|-----|\n")
		for _, s := range r.StrataRows {
			sb.WriteString(fmt.Sprintf("| %s | %s | %d | %.4f | %.4f | %.4f | %.4f |\n",
				s.Dimension, s.Label, s.SampleSize,
				s.RMSE, s.MAE, s.SpearmanRho, s.PrecisionAtK))
		}
	} else {
		sb.WriteString("No subgroup metrics available.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}

// shortID truncates a hash identifier for table display.
func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
