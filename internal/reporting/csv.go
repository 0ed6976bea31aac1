package reporting

import (
	"fmt"
	"strings"
)

// RenderCSV renders parameter set metrics as CSV string.
func RenderCSV(metrics []MetricRow) string {
	var sb strings.Builder

	// Header
	sb.WriteString("param_set_id,name,version,sample_size,rmse,mae,")
	sb.WriteString("spearman_rho,spearman_p_value,precision_at_k,k_used,best\n")

	// Rows
	for _, m := range metrics {
		sb.WriteString(fmt.Sprintf("%s,%s,%d,%d,%.6f,%.6f,%.6f,%.6f,%.6f,%d,%t\n",
			m.ParamSetID,
			m.Name,
			m.Version,
			m.SampleSize,
			m.RMSE,
			m.MAE,
			m.SpearmanRho,
			m.SpearmanPValue,
			m.PrecisionAtK,
			m.KUsed,
			m.Best,
		))
	}

	return sb.String()
}
