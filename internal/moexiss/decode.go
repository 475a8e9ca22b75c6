package moexiss

import "strings"

// issTable mirrors the MOEX ISS {"columns": [...], "data": [[...], ...]}
// shape for one logical table within a response.
type issTable struct {
	Columns []string        `json:"columns"`
	Data    [][]interface{} `json:"data"`
}

// decodeRows turns an issTable into a slice of column-name-keyed maps, one
// per data row. Column names are upper-cased for lookup since ISS is
// case-consistent but callers shouldn't have to know that.
func decodeRows(t issTable) []map[string]interface{} {
	if t.Columns == nil {
		return nil
	}
	rows := make([]map[string]interface{}, 0, len(t.Data))
	for _, row := range t.Data {
		m := make(map[string]interface{}, len(t.Columns))
		for i, col := range t.Columns {
			if i >= len(row) {
				break
			}
			m[strings.ToUpper(col)] = row[i]
		}
		rows = append(rows, m)
	}
	return rows
}

// firstString returns the first non-null string value found by trying each
// candidate column name in priority order.
func firstString(row map[string]interface{}, candidates ...string) *string {
	for _, c := range candidates {
		if v, ok := row[strings.ToUpper(c)]; ok && v != nil {
			if s, ok := v.(string); ok && s != "" {
				return &s
			}
		}
	}
	return nil
}

// firstFloat returns the first non-null numeric value found by trying each
// candidate column name in priority order. A non-numeric cell is treated the
// same as a missing one rather than erroring the whole row.
func firstFloat(row map[string]interface{}, candidates ...string) *float64 {
	for _, c := range candidates {
		if v, ok := row[strings.ToUpper(c)]; ok && v != nil {
			if f, ok := v.(float64); ok {
				return &f
			}
		}
	}
	return nil
}

// intervalCode maps the public "1d"/"1h" interval name to the ISS numeric
// candle interval.
func intervalCode(interval string) int {
	switch interval {
	case "1h":
		return 60
	default:
		return 24
	}
}
