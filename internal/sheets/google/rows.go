package google

import (
	"math"
	"strconv"
	"strings"

	"paysched/internal/core"
	ports "paysched/internal/sheets"
)

const (
	colID      = 0
	colVersion = 12
)

// lastColumn is the letter of the final ledger column.
func lastColumn() string {
	return string(rune('A' + len(ports.Header) - 1))
}

func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

// encodeRow lays p out in Header order. Amounts stay plain integers so the
// sheet can sum them.
func encodeRow(p core.Payment) []interface{} {
	doc := ""
	if p.Document != nil {
		doc = p.Document.Name
	}
	return []interface{}{
		p.ID,
		p.PayeeName,
		int64(p.Amount),
		p.DueDate.String(),
		string(p.Status),
		string(p.Method),
		string(p.Type),
		p.OriginalDueDate.String(),
		p.PlannedPaymentDate.String(),
		p.DeferredReason,
		p.Notes,
		doc,
		p.Version,
	}
}

// parseIDColumn reads column A. Cells that are not a positive integer (the
// header, blanks) are skipped but still occupy their row.
func parseIDColumn(values [][]interface{}) (map[int64]int, int) {
	rows := make(map[int64]int, len(values))
	for i, r := range values {
		if len(r) == 0 {
			continue
		}
		if id, ok := cellInt(r[colID]); ok && id > 0 {
			rows[id] = i + 1
		}
	}
	next := len(values) + 1
	if next < 2 {
		next = 2
	}
	return rows, next
}

func parseVersions(values [][]interface{}) map[int64]int64 {
	out := make(map[int64]int64, len(values))
	for _, r := range values {
		if len(r) == 0 {
			continue
		}
		id, ok := cellInt(r[colID])
		if !ok || id <= 0 {
			continue
		}
		var version int64
		if len(r) > colVersion {
			version, _ = cellInt(r[colVersion])
		}
		out[id] = version
	}
	return out
}

func cellInt(v interface{}) (int64, bool) {
	switch x := v.(type) {
	case float64:
		if x != math.Trunc(x) {
			return 0, false
		}
		return int64(x), true
	case int64:
		return x, true
	case int:
		return int64(x), true
	case string:
		n, err := strconv.ParseInt(strings.ReplaceAll(strings.TrimSpace(x), ",", ""), 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}
