package repository

import (
	"encoding/json"

	"invest_platform/internal/logger"
)

// DecodeJSONColumn unmarshals a JSON column into dst. A corrupt value leaves dst
// empty and is logged; the row itself is still returned to the caller.
func DecodeJSONColumn(raw []byte, dst any, table, column string, id int64) bool {
	if len(raw) == 0 {
		return true
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		logger.Warn("corrupt json column", "table", table, "column", column, "id", id, "error", err)
		return false
	}
	return true
}
