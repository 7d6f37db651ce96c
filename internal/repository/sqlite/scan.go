package sqlite

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/hemolink/hemolink/internal/domain"
)

// Column conversion helpers. Timestamps are stored as RFC3339 text and
// booleans as 0/1 integers; SQLite has native types for neither.

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func fmtTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func fmtNullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return fmtTime(*t)
}

func parseNullTime(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	t := parseTime(ns.String)
	return &t
}

func nullInt64(v *int64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func parseNullInt64(ni sql.NullInt64) *int64 {
	if !ni.Valid {
		return nil
	}
	v := ni.Int64
	return &v
}

// Matched donor sets and inventory maps are read and written whole, so
// they live in single JSON text columns.

func encodeDonorIDs(ids []int64) string {
	if len(ids) == 0 {
		return "[]"
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func decodeDonorIDs(s string) []int64 {
	if s == "" || s == "[]" {
		return nil
	}
	var ids []int64
	if err := json.Unmarshal([]byte(s), &ids); err != nil {
		return nil
	}
	return ids
}

func encodeInventory(levels map[domain.BloodType]int) string {
	if len(levels) == 0 {
		return "{}"
	}
	b, err := json.Marshal(levels)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func decodeInventory(s string) map[domain.BloodType]int {
	levels := make(map[domain.BloodType]int)
	if s == "" {
		return levels
	}
	if err := json.Unmarshal([]byte(s), &levels); err != nil {
		return make(map[domain.BloodType]int)
	}
	return levels
}
