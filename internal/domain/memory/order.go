package memory

import (
	"slices"
	"time"
)

// SortLatest orders records newest first. Records with a missing or unparseable
// timestamp sort after all valid ones; ties keep their input order.
func SortLatest(records []Record) {
	slices.SortStableFunc(records, func(a, b Record) int {
		ta := sortKey(&a.Metadata)
		tb := sortKey(&b.Metadata)
		return tb.Compare(ta)
	})
}

// Latest sorts records newest first and keeps at most limit of them.
// limit <= 0 uses DefaultLatestLimit.
func Latest(records []Record, limit int) []Record {
	if limit <= 0 {
		limit = DefaultLatestLimit
	}
	SortLatest(records)
	if len(records) > limit {
		records = records[:limit]
	}
	return records
}

func sortKey(m *Metadata) time.Time {
	if t, ok := m.Time(); ok {
		return t
	}
	return minTime
}

// minTime sorts before any parseable timestamp.
var minTime = time.Unix(-1<<62, 0).UTC()
