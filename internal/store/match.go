package store

import (
	"encoding/json"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

// Apply filters, orders and windows rows the way a query-capable backend would.
// Ordering is stable so rows with equal keys keep their insertion order.
func Apply(q *Query, rows []Record) []Record {
	out := make([]Record, 0, len(rows))
	for _, r := range rows {
		if q.Match(r) {
			out = append(out, r)
		}
	}
	if q == nil {
		return out
	}

	if len(q.Orders) > 0 {
		slices.SortStableFunc(out, func(a, b Record) int {
			for _, o := range q.Orders {
				c := compareValues(a[o.Field], b[o.Field])
				if c == 0 {
					continue
				}
				if o.Desc {
					return -c
				}
				return c
			}
			return 0
		})
	}

	if q.Offset > 0 {
		if q.Offset >= len(out) {
			return []Record{}
		}
		out = out[q.Offset:]
	}
	if q.Limit > 0 && q.Limit < len(out) {
		out = out[:q.Limit]
	}
	return out
}

// Match reports whether r satisfies every filter of q.
func (q *Query) Match(r Record) bool {
	if q == nil {
		return true
	}
	for _, f := range q.Filters {
		if !matchFilter(f, r[f.Field]) {
			return false
		}
	}
	return true
}

func matchFilter(f Filter, v any) bool {
	switch f.Op {
	case OpEq:
		return equalValues(v, f.Value)
	case OpIn:
		values, ok := f.Value.([]any)
		if !ok {
			return false
		}
		for _, candidate := range values {
			if equalValues(v, candidate) {
				return true
			}
		}
		return false
	}

	if v == nil || f.Value == nil {
		return false
	}
	c := compareValues(v, f.Value)
	switch f.Op {
	case OpGt:
		return c > 0
	case OpGte:
		return c >= 0
	case OpLt:
		return c < 0
	case OpLte:
		return c <= 0
	}
	return false
}

func equalValues(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if ab, ok := a.(bool); ok {
		bb, err := cast.ToBoolE(b)
		return err == nil && ab == bb
	}
	if bb, ok := b.(bool); ok {
		ab, err := cast.ToBoolE(a)
		return err == nil && ab == bb
	}
	if sa, ok := a.(string); ok {
		if sb, ok := b.(string); ok {
			return sa == sb
		}
	}
	if reflect.TypeOf(a) == reflect.TypeOf(b) && reflect.TypeOf(a).Comparable() && a == b {
		return true
	}
	return compareValues(a, b) == 0
}

// compareValues orders two loosely typed values. Times win over numbers, numbers
// over strings; nil sorts first.
func compareValues(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}

	if ta, okA := asTime(a); okA {
		if tb, okB := asTime(b); okB {
			return ta.Compare(tb)
		}
	}
	if na, okA := asNumber(a); okA {
		if nb, okB := asNumber(b); okB {
			return na.Cmp(nb)
		}
	}
	return strings.Compare(cast.ToString(a), cast.ToString(b))
}

func asTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, true
	case string:
		// Only RFC 3339 strings count as times; other strings stay strings.
		if len(t) < len("2006-01-02T15:04:05Z") || t[4] != '-' || t[10] != 'T' {
			return time.Time{}, false
		}
		parsed, err := time.Parse(time.RFC3339Nano, t)
		return parsed, err == nil
	}
	return time.Time{}, false
}

func asNumber(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case decimal.Decimal:
		return n, true
	case json.Number:
		d, err := decimal.NewFromString(n.String())
		return d, err == nil
	case string:
		d, err := decimal.NewFromString(n)
		return d, err == nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return decimal.NewFromInt(cast.ToInt64(n)), true
	case float32, float64:
		return decimal.NewFromFloat(cast.ToFloat64(n)), true
	}
	return decimal.Zero, false
}
