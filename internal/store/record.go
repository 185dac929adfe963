package store

import (
	"encoding/json"
	"fmt"
	"maps"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

// Record is a loosely typed row. Values coming back from the in-memory store keep
// their Go types while rows decoded from JSON carry strings and json.Number, so
// the accessors below coerce instead of asserting.
type Record map[string]any

func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	return maps.Clone(r)
}

func (r Record) Has(key string) bool {
	v, ok := r[key]
	return ok && v != nil
}

func (r Record) String(key string) string {
	if !r.Has(key) {
		return ""
	}
	return cast.ToString(r[key])
}

// OptString returns nil for missing or empty values.
func (r Record) OptString(key string) *string {
	s := r.String(key)
	if s == "" {
		return nil
	}
	return &s
}

func (r Record) Int(key string) (int, error) {
	if !r.Has(key) {
		return 0, nil
	}
	if num, ok := r[key].(json.Number); ok {
		if n, err := num.Int64(); err == nil {
			return int(n), nil
		}
	}
	n, err := cast.ToIntE(r[key])
	if err != nil {
		return 0, fmt.Errorf("field %q: %w", key, err)
	}
	return n, nil
}

func (r Record) Float(key string) (float64, error) {
	if !r.Has(key) {
		return 0, nil
	}
	switch v := r[key].(type) {
	case decimal.Decimal:
		return v.InexactFloat64(), nil
	case json.Number:
		return v.Float64()
	}
	f, err := cast.ToFloat64E(r[key])
	if err != nil {
		return 0, fmt.Errorf("field %q: %w", key, err)
	}
	return f, nil
}

func (r Record) Bool(key string) (bool, error) {
	if !r.Has(key) {
		return false, nil
	}
	b, err := cast.ToBoolE(r[key])
	if err != nil {
		return false, fmt.Errorf("field %q: %w", key, err)
	}
	return b, nil
}

func (r Record) Decimal(key string) (decimal.Decimal, error) {
	if !r.Has(key) {
		return decimal.Zero, nil
	}
	switch v := r[key].(type) {
	case decimal.Decimal:
		return v, nil
	case float64:
		return decimal.NewFromFloat(v), nil
	case float32:
		return decimal.NewFromFloat32(v), nil
	}
	s, err := cast.ToStringE(r[key])
	if err != nil {
		return decimal.Zero, fmt.Errorf("field %q: %w", key, err)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("field %q: %w", key, err)
	}
	return d, nil
}

func (r Record) Time(key string) (time.Time, error) {
	if !r.Has(key) {
		return time.Time{}, nil
	}
	t, err := cast.ToTimeE(r[key])
	if err != nil {
		return time.Time{}, fmt.Errorf("field %q: %w", key, err)
	}
	return t.UTC(), nil
}
