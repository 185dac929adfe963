package store

import (
	"context"
)

// Table names used by the services.
const (
	TableProducts      = "products"
	TableProductImages = "product_images"
	TableCartItems     = "cart_items"
	TableOrders        = "orders"
	TableOrderItems    = "order_items"
	TableStatusHistory = "order_status_history"
	TableActivities    = "user_activities"
	TableUsers         = "users"
)

// Client is the table-scoped access the services need from the backing store.
// There are no joins: callers issue sequential fetches and merge in memory.
type Client interface {
	Fetch(ctx context.Context, table string, q *Query) ([]Record, error)
	Count(ctx context.Context, table string, q *Query) (int, error)
	// Insert assigns an "id" to records that have none and returns the stored rows.
	Insert(ctx context.Context, table string, records ...Record) ([]Record, error)
	Update(ctx context.Context, table string, q *Query, patch Record) ([]Record, error)
	Delete(ctx context.Context, table string, q *Query) error
}

type Op string

const (
	OpEq  Op = "eq"
	OpGt  Op = "gt"
	OpGte Op = "gte"
	OpLt  Op = "lt"
	OpLte Op = "lte"
	OpIn  Op = "in"
)

type Filter struct {
	Field string
	Op    Op
	Value any
}

type Ordering struct {
	Field string
	Desc  bool
}

// Query is a conjunction of filters plus ordering and an optional window.
// A nil *Query matches every row.
type Query struct {
	Filters []Filter
	Orders  []Ordering
	Offset  int
	Limit   int // 0 means unbounded
}

func Where() *Query { return &Query{} }

func (q *Query) add(field string, op Op, v any) *Query {
	q.Filters = append(q.Filters, Filter{Field: field, Op: op, Value: v})
	return q
}

func (q *Query) Eq(field string, v any) *Query  { return q.add(field, OpEq, v) }
func (q *Query) Gt(field string, v any) *Query  { return q.add(field, OpGt, v) }
func (q *Query) Gte(field string, v any) *Query { return q.add(field, OpGte, v) }
func (q *Query) Lt(field string, v any) *Query  { return q.add(field, OpLt, v) }
func (q *Query) Lte(field string, v any) *Query { return q.add(field, OpLte, v) }

// In matches rows whose field equals any of values. An empty set matches nothing.
func (q *Query) In(field string, values ...any) *Query { return q.add(field, OpIn, values) }

func (q *Query) OrderBy(field string, desc bool) *Query {
	q.Orders = append(q.Orders, Ordering{Field: field, Desc: desc})
	return q
}

// Range keeps limit rows starting at offset.
func (q *Query) Range(offset, limit int) *Query {
	q.Offset = offset
	q.Limit = limit
	return q
}

// withoutWindow returns a copy of q with offset and limit cleared, used for counting.
func (q *Query) withoutWindow() *Query {
	if q == nil {
		return nil
	}
	c := *q
	c.Offset, c.Limit = 0, 0
	return &c
}

// eqValue reports the value of the first equality filter on field.
func (q *Query) eqValue(field string) (any, bool) {
	if q == nil {
		return nil, false
	}
	for _, f := range q.Filters {
		if f.Field == field && f.Op == OpEq {
			return f.Value, true
		}
	}
	return nil, false
}
