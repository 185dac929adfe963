// Package orders owns checkout and the order lifecycle: creation, status
// changes, payment recording and the append-only status history.
package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"crown_back_end/internal/apperr"
	"crown_back_end/internal/events"
	"crown_back_end/internal/models"
	"crown_back_end/internal/notify"
	"crown_back_end/internal/store"
	"crown_back_end/internal/telemetry"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	systemActor       = "system"
	defaultPaymentBy  = "admin"
	creationNote      = "Order created from website checkout"
	defaultPageSize   = 50
	recentOrderWindow = 7 * 24 * time.Hour
)

var tracer = otel.Tracer("crown_back_end/orders")

// Notifier delivers the order emails. Failures never fail the order flow.
type Notifier interface {
	OrderPlaced(ctx context.Context, o models.Order) error
	StatusChanged(ctx context.Context, o models.Order, status models.OrderStatus, notes string) error
}

type Manager struct {
	store    store.Client
	notifier Notifier
	events   events.Publisher
	logger   *zap.Logger
	now      func() time.Time
	strict   bool
}

type Option func(*Manager)

// WithStrictTransitions rejects status changes that skip or reverse the
// lifecycle. Payment recording is never restricted.
func WithStrictTransitions(strict bool) Option {
	return func(m *Manager) { m.strict = strict }
}

func WithPublisher(p events.Publisher) Option {
	return func(m *Manager) { m.events = p }
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func NewManager(st store.Client, notifier Notifier, logger *zap.Logger, opts ...Option) *Manager {
	m := &Manager{
		store:    st,
		notifier: notifier,
		events:   events.Noop{},
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewOrderID returns "ORD" followed by 8 uppercase hex characters.
func NewOrderID() string {
	return "ORD" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// Create persists the order, its item snapshots and the initial history
// entry, then bumps product order counts and notifies. The writes are
// sequential and not rolled back on a partial failure.
func (m *Manager) Create(ctx context.Context, req CreateRequest, userID *string) (models.Order, error) {
	ctx, span := tracer.Start(ctx, "Create")
	defer span.End()

	if err := req.validate(); err != nil {
		return models.Order{}, err
	}

	now := m.now().UTC()
	c := req.Customer
	order := models.Order{
		OrderID:           NewOrderID(),
		UserID:            userID,
		CustomerName:      c.Name,
		CustomerEmail:     c.Email,
		CustomerPhone:     c.Phone,
		DeliveryAddress:   c.DeliveryAddress,
		PickupPreference:  c.PickupPreference,
		OrderNotes:        c.OrderNotes,
		PaymentPreference: c.PaymentPreference,
		Total:             req.total(),
		Status:            models.StatusPending,
		PaymentAmount:     decimal.Zero,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if order.PaymentPreference == "" {
		order.PaymentPreference = defaultPaymentPreference
	}
	span.SetAttributes(attribute.String("order_id", order.OrderID))

	rows, err := m.store.Insert(ctx, store.TableOrders, order.Record())
	if err != nil {
		return models.Order{}, apperr.Dependency("insert order", err)
	}
	order.ID = rows[0].String("id")

	items := make([]store.Record, len(req.Items))
	for i, it := range req.Items {
		items[i] = models.OrderItem{
			OrderRef:    order.ID,
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			Price:       it.Price,
			CreatedAt:   now,
		}.Record()
	}
	itemRows, err := m.store.Insert(ctx, store.TableOrderItems, items...)
	if err != nil {
		return models.Order{}, apperr.Dependency("insert order items", err)
	}
	for _, r := range itemRows {
		it, err := models.OrderItemFromRecord(r)
		if err != nil {
			return models.Order{}, apperr.Dependency("decode order item", err)
		}
		order.Items = append(order.Items, it)
	}

	note := creationNote
	entry, err := m.appendHistory(ctx, order.ID, models.StatusPending, systemActor, &note, now)
	if err != nil {
		return models.Order{}, err
	}
	order.StatusHistory = []models.StatusHistoryEntry{entry}

	for _, it := range req.Items {
		m.bumpOrderCount(ctx, it.ProductID, it.Quantity, now)
	}

	telemetry.OrdersCreated.Inc()
	m.logger.Info("✅ order created",
		zap.String("order_id", order.OrderID),
		zap.String("total", order.Total.StringFixed(2)),
		zap.Int("items", len(order.Items)),
	)

	if err := m.notifier.OrderPlaced(ctx, order); err != nil {
		m.notifyFailed("order_placed", order.OrderID, err)
	}
	m.publish(ctx, events.Event{
		Type:    events.TypeOrderCreated,
		OrderID: order.OrderID,
		UserID:  order.UserID,
		Status:  string(order.Status),
		Total:   order.Total,
	})
	return order, nil
}

// Get loads an order by its public id. With includeItems the items come back
// in insertion order and the history oldest first.
func (m *Manager) Get(ctx context.Context, orderID string, includeItems bool) (models.Order, error) {
	rows, err := m.store.Fetch(ctx, store.TableOrders, store.Where().Eq("order_id", orderID))
	if err != nil {
		return models.Order{}, apperr.Dependency("fetch order", err)
	}
	if len(rows) == 0 {
		return models.Order{}, apperr.NotFound("order", orderID)
	}
	order, err := models.OrderFromRecord(rows[0])
	if err != nil {
		return models.Order{}, apperr.Dependency("decode order", err)
	}
	if !includeItems {
		return order, nil
	}

	itemRows, err := m.store.Fetch(ctx, store.TableOrderItems, store.Where().Eq("order_id", order.ID).OrderBy("created_at", false))
	if err != nil {
		return models.Order{}, apperr.Dependency("fetch order items", err)
	}
	order.Items = make([]models.OrderItem, 0, len(itemRows))
	for _, r := range itemRows {
		it, err := models.OrderItemFromRecord(r)
		if err != nil {
			return models.Order{}, apperr.Dependency("decode order item", err)
		}
		order.Items = append(order.Items, it)
	}

	historyRows, err := m.store.Fetch(ctx, store.TableStatusHistory,
		store.Where().Eq("order_id", order.ID).OrderBy("created_at", false))
	if err != nil {
		return models.Order{}, apperr.Dependency("fetch status history", err)
	}
	order.StatusHistory = make([]models.StatusHistoryEntry, 0, len(historyRows))
	for _, r := range historyRows {
		h, err := models.StatusHistoryFromRecord(r)
		if err != nil {
			return models.Order{}, apperr.Dependency("decode status history", err)
		}
		order.StatusHistory = append(order.StatusHistory, h)
	}
	return order, nil
}

// UpdateStatus writes the new status, appends a history entry and emails the
// customer. Last writer wins for concurrent updates of one order.
func (m *Manager) UpdateStatus(ctx context.Context, orderID string, upd StatusUpdate) (models.Order, error) {
	ctx, span := tracer.Start(ctx, "UpdateStatus")
	defer span.End()
	span.SetAttributes(attribute.String("order_id", orderID), attribute.String("status", string(upd.Status)))

	if strings.TrimSpace(upd.UpdatedBy) == "" {
		return models.Order{}, apperr.Validation("updated_by is required")
	}
	order, err := m.Get(ctx, orderID, false)
	if err != nil {
		return models.Order{}, err
	}
	if err := checkTransition(m.strict, order.Status, upd.Status); err != nil {
		return models.Order{}, err
	}

	now := m.now().UTC()
	patch := store.Record{"status": string(upd.Status), "updated_at": now}
	if _, err := m.store.Update(ctx, store.TableOrders, store.Where().Eq("order_id", orderID), patch); err != nil {
		return models.Order{}, apperr.Dependency("update order status", err)
	}
	if _, err := m.appendHistory(ctx, order.ID, upd.Status, upd.UpdatedBy, upd.Notes, now); err != nil {
		return models.Order{}, err
	}

	telemetry.OrderTransitions.WithLabelValues(string(upd.Status)).Inc()
	m.logger.Info("order status updated",
		zap.String("order_id", orderID),
		zap.String("from", string(order.Status)),
		zap.String("to", string(upd.Status)),
		zap.String("updated_by", upd.UpdatedBy),
	)

	if err := m.notifier.StatusChanged(ctx, order, upd.Status, deref(upd.Notes)); err != nil {
		m.notifyFailed("status_changed", orderID, err)
	}
	m.publish(ctx, events.Event{
		Type:      events.TypeOrderStatusChanged,
		OrderID:   orderID,
		UserID:    order.UserID,
		Status:    string(upd.Status),
		Total:     order.Total,
		UpdatedBy: upd.UpdatedBy,
	})
	return m.Get(ctx, orderID, true)
}

// RecordPayment marks the order paid and forces it to payment_received,
// whatever its current status.
func (m *Manager) RecordPayment(ctx context.Context, orderID string, p PaymentRecord) (models.Order, error) {
	ctx, span := tracer.Start(ctx, "RecordPayment")
	defer span.End()
	span.SetAttributes(attribute.String("order_id", orderID))

	if strings.TrimSpace(p.Method) == "" {
		return models.Order{}, apperr.Validation("payment method is required")
	}
	if !p.Amount.IsPositive() {
		return models.Order{}, apperr.Validation("payment amount must be greater than zero")
	}
	order, err := m.Get(ctx, orderID, false)
	if err != nil {
		return models.Order{}, err
	}

	recordedBy := p.RecordedBy
	if recordedBy == "" {
		recordedBy = defaultPaymentBy
	}
	notes := fmt.Sprintf("Payment of %s via %s", notify.Naira(p.Amount), p.Method)
	if p.Notes != nil && *p.Notes != "" {
		notes = *p.Notes
	}

	now := m.now().UTC()
	patch := store.Record{
		"payment_confirmed": true,
		"payment_amount":    p.Amount,
		"payment_method":    p.Method,
		"status":            string(models.StatusPaymentReceived),
		"updated_at":        now,
	}
	if _, err := m.store.Update(ctx, store.TableOrders, store.Where().Eq("order_id", orderID), patch); err != nil {
		return models.Order{}, apperr.Dependency("record payment", err)
	}
	if _, err := m.appendHistory(ctx, order.ID, models.StatusPaymentReceived, recordedBy, &notes, now); err != nil {
		return models.Order{}, err
	}

	telemetry.OrderTransitions.WithLabelValues(string(models.StatusPaymentReceived)).Inc()
	m.logger.Info("💰 payment recorded",
		zap.String("order_id", orderID),
		zap.String("amount", p.Amount.StringFixed(2)),
		zap.String("method", p.Method),
		zap.String("previous_status", string(order.Status)),
	)

	if err := m.notifier.StatusChanged(ctx, order, models.StatusPaymentReceived, notes); err != nil {
		m.notifyFailed("payment_recorded", orderID, err)
	}
	amount := p.Amount
	m.publish(ctx, events.Event{
		Type:      events.TypePaymentRecorded,
		OrderID:   orderID,
		UserID:    order.UserID,
		Status:    string(models.StatusPaymentReceived),
		Total:     order.Total,
		Amount:    &amount,
		UpdatedBy: recordedBy,
	})
	return m.Get(ctx, orderID, true)
}

// ListForUser returns the user's orders, newest first.
func (m *Manager) ListForUser(ctx context.Context, userID string, status models.OrderStatus) ([]models.Order, error) {
	q := store.Where().Eq("user_id", userID)
	if status != "" {
		q = q.Eq("status", string(status))
	}
	rows, err := m.store.Fetch(ctx, store.TableOrders, q.OrderBy("created_at", true))
	if err != nil {
		return nil, apperr.Dependency("fetch user orders", err)
	}
	return decodeOrders(rows)
}

// ListAll is the admin listing. page starts at 1.
func (m *Manager) ListAll(ctx context.Context, status models.OrderStatus, limit, page int) (Page, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if page < 1 {
		page = 1
	}

	q := store.Where()
	if status != "" {
		q = q.Eq("status", string(status))
	}
	total, err := m.store.Count(ctx, store.TableOrders, q)
	if err != nil {
		return Page{}, apperr.Dependency("count orders", err)
	}
	rows, err := m.store.Fetch(ctx, store.TableOrders, q.OrderBy("created_at", true).Range((page-1)*limit, limit))
	if err != nil {
		return Page{}, apperr.Dependency("fetch orders", err)
	}
	orders, err := decodeOrders(rows)
	if err != nil {
		return Page{}, err
	}
	return Page{
		Orders:     orders,
		Count:      len(orders),
		Page:       page,
		TotalPages: (total + limit - 1) / limit,
		TotalCount: total,
	}, nil
}

// Stats aggregates every order for the admin dashboard.
func (m *Manager) Stats(ctx context.Context) (Stats, error) {
	rows, err := m.store.Fetch(ctx, store.TableOrders, nil)
	if err != nil {
		return Stats{}, apperr.Dependency("fetch orders", err)
	}
	orders, err := decodeOrders(rows)
	if err != nil {
		return Stats{}, err
	}

	cutoff := m.now().UTC().Add(-recentOrderWindow)
	s := Stats{
		TotalOrders:     len(orders),
		TotalRevenue:    decimal.Zero,
		StatusBreakdown: make(map[string]int),
	}
	for _, o := range orders {
		s.StatusBreakdown[string(o.Status)]++
		switch o.Status {
		case models.StatusPending:
			s.PendingOrders++
		case models.StatusConfirmed:
			s.ConfirmedOrders++
		case models.StatusDelivered:
			s.CompletedOrders++
		}
		if o.PaymentConfirmed || o.Status == models.StatusDelivered {
			s.TotalRevenue = s.TotalRevenue.Add(o.Total)
			s.PaymentConfirmedCount++
		}
		if !o.CreatedAt.Before(cutoff) {
			s.RecentOrdersCount++
		}
	}
	s.AverageOrderValue = decimal.Zero
	if s.TotalOrders > 0 {
		s.AverageOrderValue = s.TotalRevenue.Div(decimal.NewFromInt(int64(s.TotalOrders))).Round(2)
	}
	s.TotalRevenue = s.TotalRevenue.Round(2)
	return s, nil
}

func (m *Manager) appendHistory(ctx context.Context, orderRef string, status models.OrderStatus, by string, notes *string, at time.Time) (models.StatusHistoryEntry, error) {
	entry := models.StatusHistoryEntry{
		OrderRef:  orderRef,
		Status:    status,
		UpdatedBy: by,
		Notes:     notes,
		CreatedAt: at,
	}
	rows, err := m.store.Insert(ctx, store.TableStatusHistory, entry.Record())
	if err != nil {
		return models.StatusHistoryEntry{}, apperr.Dependency("append status history", err)
	}
	entry.ID = rows[0].String("id")
	return entry, nil
}

// bumpOrderCount adds qty to the product's order_count. Missing products and
// store errors are logged and skipped.
func (m *Manager) bumpOrderCount(ctx context.Context, productID string, qty int, now time.Time) {
	q := store.Where().Eq("id", productID)
	rows, err := m.store.Fetch(ctx, store.TableProducts, q)
	if err != nil {
		m.logger.Warn("⚠️ order count not updated", zap.String("product_id", productID), zap.Error(err))
		return
	}
	if len(rows) == 0 {
		return
	}
	current, err := rows[0].Int("order_count")
	if err != nil {
		m.logger.Warn("⚠️ unreadable order_count", zap.String("product_id", productID), zap.Error(err))
		return
	}
	patch := store.Record{"order_count": current + qty, "updated_at": now}
	if _, err := m.store.Update(ctx, store.TableProducts, q, patch); err != nil {
		m.logger.Warn("⚠️ order count not updated", zap.String("product_id", productID), zap.Error(err))
	}
}

func (m *Manager) notifyFailed(kind, orderID string, err error) {
	telemetry.NotificationsFailed.WithLabelValues(kind).Inc()
	m.logger.Warn("⚠️ notification failed",
		zap.String("kind", kind),
		zap.String("order_id", orderID),
		zap.Error(err),
	)
}

func (m *Manager) publish(ctx context.Context, e events.Event) {
	e.OccurredAt = m.now().UTC()
	if err := m.events.Publish(ctx, e); err != nil {
		m.logger.Warn("⚠️ order event not published",
			zap.String("type", e.Type),
			zap.String("order_id", e.OrderID),
			zap.Error(err),
		)
	}
}

func decodeOrders(rows []store.Record) ([]models.Order, error) {
	out := make([]models.Order, 0, len(rows))
	for _, r := range rows {
		o, err := models.OrderFromRecord(r)
		if err != nil {
			return nil, apperr.Dependency("decode order", err)
		}
		out = append(out, o)
	}
	return out, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
