package models

import (
	"time"

	"crown_back_end/internal/store"
)

// Known activity types. Any non-empty type is accepted; these are the ones the
// storefront emits.
const (
	ActivityView     = "view"
	ActivityPurchase = "purchase"
	ActivityCartAdd  = "cart_add"
)

// UserActivity is an append-only interaction event. Category is copied from the
// product when the event is recorded.
type UserActivity struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	ProductID    string    `json:"product_id"`
	ActivityType string    `json:"activity_type"`
	Category     string    `json:"category"`
	CreatedAt    time.Time `json:"created_at"`
}

func ActivityFromRecord(r store.Record) (UserActivity, error) {
	a := UserActivity{
		ID:           r.String("id"),
		UserID:       r.String("user_id"),
		ProductID:    r.String("product_id"),
		ActivityType: r.String("activity_type"),
		Category:     r.String("category"),
	}
	var err error
	if a.CreatedAt, err = r.Time("created_at"); err != nil {
		return UserActivity{}, err
	}
	return a, nil
}

func ActivitiesFromRecords(rows []store.Record) ([]UserActivity, error) {
	out := make([]UserActivity, 0, len(rows))
	for _, r := range rows {
		a, err := ActivityFromRecord(r)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (a UserActivity) Record() store.Record {
	return store.Record{
		"user_id":       a.UserID,
		"product_id":    a.ProductID,
		"activity_type": a.ActivityType,
		"category":      a.Category,
		"created_at":    a.CreatedAt,
	}
}
