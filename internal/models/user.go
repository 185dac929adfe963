package models

import (
	"time"

	"crown_back_end/internal/store"
)

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	GoogleID  string    `json:"google_id,omitempty"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func UserFromRecord(r store.Record) (User, error) {
	u := User{
		ID:        r.String("id"),
		Email:     r.String("email"),
		Name:      r.String("name"),
		GoogleID:  r.String("google_id"),
		AvatarURL: r.String("avatar_url"),
		Role:      r.String("role"),
	}
	var err error
	if u.CreatedAt, err = r.Time("created_at"); err != nil {
		return User{}, err
	}
	if u.UpdatedAt, err = r.Time("updated_at"); err != nil {
		return User{}, err
	}
	if u.Role == "" {
		u.Role = RoleCustomer
	}
	return u, nil
}

func (u User) Record() store.Record {
	r := store.Record{
		"email":      u.Email,
		"name":       u.Name,
		"google_id":  u.GoogleID,
		"avatar_url": u.AvatarURL,
		"role":       u.Role,
		"created_at": u.CreatedAt,
		"updated_at": u.UpdatedAt,
	}
	if u.ID != "" {
		r["id"] = u.ID
	}
	return r
}
