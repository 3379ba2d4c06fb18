package profile

import (
	"encoding/json"
	"time"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// UserData carries the shopping state migrated from the device-local
// cache at logout. Cart and wishlist payloads are opaque to this service.
type UserData struct {
	Cart        json.RawMessage `json:"cart,omitempty"`
	Wishlist    json.RawMessage `json:"wishlist,omitempty"`
	LastUpdated time.Time       `json:"lastUpdated"`
}

// UserProfile is the durable identity record, one per identity the
// provider has ever authenticated. CreatedAt, UpdatedAt and LastLogin
// are service-managed and never user-editable.
type UserProfile struct {
	ID                      string          `json:"id"`
	Email                   string          `json:"email,omitempty"`
	DisplayName             string          `json:"displayName,omitempty"`
	PhotoURL                string          `json:"photoUrl,omitempty"`
	Role                    Role            `json:"role"`
	Disabled                bool            `json:"isDisabled,omitempty"`
	PhoneNumber             string          `json:"phoneNumber,omitempty"`
	Address                 string          `json:"address,omitempty"`
	NotificationPreferences map[string]bool `json:"notificationPreferences,omitempty"`
	CreatedAt               time.Time       `json:"createdAt"`
	UpdatedAt               *time.Time      `json:"updatedAt,omitempty"`
	LastLogin               *time.Time      `json:"lastLogin,omitempty"`
	UserData                *UserData       `json:"userData,omitempty"`
}
