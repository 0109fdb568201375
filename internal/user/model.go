// File: internal/user/model.go
package user

import (
	"strings"
	"time"

	"wlm_backend/internal/common"

	"github.com/google/uuid"
)

// User represents the user model in the database.
// Exactly one row exists per ExternalID; the row is created on the first
// successful OAuth callback and updated in place on every later one.
// There is no deletion path.
type User struct {
	common.BaseModel             // Embeds ID, CreatedAt, UpdatedAt
	ExternalID  string           `gorm:"type:varchar(255);not null;uniqueIndex" json:"external_id"`
	Handle      string           `gorm:"type:varchar(255);not null;index" json:"handle"`
	DisplayName *string          `gorm:"type:varchar(255)" json:"display_name,omitempty"`
	AvatarURL   *string          `gorm:"type:text" json:"avatar_url,omitempty"`
	AccessToken string           `gorm:"type:text;not null" json:"-"`
	IsOnline    bool             `gorm:"not null;default:false" json:"is_online"`
	LastSeenAt  *time.Time       `json:"last_seen_at,omitempty"`
}

// TableName specifies the table name for the User model.
func (User) TableName() string {
	return "users"
}

// NormalizeHandle lowercases and trims a provider handle. Handles are
// case-insensitive at the provider, so the store only ever sees the
// normalized form and matching stays an exact string comparison.
func NormalizeHandle(handle string) string {
	return strings.ToLower(strings.TrimSpace(handle))
}

// --- DTOs for API responses ---

// UserResponse is the public shape of a user. It deliberately has no
// access token field at all, so the secret cannot leak through encoding.
type UserResponse struct {
	ID          uuid.UUID  `json:"id"`
	ExternalID  string     `json:"external_id"`
	Handle      string     `json:"handle"`
	DisplayName *string    `json:"display_name,omitempty"`
	AvatarURL   *string    `json:"avatar_url,omitempty"`
	IsOnline    bool       `json:"is_online"`
	LastSeenAt  *time.Time `json:"last_seen_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ToUserResponse converts a User model to a UserResponse DTO.
func ToUserResponse(u *User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		ExternalID:  u.ExternalID,
		Handle:      u.Handle,
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
		IsOnline:    u.IsOnline,
		LastSeenAt:  u.LastSeenAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

// ToUserResponses converts a slice of users.
func ToUserResponses(users []User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, ToUserResponse(&users[i]))
	}
	return out
}
