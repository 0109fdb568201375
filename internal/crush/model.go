// File: internal/crush/model.go
package crush

import (
	"time"

	"wlm_backend/internal/common"

	"github.com/google/uuid"
)

// Crush is a declaration that one user (the declarer) likes the owner of a
// handle on a given platform. TargetHandle is a weak reference resolved at
// match time, never a foreign key: the target may not have registered.
//
// Lifecycle: created once with Matched=false; the only mutation ever
// applied is flipping Matched to true. The composite unique index rejects
// a second identical declaration by the same user.
type Crush struct {
	common.BaseModel
	DeclarerID   uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_crushes_declarer_target_platform" json:"declarer_id"`
	TargetHandle string    `gorm:"type:varchar(255);not null;index;uniqueIndex:idx_crushes_declarer_target_platform" json:"target_handle"`
	Platform     string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_crushes_declarer_target_platform" json:"platform"`
	Matched      bool      `gorm:"not null;default:false" json:"matched"`
}

// TableName specifies the table name for the Crush model.
func (Crush) TableName() string {
	return "crushes"
}

// --- DTOs ---

// DeclareCrushRequest is the body of POST /crushes.
type DeclareCrushRequest struct {
	DeclarerID   uuid.UUID `json:"declarer_id" binding:"required"`
	TargetHandle string    `json:"target_handle" binding:"required,max=255"`
	Platform     string    `json:"platform" binding:"required,max=100"`
}

// CrushResponse is the public shape of a crush row.
type CrushResponse struct {
	ID           uuid.UUID `json:"id"`
	DeclarerID   uuid.UUID `json:"declarer_id"`
	TargetHandle string    `json:"target_handle"`
	Platform     string    `json:"platform"`
	Matched      bool      `json:"matched"`
	CreatedAt    time.Time `json:"created_at"`
}

// ToCrushResponse converts a Crush model to its DTO.
func ToCrushResponse(cr *Crush) CrushResponse {
	return CrushResponse{
		ID:           cr.ID,
		DeclarerID:   cr.DeclarerID,
		TargetHandle: cr.TargetHandle,
		Platform:     cr.Platform,
		Matched:      cr.Matched,
		CreatedAt:    cr.CreatedAt,
	}
}

// ToCrushResponses converts a slice of crushes.
func ToCrushResponses(crushes []Crush) []CrushResponse {
	out := make([]CrushResponse, 0, len(crushes))
	for i := range crushes {
		out = append(out, ToCrushResponse(&crushes[i]))
	}
	return out
}
