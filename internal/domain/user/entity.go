// Package user holds the freelancer profile read by prompt assembly.
package user

import (
	"context"
	"strings"
	"time"

	"github.com/faisalsajibwp/fiverr-chat-buddy/pkg/types/common"
)

// Profile carries the seller-facing facts folded into generation prompts.
type Profile struct {
	OwnerID       common.OwnerID `json:"owner_id"`
	DisplayName   string         `json:"display_name"`
	ServiceArea   string         `json:"service_area"` // e.g. "logo design"
	Specialties   []string       `json:"specialties,omitempty"`
	ResponseStyle string         `json:"response_style,omitempty"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// Summary renders the one-line profile description used in prompts.  A zero
// profile yields an empty string and the prompt falls back to generic
// guideline text.
func (p *Profile) Summary() string {
	if p == nil || p.DisplayName == "" && p.ServiceArea == "" {
		return ""
	}
	parts := make([]string, 0, 3)
	if p.DisplayName != "" {
		parts = append(parts, p.DisplayName)
	}
	if p.ServiceArea != "" {
		parts = append(parts, "freelancer specialising in "+p.ServiceArea)
	}
	if len(p.Specialties) > 0 {
		parts = append(parts, "skilled in "+strings.Join(p.Specialties, ", "))
	}
	return strings.Join(parts, ", ")
}

// Repository is the persistence contract for profiles.
type Repository interface {
	Get(ctx context.Context, owner common.OwnerID) (*Profile, error)
	Upsert(ctx context.Context, p *Profile) error
}
