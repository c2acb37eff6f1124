package dto

import (
	"time"

	"github.com/tutorhub/backoffice/internal/app/models"
)

// UpdateCapacitySettingRequest sets how many bookings of an organization may overlap.
type UpdateCapacitySettingRequest struct {
	MaxConcurrentStudents int `json:"maxConcurrentStudents" validate:"required,min=1,max=100"`
}

// CapacitySettingResponse is the organization's capacity setting.
type CapacitySettingResponse struct {
	OrganizationID        int64      `json:"organizationId"`
	MaxConcurrentStudents int        `json:"maxConcurrentStudents"`
	UpdatedAt             *time.Time `json:"updatedAt,omitempty"`
}

// FromSetting converts a models.OrganizationSetting. Defaults have no UpdatedAt.
func FromSetting(s *models.OrganizationSetting) CapacitySettingResponse {
	resp := CapacitySettingResponse{
		OrganizationID:        s.OrganizationID,
		MaxConcurrentStudents: s.MaxConcurrentStudents,
	}
	if !s.UpdatedAt.IsZero() {
		updated := s.UpdatedAt.UTC()
		resp.UpdatedAt = &updated
	}
	return resp
}
