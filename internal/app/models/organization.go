package models

import "time"

// OrganizationSetting holds per-organization booking configuration.
type OrganizationSetting struct {
	OrganizationID        int64     `db:"organization_id" json:"organizationId"`
	MaxConcurrentStudents int       `db:"max_concurrent_students" json:"maxConcurrentStudents"`
	UpdatedAt             time.Time `db:"updated_at" json:"updatedAt"`
}

// Student is the part of a student profile the booking engine reads.
type Student struct {
	ID             int64      `db:"id" json:"id"`
	OrganizationID int64      `db:"organization_id" json:"organizationId"`
	Name           string     `db:"name" json:"name"`
	Email          *string    `db:"email" json:"email,omitempty"`
	ClassEndDate   *time.Time `db:"class_end_date" json:"classEndDate,omitempty"` // DATE column, civil date
}
