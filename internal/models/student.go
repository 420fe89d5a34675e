package models

import "time"

// Student represents a learner registered in the institution.
type Student struct {
	ID           int        `json:"id,omitempty"`
	AdmissionNo  Code       `json:"admission_no"`
	Name         string     `json:"name"`
	Parent       Ref        `json:"parent"`
	ClassRoom    Ref        `json:"class_room"`
	Organization Ref        `json:"organization"`
	Role         Ref        `json:"role"`
	CreatedAt    *time.Time `json:"created_at,omitempty"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

// Key returns the admission number used in resource paths.
func (s Student) Key() string {
	return s.AdmissionNo.String()
}

// CreateStudentRequest is the registration payload for a student.
type CreateStudentRequest struct {
	AdmissionNo  string `json:"admission_no,omitempty"`
	Name         string `json:"name"`
	Parent       int    `json:"parent"`
	ClassRoom    int    `json:"class_room"`
	Organization int    `json:"organization"`
	Role         int    `json:"role"`
}

// UpdateStudentRequest is a partial update; nil fields are not sent.
type UpdateStudentRequest struct {
	Name      *string `json:"name,omitempty"`
	Parent    *int    `json:"parent,omitempty"`
	ClassRoom *int    `json:"class_room,omitempty"`
}
