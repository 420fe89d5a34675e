package models

import (
	"strconv"
	"time"
)

// Teacher represents an instructor record.
type Teacher struct {
	ID            int        `json:"id,omitempty"`
	TeacherID     int        `json:"teacher_id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	Qualification string     `json:"qualification,omitempty"`
	MobileNo      string     `json:"mobile_no"`
	WhatsappNo    string     `json:"whatsapp_no"`
	Address1      string     `json:"address_1"`
	Address2      string     `json:"address_2,omitempty"`
	City          string     `json:"city"`
	State         string     `json:"state"`
	Pincode       int        `json:"pincode"`
	Organization  Ref        `json:"organization"`
	Role          Ref        `json:"role"`
	CreatedAt     *time.Time `json:"created_at,omitempty"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
}

// Key returns the teacher_id used in resource paths.
func (t Teacher) Key() string {
	return strconv.Itoa(t.TeacherID)
}

// CreateTeacherRequest is the registration payload for a teacher.
type CreateTeacherRequest struct {
	TeacherID     int    `json:"teacher_id,omitempty"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Qualification string `json:"qualification"`
	MobileNo      string `json:"mobile_no"`
	WhatsappNo    string `json:"whatsapp_no"`
	Address1      string `json:"address_1"`
	Address2      string `json:"address_2,omitempty"`
	City          string `json:"city"`
	State         string `json:"state"`
	Pincode       int    `json:"pincode"`
	Organization  int    `json:"organization"`
	Role          int    `json:"role"`
}

// UpdateTeacherRequest is a partial update; nil fields are not sent.
type UpdateTeacherRequest struct {
	Name          *string `json:"name,omitempty"`
	Email         *string `json:"email,omitempty"`
	Qualification *string `json:"qualification,omitempty"`
	MobileNo      *string `json:"mobile_no,omitempty"`
	WhatsappNo    *string `json:"whatsapp_no,omitempty"`
	Address1      *string `json:"address_1,omitempty"`
	Address2      *string `json:"address_2,omitempty"`
	City          *string `json:"city,omitempty"`
	State         *string `json:"state,omitempty"`
	Pincode       *int    `json:"pincode,omitempty"`
	Organization  *int    `json:"organization,omitempty"`
}
