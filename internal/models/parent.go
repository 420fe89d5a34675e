package models

import (
	"strconv"
	"time"
)

// Relations accepted for a parent record.
var Relations = []string{"Father", "Mother", "Sister", "Brother", "Guardian"}

// Parent represents a guardian linked to one or more students.
type Parent struct {
	ID           int        `json:"id,omitempty"`
	ParentID     int        `json:"parent_id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Relation     string     `json:"relation"`
	Address1     string     `json:"address_1"`
	Address2     string     `json:"address_2,omitempty"`
	City         string     `json:"city"`
	State        string     `json:"state"`
	Pincode      int        `json:"pincode"`
	MobileNo     string     `json:"mobile_no"`
	WhatsappNo   string     `json:"whatsapp_no"`
	Organization Ref        `json:"organization"`
	Role         Ref        `json:"role"`
	CreatedAt    *time.Time `json:"created_at,omitempty"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

// Key returns the parent_id used in resource paths.
func (p Parent) Key() string {
	return strconv.Itoa(p.ParentID)
}

// CreateParentRequest is the registration payload for a parent.
type CreateParentRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Relation     string `json:"relation"`
	Address1     string `json:"address_1"`
	Address2     string `json:"address_2,omitempty"`
	City         string `json:"city"`
	State        string `json:"state"`
	Pincode      int    `json:"pincode"`
	MobileNo     string `json:"mobile_no"`
	WhatsappNo   string `json:"whatsapp_no"`
	Organization int    `json:"organization"`
	Role         int    `json:"role"`
}

// UpdateParentRequest is a partial update; nil fields are not sent.
type UpdateParentRequest struct {
	Name       *string `json:"name,omitempty"`
	Email      *string `json:"email,omitempty"`
	Relation   *string `json:"relation,omitempty"`
	Address1   *string `json:"address_1,omitempty"`
	Address2   *string `json:"address_2,omitempty"`
	City       *string `json:"city,omitempty"`
	State      *string `json:"state,omitempty"`
	Pincode    *int    `json:"pincode,omitempty"`
	MobileNo   *string `json:"mobile_no,omitempty"`
	WhatsappNo *string `json:"whatsapp_no,omitempty"`
}
