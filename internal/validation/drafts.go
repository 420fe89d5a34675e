package validation

import (
	"strconv"
	"strings"

	"github.com/noah-isme/sma-adp-client/internal/models"
)

// TeacherDraft is the teacher create/edit panel as typed by the user.
type TeacherDraft struct {
	Name          string `json:"name" validate:"required"`
	Qualification string `json:"qualification"`
	Email         string `json:"email" validate:"required,email"`
	MobileNo      string `json:"mobile_no" validate:"required,digits=10"`
	WhatsappNo    string `json:"whatsapp_no" validate:"required,digits=10"`
	Address1      string `json:"address_1" validate:"required"`
	Address2      string `json:"address_2"`
	City          string `json:"city" validate:"required"`
	State         string `json:"state" validate:"required"`
	Pincode       string `json:"pincode" validate:"required,digits=6"`
	Organization  string `json:"organization" validate:"omitempty,number"`
	Role          string `json:"role" validate:"omitempty,number"`
}

// TeacherDraftFrom prefills the edit panel.
func TeacherDraftFrom(t models.Teacher) TeacherDraft {
	return TeacherDraft{
		Name:          t.Name,
		Qualification: t.Qualification,
		Email:         t.Email,
		MobileNo:      t.MobileNo,
		WhatsappNo:    t.WhatsappNo,
		Address1:      t.Address1,
		Address2:      t.Address2,
		City:          t.City,
		State:         t.State,
		Pincode:       itoa(t.Pincode),
		Organization:  itoa(t.Organization.Int()),
		Role:          itoa(t.Role.Int()),
	}
}

// CreateRequest converts a validated draft. organizationID fills in the
// organization when the draft leaves it blank.
func (d TeacherDraft) CreateRequest(organizationID int) models.CreateTeacherRequest {
	return models.CreateTeacherRequest{
		Name:          strings.TrimSpace(d.Name),
		Email:         strings.TrimSpace(d.Email),
		Qualification: strings.TrimSpace(d.Qualification),
		MobileNo:      d.MobileNo,
		WhatsappNo:    d.WhatsappNo,
		Address1:      strings.TrimSpace(d.Address1),
		Address2:      strings.TrimSpace(d.Address2),
		City:          strings.TrimSpace(d.City),
		State:         strings.TrimSpace(d.State),
		Pincode:       atoi(d.Pincode),
		Organization:  orDefault(atoi(d.Organization), organizationID),
		Role:          atoi(d.Role),
	}
}

// UpdateRequest sends every editable field. Role is fixed once registered.
func (d TeacherDraft) UpdateRequest() models.UpdateTeacherRequest {
	req := d.CreateRequest(0)
	return models.UpdateTeacherRequest{
		Name:          &req.Name,
		Email:         &req.Email,
		Qualification: &req.Qualification,
		MobileNo:      &req.MobileNo,
		WhatsappNo:    &req.WhatsappNo,
		Address1:      &req.Address1,
		Address2:      &req.Address2,
		City:          &req.City,
		State:         &req.State,
		Pincode:       &req.Pincode,
	}
}

// StudentDraft is the student panel. Parent and class room are ids picked
// from a list.
type StudentDraft struct {
	AdmissionNo  string `json:"admission_no"`
	Name         string `json:"name" validate:"required,max=200"`
	Parent       string `json:"parent" validate:"required,number"`
	ClassRoom    string `json:"class_room" validate:"required,number"`
	Organization string `json:"organization" validate:"omitempty,number"`
	Role         string `json:"role" validate:"omitempty,number"`
}

func StudentDraftFrom(s models.Student) StudentDraft {
	return StudentDraft{
		AdmissionNo:  s.AdmissionNo.String(),
		Name:         s.Name,
		Parent:       itoa(s.Parent.Int()),
		ClassRoom:    itoa(s.ClassRoom.Int()),
		Organization: itoa(s.Organization.Int()),
		Role:         itoa(s.Role.Int()),
	}
}

func (d StudentDraft) CreateRequest(organizationID int) models.CreateStudentRequest {
	return models.CreateStudentRequest{
		AdmissionNo:  strings.TrimSpace(d.AdmissionNo),
		Name:         strings.TrimSpace(d.Name),
		Parent:       atoi(d.Parent),
		ClassRoom:    atoi(d.ClassRoom),
		Organization: orDefault(atoi(d.Organization), organizationID),
		Role:         atoi(d.Role),
	}
}

// UpdateRequest sends the three fields the student panel edits.
func (d StudentDraft) UpdateRequest() models.UpdateStudentRequest {
	name := strings.TrimSpace(d.Name)
	parent := atoi(d.Parent)
	classRoom := atoi(d.ClassRoom)
	return models.UpdateStudentRequest{Name: &name, Parent: &parent, ClassRoom: &classRoom}
}

// ParentDraft is the parent panel.
type ParentDraft struct {
	Name         string `json:"name" validate:"required"`
	Email        string `json:"email" validate:"required,email"`
	Relation     string `json:"relation" validate:"required,oneof=Father Mother Sister Brother Guardian"`
	Address1     string `json:"address_1" validate:"required"`
	Address2     string `json:"address_2"`
	City         string `json:"city" validate:"required"`
	State        string `json:"state" validate:"required"`
	Pincode      string `json:"pincode" validate:"required,digits=6"`
	MobileNo     string `json:"mobile_no" validate:"required,digits=10"`
	WhatsappNo   string `json:"whatsapp_no" validate:"required,digits=10"`
	Organization string `json:"organization" validate:"omitempty,number"`
	Role         string `json:"role" validate:"omitempty,number"`
}

func ParentDraftFrom(p models.Parent) ParentDraft {
	return ParentDraft{
		Name:         p.Name,
		Email:        p.Email,
		Relation:     p.Relation,
		Address1:     p.Address1,
		Address2:     p.Address2,
		City:         p.City,
		State:        p.State,
		Pincode:      itoa(p.Pincode),
		MobileNo:     p.MobileNo,
		WhatsappNo:   p.WhatsappNo,
		Organization: itoa(p.Organization.Int()),
		Role:         itoa(p.Role.Int()),
	}
}

func (d ParentDraft) CreateRequest(organizationID int) models.CreateParentRequest {
	return models.CreateParentRequest{
		Name:         strings.TrimSpace(d.Name),
		Email:        strings.TrimSpace(d.Email),
		Relation:     d.Relation,
		Address1:     strings.TrimSpace(d.Address1),
		Address2:     strings.TrimSpace(d.Address2),
		City:         strings.TrimSpace(d.City),
		State:        strings.TrimSpace(d.State),
		Pincode:      atoi(d.Pincode),
		MobileNo:     d.MobileNo,
		WhatsappNo:   d.WhatsappNo,
		Organization: orDefault(atoi(d.Organization), organizationID),
		Role:         atoi(d.Role),
	}
}

func (d ParentDraft) UpdateRequest() models.UpdateParentRequest {
	req := d.CreateRequest(0)
	return models.UpdateParentRequest{
		Name:       &req.Name,
		Email:      &req.Email,
		Relation:   &req.Relation,
		Address1:   &req.Address1,
		Address2:   &req.Address2,
		City:       &req.City,
		State:      &req.State,
		Pincode:    &req.Pincode,
		MobileNo:   &req.MobileNo,
		WhatsappNo: &req.WhatsappNo,
	}
}

// LoginDraft is the sign-in form.
type LoginDraft struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegistrationDraft is the account sign-up form.
type RegistrationDraft struct {
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required"`
	Role         string `json:"role" validate:"required,number"`
	Organization string `json:"organization" validate:"required,number"`
}

func (d RegistrationDraft) Request() models.RegisterRequest {
	return models.RegisterRequest{
		Email:        strings.TrimSpace(d.Email),
		Password:     d.Password,
		Role:         atoi(d.Role),
		Organization: atoi(d.Organization),
	}
}

func atoi(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}

func itoa(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func orDefault(n, fallback int) int {
	if n > 0 {
		return n
	}
	return fallback
}
