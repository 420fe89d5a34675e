package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-adp-client/internal/models"
	appErrors "github.com/noah-isme/sma-adp-client/pkg/errors"
)

func validParent() ParentDraft {
	return ParentDraft{
		Name:       "Ibu Rina",
		Email:      "rina@mail.id",
		Relation:   "Mother",
		Address1:   "Jl. Merdeka 1",
		City:       "Bandung",
		State:      "Jawa Barat",
		Pincode:    "401151",
		MobileNo:   "0812345678",
		WhatsappNo: "0812345678",
	}
}

func TestValidateParentRules(t *testing.T) {
	v := New()
	tests := []struct {
		name   string
		mutate func(*ParentDraft)
		want   FieldErrors
	}{
		{name: "valid", mutate: func(*ParentDraft) {}, want: FieldErrors{}},
		{name: "missing name", mutate: func(d *ParentDraft) { d.Name = "" }, want: FieldErrors{"name": "This field is required"}},
		{name: "bad email", mutate: func(d *ParentDraft) { d.Email = "rina.mail.id" }, want: FieldErrors{"email": "Invalid email format"}},
		{name: "short phone", mutate: func(d *ParentDraft) { d.MobileNo = "08123" }, want: FieldErrors{"mobile_no": "Must be 10 digits"}},
		{name: "letters in phone", mutate: func(d *ParentDraft) { d.WhatsappNo = "08123abcde" }, want: FieldErrors{"whatsapp_no": "Must be 10 digits"}},
		{name: "long pincode", mutate: func(d *ParentDraft) { d.Pincode = "4011511" }, want: FieldErrors{"pincode": "Must be 6 digits"}},
		{name: "unknown relation", mutate: func(d *ParentDraft) { d.Relation = "Uncle" }, want: FieldErrors{"relation": "Must be one of Father, Mother, Sister, Brother, Guardian"}},
		{name: "empty beats format", mutate: func(d *ParentDraft) { d.Pincode = "" }, want: FieldErrors{"pincode": "This field is required"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := validParent()
			tc.mutate(&d)
			assert.Equal(t, tc.want, v.Validate(d))
		})
	}
}

func TestValidateStudentNameLength(t *testing.T) {
	v := New()
	d := StudentDraft{Name: strings.Repeat("a", 201), Parent: "1", ClassRoom: "2"}
	assert.Equal(t, FieldErrors{"name": "Name must be less than 200 characters"}, v.Validate(d))
	d.Name = strings.Repeat("a", 200)
	assert.Empty(t, v.Validate(d))

	d = StudentDraft{}
	errs := v.Validate(d)
	assert.Equal(t, "This field is required", errs["name"])
	assert.Equal(t, "This field is required", errs["parent"])
	assert.Equal(t, "This field is required", errs["class_room"])
	assert.Len(t, errs, 3)
}

func TestValidateIsPure(t *testing.T) {
	v := New()
	d := LoginDraft{Email: "x"}
	first := v.Validate(d)
	second := v.Validate(d)
	assert.Equal(t, first, second)
	assert.Equal(t, LoginDraft{Email: "x"}, d)
}

func TestFieldErrorsErr(t *testing.T) {
	assert.NoError(t, FieldErrors{}.Err())
	err := FieldErrors{"email": "Invalid email format"}.Err()
	require.True(t, errors.Is(err, appErrors.ErrValidation))
	assert.Equal(t, "Invalid email format", appErrors.FieldsOf(err)["email"])
}

func TestFormSubmitBlocksAndSetClearsOnlyThatField(t *testing.T) {
	form := NewForm(New(), LoginDraft{})
	assert.False(t, form.Submit())
	assert.Equal(t, FieldErrors{"email": "This field is required", "password": "This field is required"}, form.Errors())

	require.NoError(t, form.Set("email", "admin"))
	assert.Equal(t, FieldErrors{"password": "This field is required"}, form.Errors())

	// editing never re-validates
	require.NoError(t, form.Set("password", "secret"))
	assert.Empty(t, form.Errors())

	assert.False(t, form.Submit())
	assert.Equal(t, FieldErrors{"email": "Invalid email format"}, form.Errors())

	require.NoError(t, form.Set("email", "admin@sma.sch.id"))
	assert.True(t, form.Submit())
	assert.Equal(t, "admin@sma.sch.id", form.Draft().Email)
}

func TestFormSetUnknownField(t *testing.T) {
	form := NewForm[ParentDraft](nil, ParentDraft{})
	assert.Error(t, form.Set("nickname", "x"))
}

func TestFormApplyServerErrors(t *testing.T) {
	form := NewForm(New(), validParent())
	require.True(t, form.Submit())

	rejected := appErrors.Validation("request rejected", map[string]string{"email": "parent with this email already exists."})
	assert.True(t, form.ApplyServerErrors(rejected))
	assert.Equal(t, FieldErrors{"email": "parent with this email already exists."}, form.Errors())

	assert.False(t, form.ApplyServerErrors(appErrors.Fetch(errors.New("boom"), 500, "")))
	assert.Equal(t, FieldErrors{"email": "parent with this email already exists."}, form.Errors())
}

func TestDraftConversions(t *testing.T) {
	d := validParent()
	req := d.CreateRequest(7)
	assert.Equal(t, 401151, req.Pincode)
	assert.Equal(t, 7, req.Organization)

	d.Organization = "3"
	assert.Equal(t, 3, d.CreateRequest(7).Organization)

	upd := d.UpdateRequest()
	require.NotNil(t, upd.Relation)
	assert.Equal(t, "Mother", *upd.Relation)

	teacher := models.Teacher{TeacherID: 4, Name: "Bu Sari", Pincode: 560001, Organization: 2}
	td := TeacherDraftFrom(teacher)
	assert.Equal(t, "560001", td.Pincode)
	assert.Equal(t, "2", td.Organization)
	assert.Equal(t, "", td.Role)

	sd := StudentDraft{Name: " Andi ", Parent: "5", ClassRoom: "9"}
	su := sd.UpdateRequest()
	assert.Equal(t, "Andi", *su.Name)
	assert.Equal(t, 5, *su.Parent)
	assert.Equal(t, 9, *su.ClassRoom)

	reg := RegistrationDraft{Email: "a@b.id", Password: "pw", Role: "1", Organization: "3"}.Request()
	assert.Equal(t, models.RegisterRequest{Email: "a@b.id", Password: "pw", Role: 1, Organization: 3}, reg)
}
