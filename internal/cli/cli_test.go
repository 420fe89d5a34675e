package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-adp-client/internal/models"
	"github.com/noah-isme/sma-adp-client/internal/query"
	"github.com/noah-isme/sma-adp-client/internal/service"
	"github.com/noah-isme/sma-adp-client/internal/validation"
	appErrors "github.com/noah-isme/sma-adp-client/pkg/errors"
)

type fakeAuth struct {
	session  models.Session
	password string
}

func (f *fakeAuth) Login(ctx context.Context, draft validation.LoginDraft) (models.Session, error) {
	f.password = draft.Password
	if draft.Password != "secret" {
		return models.Session{}, appErrors.Clone(appErrors.ErrAuthentication, "No active account found with the given credentials")
	}
	f.session = models.Session{User: &models.User{Email: draft.Email, Organization: 3, Role: 1}, AccessToken: "acc"}
	return f.session, nil
}

func (f *fakeAuth) Logout(ctx context.Context) error {
	f.session = models.Session{}
	return nil
}

func (f *fakeAuth) Session() models.Session { return f.session }

type fakeTeachers struct {
	updated []validation.TeacherDraft
}

func (f *fakeTeachers) List(ctx context.Context, filter models.RosterFilter) (*service.Page[models.Teacher], error) {
	return &service.Page[models.Teacher]{
		Items: []models.Teacher{
			{TeacherID: 4, Name: "Bu Sari", Email: "sari@sma.sch.id", MobileNo: "0812345678", City: "Bandung"},
			{TeacherID: 12, Name: "Pak Budi Santoso", Email: "budi@sma.sch.id", MobileNo: "0898765432", City: "Cimahi"},
		},
		Pagination: models.Pagination{Page: 1, PageSize: 20, TotalCount: 2},
		Status:     query.StatusSuccess,
		Stale:      true,
		FromCache:  true,
	}, nil
}

func (f *fakeTeachers) Refetch(ctx context.Context, filter models.RosterFilter) (*service.Page[models.Teacher], error) {
	return f.List(ctx, filter)
}

func (f *fakeTeachers) Get(ctx context.Context, teacherID int) (*models.Teacher, error) {
	return &models.Teacher{
		TeacherID: teacherID, Name: "Bu Sari", Email: "sari@sma.sch.id", MobileNo: "0812345678", WhatsappNo: "0812345678",
		Address1: "Jl. Asia Afrika 8", City: "Bandung", State: "Jawa Barat", Pincode: 401135, Organization: 3, Role: 2,
	}, nil
}

func (f *fakeTeachers) Create(ctx context.Context, draft validation.TeacherDraft) (*models.Teacher, error) {
	return &models.Teacher{TeacherID: 20, Name: draft.Name}, nil
}

func (f *fakeTeachers) Update(ctx context.Context, teacherID int, draft validation.TeacherDraft) (*models.Teacher, error) {
	f.updated = append(f.updated, draft)
	if draft.Email == "taken@sma.sch.id" {
		return nil, appErrors.Validation("Invalid data", map[string]string{"email": "teacher with this email already exists."})
	}
	return &models.Teacher{TeacherID: teacherID, Name: draft.Name, Email: draft.Email}, nil
}

type fakeStudents struct {
	removed []string
}

func (f *fakeStudents) List(ctx context.Context, filter models.RosterFilter) (*service.Page[models.Student], error) {
	return &service.Page[models.Student]{Status: query.StatusSuccess}, nil
}

func (f *fakeStudents) Refetch(ctx context.Context, filter models.RosterFilter) (*service.Page[models.Student], error) {
	return f.List(ctx, filter)
}

func (f *fakeStudents) Get(ctx context.Context, admissionNo string) (*models.Student, error) {
	return nil, appErrors.Clone(appErrors.ErrNotFound, "Not found.")
}

func (f *fakeStudents) Create(ctx context.Context, draft validation.StudentDraft) (*models.Student, error) {
	return &models.Student{AdmissionNo: "S-9", Name: draft.Name}, nil
}

func (f *fakeStudents) Update(ctx context.Context, admissionNo string, draft validation.StudentDraft) (*models.Student, error) {
	return nil, errors.New("not reached")
}

func (f *fakeStudents) Remove(ctx context.Context, admissionNo string) error {
	f.removed = append(f.removed, admissionNo)
	return nil
}

type fakeParents struct{}

func (fakeParents) List(ctx context.Context, filter models.RosterFilter) (*service.Page[models.Parent], error) {
	return &service.Page[models.Parent]{Status: query.StatusSuccess}, nil
}

func (fakeParents) Refetch(ctx context.Context, filter models.RosterFilter) (*service.Page[models.Parent], error) {
	return &service.Page[models.Parent]{Status: query.StatusSuccess}, nil
}

func (fakeParents) Get(ctx context.Context, parentID int) (*models.Parent, error) {
	return &models.Parent{
		ParentID: parentID, Name: "Ibu Rina", Email: "rina@mail.id", Relation: "Mother", Address1: "Jl. Merdeka 1",
		City: "Bandung", State: "Jawa Barat", Pincode: 401151, MobileNo: "0812345678", WhatsappNo: "0812345678",
		Organization: 3, Role: 4,
	}, nil
}

func (fakeParents) Create(ctx context.Context, draft validation.ParentDraft) (*models.Parent, error) {
	return &models.Parent{ParentID: 1, Name: draft.Name}, nil
}

func (fakeParents) Update(ctx context.Context, parentID int, draft validation.ParentDraft) (*models.Parent, error) {
	return &models.Parent{ParentID: parentID, Name: draft.Name}, nil
}

type fakeExports struct{}

func (fakeExports) Export(ctx context.Context, kind models.RosterKind, format models.ExportFormat, filter models.RosterFilter) (*service.ExportResult, error) {
	if format != models.ExportFormatCSV {
		return nil, appErrors.Validation("unsupported export format", map[string]string{"format": "Must be one of csv, pdf"})
	}
	return &service.ExportResult{Filename: string(kind) + ".csv", ContentType: "text/csv", Format: format, Rows: 1, Data: []byte("ID,Name\n4,Bu Sari\n")}, nil
}

type env struct {
	auth     *fakeAuth
	teachers *fakeTeachers
	students *fakeStudents
	opened   int
	closed   int
}

func newEnv() *env {
	return &env{auth: &fakeAuth{}, teachers: &fakeTeachers{}, students: &fakeStudents{}}
}

func (e *env) signIn() {
	e.auth.session = models.Session{User: &models.User{Email: "admin@sma.sch.id", Organization: 3, Role: 1}, AccessToken: "acc"}
}

func (e *env) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	open := func(ctx context.Context, verbose bool) (*Console, error) {
		e.opened++
		return &Console{
			Auth:     e.auth,
			Teachers: e.teachers,
			Students: e.students,
			Parents:  fakeParents{},
			Exports:  fakeExports{},
			Close: func() error {
				e.closed++
				return nil
			},
		}, nil
	}
	prompt := func(label string) (string, error) { return "secret", nil }

	out := &bytes.Buffer{}
	root := NewRootCommand(open, prompt)
	root.SetOut(out)
	root.SetErr(out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func golden(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand(nil, nil)
	assert.Equal(t, "sma-admin", cmd.Use)

	for _, path := range [][]string{{"login"}, {"logout"}, {"whoami"}, {"teachers", "list"}, {"students", "delete"}, {"parents", "update"}, {"export"}} {
		sub, _, err := cmd.Find(path)
		require.NoError(t, err)
		assert.Equal(t, path[len(path)-1], sub.Name())
	}

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)
}

func TestInvalidFormat(t *testing.T) {
	e := newEnv()
	_, err := e.run(t, "whoami", "--format", "xml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Zero(t, e.opened)
}

func TestTeachersListText(t *testing.T) {
	e := newEnv()
	e.signIn()
	out, err := e.run(t, "teachers", "list")
	require.NoError(t, err)
	golden(t).Assert(t, "teachers_list_text", []byte(out))
	assert.Equal(t, 1, e.closed)
}

func TestParentsGetJSON(t *testing.T) {
	e := newEnv()
	out, err := e.run(t, "parents", "get", "2", "--format", "json")
	require.NoError(t, err)
	golden(t).Assert(t, "parents_get_json", []byte(out))
}

func TestWhoami(t *testing.T) {
	e := newEnv()
	e.signIn()

	out, err := e.run(t, "whoami")
	require.NoError(t, err)
	golden(t).Assert(t, "whoami_text", []byte(out))

	out, err = e.run(t, "whoami", "--format", "yaml")
	require.NoError(t, err)
	golden(t).Assert(t, "whoami_yaml", []byte(out))

	e.auth.session = models.Session{}
	_, err = e.run(t, "whoami")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestLoginPromptsForPassword(t *testing.T) {
	e := newEnv()
	out, err := e.run(t, "login", "--email", " admin@sma.sch.id ")
	require.NoError(t, err)
	assert.Equal(t, "secret", e.auth.password)
	assert.Contains(t, out, "admin@sma.sch.id")

	out, err = e.run(t, "login", "--email", "admin@sma.sch.id", "--password", "wrong", "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, `"code": "AUTHENTICATION_FAILED"`)
}

func TestStudentsCreateBlockedByValidation(t *testing.T) {
	e := newEnv()
	e.signIn()
	out, err := e.run(t, "students", "create", "--set", "name=", "--set", "parent=x")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	golden(t).Assert(t, "students_create_invalid_text", []byte(out))

	_, err = e.run(t, "students", "create", "--set", "nickname=Andi")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	_, err = e.run(t, "students", "create", "--set", "name")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestStudentsDelete(t *testing.T) {
	e := newEnv()
	e.signIn()
	out, err := e.run(t, "students", "delete", "S-1")
	require.NoError(t, err)
	golden(t).Assert(t, "students_delete_text", []byte(out))
	assert.Equal(t, []string{"S-1"}, e.students.removed)

	out, err = e.run(t, "students", "get", "S-404")
	require.Error(t, err)
	assert.Equal(t, "Error [NOT_FOUND]: Not found.\n", out)
}

func TestTeachersUpdateShowsServerFieldErrors(t *testing.T) {
	e := newEnv()
	e.signIn()

	out, err := e.run(t, "teachers", "update", "4", "--set", "name=Bu Sari W.", "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "Bu Sari W."`)
	require.Len(t, e.teachers.updated, 1)
	assert.Equal(t, "Jl. Asia Afrika 8", e.teachers.updated[0].Address1)

	out, err = e.run(t, "teachers", "update", "4", "--set", "email=taken@sma.sch.id")
	require.Error(t, err)
	assert.Equal(t, "Error [VALIDATION_ERROR]: Invalid data\n  email: teacher with this email already exists.\n", out)

	_, err = e.run(t, "teachers", "get", "abc")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestExportWritesFile(t *testing.T) {
	e := newEnv()
	e.signIn()
	path := filepath.Join(t.TempDir(), "out", "teachers.csv")

	out, err := e.run(t, "export", "teachers", "-o", path, "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"rows": 1`)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "ID,Name\n4,Bu Sari\n", string(data))

	_, err = e.run(t, "export", "teachers", "--as", "xlsx", "-o", path)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}
