package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-adp-client/internal/middleware"
	"github.com/noah-isme/sma-adp-client/internal/models"
	"github.com/noah-isme/sma-adp-client/internal/query"
	"github.com/noah-isme/sma-adp-client/internal/service"
	"github.com/noah-isme/sma-adp-client/internal/validation"
	appErrors "github.com/noah-isme/sma-adp-client/pkg/errors"
)

type responseEnvelope struct {
	Data       json.RawMessage        `json:"data"`
	Error      *appErrors.Error       `json:"error"`
	Pagination *models.Pagination     `json:"pagination"`
	Meta       map[string]interface{} `json:"meta"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) responseEnvelope {
	t.Helper()
	var env responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

type fakeTeachers struct {
	listed    int
	refetched int
	filter    models.RosterFilter
	drafts    []validation.TeacherDraft
}

func (f *fakeTeachers) List(ctx context.Context, filter models.RosterFilter) (*service.Page[models.Teacher], error) {
	f.listed++
	f.filter = filter
	fetched := time.Date(2026, 10, 18, 8, 0, 0, 0, time.UTC)
	return &service.Page[models.Teacher]{
		Items:      []models.Teacher{{TeacherID: 4, Name: "Bu Sari"}},
		Pagination: models.Pagination{Page: 1, PageSize: 20, TotalCount: 1},
		Status:     query.StatusSuccess,
		Stale:      true,
		FromCache:  true,
		FetchedAt:  &fetched,
	}, nil
}

func (f *fakeTeachers) Refetch(ctx context.Context, filter models.RosterFilter) (*service.Page[models.Teacher], error) {
	f.refetched++
	return &service.Page[models.Teacher]{Status: query.StatusSuccess}, nil
}

func (f *fakeTeachers) Get(ctx context.Context, teacherID int) (*models.Teacher, error) {
	if teacherID != 4 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "Not found.")
	}
	return &models.Teacher{TeacherID: 4, Name: "Bu Sari"}, nil
}

func (f *fakeTeachers) Create(ctx context.Context, draft validation.TeacherDraft) (*models.Teacher, error) {
	f.drafts = append(f.drafts, draft)
	if draft.Email == "" {
		return nil, appErrors.Validation("please correct the highlighted fields", map[string]string{"email": "This field is required"})
	}
	return &models.Teacher{TeacherID: 9, Name: draft.Name}, nil
}

func (f *fakeTeachers) Update(ctx context.Context, teacherID int, draft validation.TeacherDraft) (*models.Teacher, error) {
	f.drafts = append(f.drafts, draft)
	return &models.Teacher{TeacherID: teacherID, Name: draft.Name}, nil
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
	return &models.Student{AdmissionNo: models.Code(admissionNo), Name: "Andi"}, nil
}

func (f *fakeStudents) Create(ctx context.Context, draft validation.StudentDraft) (*models.Student, error) {
	return &models.Student{AdmissionNo: "S-9", Name: draft.Name}, nil
}

func (f *fakeStudents) Update(ctx context.Context, admissionNo string, draft validation.StudentDraft) (*models.Student, error) {
	return &models.Student{AdmissionNo: models.Code(admissionNo), Name: draft.Name}, nil
}

func (f *fakeStudents) Remove(ctx context.Context, admissionNo string) error {
	for _, r := range f.removed {
		if r == admissionNo {
			return appErrors.Clone(appErrors.ErrNotFound, "Not found.")
		}
	}
	f.removed = append(f.removed, admissionNo)
	return nil
}

type fakeParents struct{}

func (fakeParents) List(ctx context.Context, filter models.RosterFilter) (*service.Page[models.Parent], error) {
	return &service.Page[models.Parent]{Status: query.StatusLoading}, nil
}

func (fakeParents) Refetch(ctx context.Context, filter models.RosterFilter) (*service.Page[models.Parent], error) {
	return &service.Page[models.Parent]{Status: query.StatusSuccess}, nil
}

func (fakeParents) Get(ctx context.Context, parentID int) (*models.Parent, error) {
	return &models.Parent{ParentID: parentID, Name: "Ibu Rina"}, nil
}

func (fakeParents) Create(ctx context.Context, draft validation.ParentDraft) (*models.Parent, error) {
	return &models.Parent{ParentID: 1, Name: draft.Name}, nil
}

func (fakeParents) Update(ctx context.Context, parentID int, draft validation.ParentDraft) (*models.Parent, error) {
	return &models.Parent{ParentID: parentID, Name: draft.Name}, nil
}

type fakeExporter struct {
	kind   models.RosterKind
	format models.ExportFormat
}

func (f *fakeExporter) Export(ctx context.Context, kind models.RosterKind, format models.ExportFormat, filter models.RosterFilter) (*service.ExportResult, error) {
	f.kind, f.format = kind, format
	if format != models.ExportFormatCSV && format != models.ExportFormatPDF {
		return nil, appErrors.Validation("unsupported export format", map[string]string{"format": "Must be one of csv, pdf"})
	}
	return &service.ExportResult{Filename: string(kind) + "_20261018_080000." + string(format), ContentType: format.ContentType(), Data: []byte("id,name\n")}, nil
}

type fakeAuth struct {
	session models.Session
}

func (f *fakeAuth) Login(ctx context.Context, draft validation.LoginDraft) (models.Session, error) {
	if draft.Password != "secret" {
		return models.Session{}, appErrors.Clone(appErrors.ErrAuthentication, "No active account found with the given credentials")
	}
	f.session = models.Session{User: &models.User{Email: draft.Email, Organization: 3}, AccessToken: "acc", RefreshToken: "ref"}
	return f.session, nil
}

func (f *fakeAuth) Logout(ctx context.Context) error {
	f.session = models.Session{}
	return nil
}

func (f *fakeAuth) Session() models.Session { return f.session }

func (f *fakeAuth) Current() models.Session { return f.session }

func (f *fakeAuth) Refresh(ctx context.Context) (models.Session, error) {
	if !f.session.Authenticated() {
		return models.Session{}, appErrors.Clone(appErrors.ErrSessionExpired, "please re-authenticate")
	}
	return f.session, nil
}

func (f *fakeAuth) Register(ctx context.Context, draft validation.RegistrationDraft) (*models.RegisterResponse, error) {
	return &models.RegisterResponse{Message: "User registered successfully"}, nil
}

type fakeCache struct {
	invalidated []string
	cleared     bool
}

func (f *fakeCache) Status() service.CacheStatus {
	return service.CacheStatus{Online: true, Entries: []query.Snapshot{{Key: query.NewKey("teachers", "list", 3), Status: query.StatusSuccess}}}
}

func (f *fakeCache) Invalidate(entity string) int {
	f.invalidated = append(f.invalidated, entity)
	return 1
}

func (f *fakeCache) Clear(ctx context.Context) error {
	f.cleared = true
	return nil
}

func (f *fakeCache) Persist(ctx context.Context) error { return nil }

type harness struct {
	router   *gin.Engine
	auth     *fakeAuth
	teachers *fakeTeachers
	students *fakeStudents
	exporter *fakeExporter
	cache    *fakeCache
}

func newHarness() *harness {
	gin.SetMode(gin.TestMode)
	h := &harness{
		auth:     &fakeAuth{},
		teachers: &fakeTeachers{},
		students: &fakeStudents{},
		exporter: &fakeExporter{},
		cache:    &fakeCache{},
	}
	routes := Routes{
		Session:  NewSessionHandler(h.auth),
		Teachers: NewTeacherHandler(h.teachers, h.exporter),
		Students: NewStudentHandler(h.students, h.exporter),
		Parents:  NewParentHandler(fakeParents{}, h.exporter),
		Cache:    NewCacheHandler(h.cache),
		Metrics:  NewMetricsHandler(nil, nil),
	}
	h.router = gin.New()
	routes.Register(h.router.Group("/api/v1"), middleware.RequireSession(h.auth, nil))
	return h
}

func (h *harness) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func (h *harness) signIn() {
	h.auth.session = models.Session{User: &models.User{Email: "admin@sma.sch.id", Organization: 3}, AccessToken: "acc"}
}

func TestRosterRoutesRequireSession(t *testing.T) {
	h := newHarness()

	rec := h.do(http.MethodGet, "/api/v1/teachers", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, appErrors.ErrSessionExpired.Code, decode(t, rec).Error.Code)
	assert.Zero(t, h.teachers.listed)

	rec = h.do(http.MethodGet, "/api/v1/session", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"authenticated":false}`, string(decode(t, rec).Data))
}

func TestSessionLoginFlow(t *testing.T) {
	h := newHarness()

	rec := h.do(http.MethodPost, "/api/v1/session/login", `{"email":"admin@sma.sch.id","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.do(http.MethodPost, "/api/v1/session/login", `{"email":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(http.MethodPost, "/api/v1/session/login", `{"email":"admin@sma.sch.id","password":"secret"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "acc")
	assert.Contains(t, string(decode(t, rec).Data), `"authenticated":true`)

	rec = h.do(http.MethodGet, "/api/v1/teachers", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(http.MethodPost, "/api/v1/session/logout", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = h.do(http.MethodPost, "/api/v1/session/refresh", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.do(http.MethodPost, "/api/v1/register", `{"email":"new@sma.sch.id","password":"pw","role":"2","organization":"3"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestTeacherListReportsQueryState(t *testing.T) {
	h := newHarness()
	h.signIn()

	rec := h.do(http.MethodGet, "/api/v1/teachers?search=sari&page=1&limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	env := decode(t, rec)
	assert.Equal(t, "sari", h.teachers.filter.Search)
	assert.Equal(t, 5, h.teachers.filter.PageSize)
	assert.Equal(t, 1, env.Pagination.TotalCount)
	assert.Equal(t, true, env.Meta["stale"])
	assert.Equal(t, true, env.Meta["from_cache"])
	assert.Equal(t, "2026-10-18T08:00:00Z", env.Meta["fetched_at"])
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	h.do(http.MethodGet, "/api/v1/teachers?refresh=true", "")
	assert.Equal(t, 1, h.teachers.refetched)
	assert.Equal(t, 1, h.teachers.listed)
}

func TestTeacherGetAndCreate(t *testing.T) {
	h := newHarness()
	h.signIn()

	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/api/v1/teachers/4", "").Code)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, "/api/v1/teachers/5", "").Code)
	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodGet, "/api/v1/teachers/abc", "").Code)

	rec := h.do(http.MethodPost, "/api/v1/teachers", `{"name":"Pak Budi"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decode(t, rec)
	assert.Equal(t, appErrors.ErrValidation.Code, env.Error.Code)
	assert.Equal(t, "This field is required", env.Error.Fields["email"])

	rec = h.do(http.MethodPost, "/api/v1/teachers", `{"name":"Pak Budi","email":"budi@sma.sch.id"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = h.do(http.MethodPut, "/api/v1/teachers/4", `{"name":"Bu Sari W."}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Bu Sari W.", h.teachers.drafts[len(h.teachers.drafts)-1].Name)
}

func TestStudentDelete(t *testing.T) {
	h := newHarness()
	h.signIn()

	assert.Equal(t, http.StatusNoContent, h.do(http.MethodDelete, "/api/v1/students/S-1", "").Code)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodDelete, "/api/v1/students/S-1", "").Code)

	rec := h.do(http.MethodGet, "/api/v1/students/S-2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(decode(t, rec).Data), `"admission_no":"S-2"`)
}

func TestParentListWhileLoading(t *testing.T) {
	h := newHarness()
	h.signIn()

	rec := h.do(http.MethodGet, "/api/v1/parents", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, string(query.StatusLoading), decode(t, rec).Meta["status"])
}

func TestRosterExport(t *testing.T) {
	h := newHarness()
	h.signIn()

	rec := h.do(http.MethodGet, "/api/v1/students/export?format=CSV", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.RosterStudents, h.exporter.kind)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="students_20261018_080000.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "id,name\n", rec.Body.String())

	rec = h.do(http.MethodGet, "/api/v1/teachers/export?format=xlsx", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, models.RosterTeachers, h.exporter.kind)
}

func TestCacheRoutes(t *testing.T) {
	h := newHarness()

	rec := h.do(http.MethodGet, "/api/v1/cache", "")
	require.Equal(t, http.StatusOK, rec.Code)
	env := decode(t, rec)
	assert.EqualValues(t, 1, env.Meta["entries"])
	assert.Contains(t, string(env.Data), `"online":true`)

	rec = h.do(http.MethodPost, "/api/v1/cache/invalidate?entity=teachers", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"teachers"}, h.cache.invalidated)

	assert.Equal(t, http.StatusNoContent, h.do(http.MethodDelete, "/api/v1/cache", "").Code)
	assert.True(t, h.cache.cleared)
}

func TestMetricsHandlerWithoutService(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewMetricsHandler(nil, nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	handler.Prometheus(c)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/metrics/summary", nil)
	handler.Snapshot(c)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.True(t, c.IsAborted())

	rec = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)
	handler.Health(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
