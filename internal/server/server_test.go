package server

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ye-allison/SyllaBud/internal/course"
	"github.com/ye-allison/SyllaBud/internal/database"
	"github.com/ye-allison/SyllaBud/internal/extract"
	"github.com/ye-allison/SyllaBud/internal/ingest"
	"github.com/ye-allison/SyllaBud/internal/metrics"
)

const analysis = `# Course Information
Course: CS 1026 - Computer Science Fundamentals I

**Weekly Schedule**
| **Week** | **Course Content** |
|----------|--------------------|
| Week 1   | Introduction       |

**To-do List**
| **Name**     | **% of Course Grade** | **Due Date**      |
|--------------|-----------------------|-------------------|
| Midterm Exam | 25%                   | February 10, 2025 |
| Assignment 1 | 10%                   | January 15, 2025  |
`

type stubSummarizer struct{ out string }

func (s stubSummarizer) Summarize(context.Context, string) (string, error) { return s.out, nil }

type testEnv struct {
	db      *database.DB
	tracker *course.Tracker
	srv     *Server
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	tracker := course.NewTracker(db, nil)
	m := metrics.New()
	ing := ingest.New(tracker, extract.New(0), stubSummarizer{out: analysis}, m, nil)
	srv, err := New(Deps{
		Tracker:  tracker,
		Ingestor: ing,
		Themes:   db,
		Metrics:  m,
	})
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}
	return &testEnv{db: db, tracker: tracker, srv: srv}
}

func (e *testEnv) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func postForm(path string, form url.Values) *http.Request {
	req := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func uploadRequest(t *testing.T, path, filename, body string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("syllabus", filename)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	fw.Write([]byte(body))
	mw.Close()

	req := httptest.NewRequest("POST", path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func (e *testEnv) analyzedCourse(t *testing.T) course.Course {
	t.Helper()
	c, err := e.tracker.Add(context.Background(), "")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	rec := e.do(t, uploadRequest(t, "/courses/"+c.ID+"/upload", "syllabus.txt", "raw syllabus"))
	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302 from upload, got %d", rec.Code)
	}
	c, err = e.tracker.Get(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	return c
}

func TestHomeWelcome(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, httptest.NewRequest("GET", "/", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Get started by adding your first course") {
		t.Error("expected welcome message on empty dashboard")
	}
	if !strings.Contains(body, "background-color: #FFFFFF") {
		t.Error("expected default theme color")
	}
}

func TestHomeDashboard(t *testing.T) {
	env := newTestEnv(t)
	env.analyzedCourse(t)

	body := env.do(t, httptest.NewRequest("GET", "/", nil)).Body.String()
	for _, want := range []string{"Total Courses", "Upcoming Deadlines", "CS 1026 - Computer Science Fundamentals I", "complete (0/2 tasks)"} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q in home page", want)
		}
	}
	// Sorted ascending with zero-padded days.
	jan := strings.Index(body, "January 15, 2025")
	feb := strings.Index(body, "February 10, 2025")
	if jan < 0 || feb < 0 || jan > feb {
		t.Errorf("expected January deadline before February (jan=%d feb=%d)", jan, feb)
	}
}

func TestAddCourseRedirects(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, postForm("/courses", nil))

	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	loc := rec.Header().Get("Location")
	if !strings.HasPrefix(loc, "/courses/") {
		t.Fatalf("expected redirect to course, got %q", loc)
	}

	body := env.do(t, httptest.NewRequest("GET", loc, nil)).Body.String()
	if !strings.Contains(body, "New Course") || !strings.Contains(body, "Upload course syllabus") {
		t.Error("expected empty course page with upload form")
	}
}

func TestCoursesPage(t *testing.T) {
	env := newTestEnv(t)
	body := env.do(t, httptest.NewRequest("GET", "/courses", nil)).Body.String()
	if !strings.Contains(body, "Add a course to get started!") {
		t.Error("expected getting-started hint")
	}
}

func TestUploadAnalyzesCourse(t *testing.T) {
	env := newTestEnv(t)
	c := env.analyzedCourse(t)

	if c.Status() != course.StatusAnalyzed {
		t.Fatalf("expected analyzed course, got %s", c.Status())
	}
	body := env.do(t, httptest.NewRequest("GET", "/courses/"+c.ID, nil)).Body.String()
	for _, want := range []string{"Weekly Schedule", "Methods of Evaluation", "Midterm Exam", "Raw analysis"} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q in course page", want)
		}
	}
	if strings.Contains(body, "Upload course syllabus") {
		t.Error("upload form should be hidden once analyzed")
	}
}

func TestUploadFailureFlashes(t *testing.T) {
	env := newTestEnv(t)
	c, _ := env.tracker.Add(context.Background(), "")

	rec := env.do(t, uploadRequest(t, "/courses/"+c.ID+"/upload", "deck.pptx", "x"))
	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}

	req := httptest.NewRequest("GET", "/courses/"+c.ID, nil)
	for _, ck := range rec.Result().Cookies() {
		req.AddCookie(ck)
	}
	body := env.do(t, req).Body.String()
	if !strings.Contains(body, "Error processing document") {
		t.Error("expected flashed extraction error")
	}

	got, _ := env.tracker.Get(context.Background(), c.ID)
	if got.Status() != course.StatusEmpty {
		t.Error("expected course unchanged after failed upload")
	}
}

func TestToggleDeliverable(t *testing.T) {
	env := newTestEnv(t)
	c := env.analyzedCourse(t)

	rec := env.do(t, postForm("/courses/"+c.ID+"/toggle", url.Values{
		"deliverable": {"Assignment 1"},
		"done":        {"true"},
	}))
	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	got, _ := env.tracker.Get(context.Background(), c.ID)
	if !got.IsDone("Assignment 1") {
		t.Error("expected Assignment 1 done")
	}

	body := env.do(t, httptest.NewRequest("GET", "/", nil)).Body.String()
	if !strings.Contains(body, "complete (1/2 tasks)") {
		t.Error("expected progress to reflect toggle")
	}

	rec = env.do(t, postForm("/courses/"+c.ID+"/toggle", url.Values{"deliverable": {"Quiz 9"}, "done": {"true"}}))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown deliverable, got %d", rec.Code)
	}
}

func TestRenameReuploadDelete(t *testing.T) {
	env := newTestEnv(t)
	c := env.analyzedCourse(t)
	base := "/courses/" + c.ID

	env.do(t, postForm(base+"/rename", url.Values{"name": {"Intro CS"}}))
	got, _ := env.tracker.Get(context.Background(), c.ID)
	if got.Name != "Intro CS" {
		t.Errorf("expected renamed course, got %q", got.Name)
	}

	env.do(t, postForm(base+"/rename", url.Values{"name": {"   "}}))
	got, _ = env.tracker.Get(context.Background(), c.ID)
	if got.Name != "Intro CS" {
		t.Errorf("blank rename should be ignored, got %q", got.Name)
	}

	env.do(t, postForm(base+"/reupload", nil))
	got, _ = env.tracker.Get(context.Background(), c.ID)
	if got.Status() != course.StatusEmpty || got.Name != "Intro CS" {
		t.Errorf("expected empty course keeping its name, got %s %q", got.Status(), got.Name)
	}

	rec := env.do(t, postForm(base+"/delete", nil))
	if loc := rec.Header().Get("Location"); loc != "/courses" {
		t.Errorf("expected redirect to /courses, got %q", loc)
	}
	if rec := env.do(t, httptest.NewRequest("GET", base, nil)); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestThemeSelection(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, postForm("/theme", url.Values{"theme": {"Blue"}, "return": {"/courses"}}))
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/courses" {
		t.Fatalf("expected redirect back to /courses, got %d %q", rec.Code, rec.Header().Get("Location"))
	}
	body := env.do(t, httptest.NewRequest("GET", "/", nil)).Body.String()
	if !strings.Contains(body, "background-color: #f5f9ff") {
		t.Error("expected blue theme color")
	}

	rec = env.do(t, postForm("/theme", url.Values{"theme": {"Blue"}, "return": {"//evil.example"}}))
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Errorf("expected off-site return to be rejected, got %q", loc)
	}

	rec = env.do(t, postForm("/theme", url.Values{"theme": {"Black"}}))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown theme, got %d", rec.Code)
	}
}

func TestExportRoutes(t *testing.T) {
	env := newTestEnv(t)
	env.analyzedCourse(t)

	rec := env.do(t, httptest.NewRequest("GET", "/export/csv", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("unexpected content type %q", ct)
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), "deadlines.csv") {
		t.Error("expected attachment filename")
	}
	if !strings.HasPrefix(rec.Body.String(), "Course,Task,Weight,Due Date") {
		t.Errorf("unexpected csv body %q", rec.Body.String())
	}

	if rec := env.do(t, httptest.NewRequest("GET", "/export/ics", nil)); !strings.Contains(rec.Body.String(), "BEGIN:VCALENDAR") {
		t.Error("expected calendar body")
	}
	if rec := env.do(t, httptest.NewRequest("GET", "/export/docx", nil)); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown format, got %d", rec.Code)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, httptest.NewRequest("GET", "/healthz", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("unexpected health response %d %q", rec.Code, rec.Body.String())
	}

	env.do(t, httptest.NewRequest("GET", "/", nil))
	rec = env.do(t, httptest.NewRequest("GET", "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "syllabud_http_requests_total") {
		t.Error("expected request counter in metrics output")
	}
}

func TestStaticFiles(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, httptest.NewRequest("GET", "/static/style.css", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestCourseNotFound(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, httptest.NewRequest("GET", "/courses/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}
