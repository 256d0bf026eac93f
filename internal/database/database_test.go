package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/ye-allison/SyllaBud/internal/course"
	"github.com/ye-allison/SyllaBud/internal/theme"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func analyzedCourse(id string) course.Course {
	c := course.New(id, "", time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC))
	return c.WithAnalysis(course.Analysis{
		CourseName:   "CS 1026 - Computer Science Fundamentals I",
		SourceText:   "raw syllabus",
		AnalysisText: "Course: CS 1026",
		Weekly: []course.WeeklyEntry{
			{Week: "Week 1", Content: "Introduction"},
			{Week: "Week 2", Content: "Variables"},
		},
		Deliverables: []course.Deliverable{
			{Name: "Assignment 1", Weight: "10%", DueDate: "January 15, 2025"},
			{Name: "Final Exam", Weight: "40%", DueDate: "N/A"},
		},
	})
}

func TestSaveAndGetCourse(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	c := analyzedCourse("c1")
	c.Completed["Assignment 1"] = true
	if err := db.Save(ctx, c); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := db.Get(ctx, "c1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != c.Name {
		t.Errorf("expected name %q, got %q", c.Name, got.Name)
	}
	if got.SyllabusText == nil || *got.SyllabusText != "raw syllabus" {
		t.Errorf("expected syllabus text to round-trip, got %v", got.SyllabusText)
	}
	if got.Status() != course.StatusAnalyzed {
		t.Errorf("expected analyzed, got %s", got.Status())
	}
	if len(got.Weekly) != 2 || got.Weekly[1].Content != "Variables" {
		t.Errorf("unexpected weekly entries: %+v", got.Weekly)
	}
	if len(got.Deliverables) != 2 || got.Deliverables[0].Name != "Assignment 1" {
		t.Errorf("unexpected deliverables: %+v", got.Deliverables)
	}
	if !got.Completed["Assignment 1"] || got.Completed["Final Exam"] {
		t.Errorf("unexpected completion map: %v", got.Completed)
	}
	if !got.CreatedAt.Equal(c.CreatedAt) {
		t.Errorf("expected created_at %v, got %v", c.CreatedAt, got.CreatedAt)
	}
}

func TestGetMissingCourse(t *testing.T) {
	db := openTestDB(t)
	_, err := db.Get(context.Background(), "nope")
	if !errors.Is(err, course.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveEmptyCourse(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	c := course.New("empty", "", time.Now())
	if err := db.Save(ctx, c); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := db.Get(ctx, "empty")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != course.DefaultName {
		t.Errorf("expected default name, got %q", got.Name)
	}
	if got.SyllabusText != nil || got.Analysis != nil {
		t.Error("expected nil texts for empty course")
	}
	if got.Weekly != nil || got.Deliverables != nil {
		t.Error("expected no tables for empty course")
	}
}

func TestSaveReplacesChildRows(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	c := analyzedCourse("c1")
	if err := db.Save(ctx, c); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if err := db.Save(ctx, c.Reuploaded()); err != nil {
		t.Fatalf("Save reuploaded: %v", err)
	}
	got, err := db.Get(ctx, "c1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.Weekly) != 0 || len(got.Deliverables) != 0 {
		t.Errorf("expected tables cleared, got %d weeks and %d deliverables", len(got.Weekly), len(got.Deliverables))
	}
	if got.Status() != course.StatusEmpty {
		t.Errorf("expected empty status, got %s", got.Status())
	}
	if _, ok := got.Completed["Assignment 1"]; !ok {
		t.Error("expected completion entries to survive reupload")
	}
}

func TestListNewestFirst(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if err := db.Save(ctx, course.New(id, id, time.Now())); err != nil {
			t.Fatalf("Save %s: %v", id, err)
		}
	}
	// Updating an existing course keeps its position.
	renamed, _ := course.New("a", "a", time.Now()).WithName("renamed")
	if err := db.Save(ctx, renamed); err != nil {
		t.Fatalf("Save renamed: %v", err)
	}

	courses, err := db.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var ids []string
	for _, c := range courses {
		ids = append(ids, c.ID)
	}
	if len(ids) != 3 || ids[0] != "c" || ids[1] != "b" || ids[2] != "a" {
		t.Errorf("expected [c b a], got %v", ids)
	}
	if courses[2].Name != "renamed" {
		t.Errorf("expected renamed course, got %q", courses[2].Name)
	}
}

func TestListIncludesChildren(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.Save(ctx, analyzedCourse("c1")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := db.Save(ctx, course.New("c2", "", time.Now())); err != nil {
		t.Fatalf("Save: %v", err)
	}

	courses, err := db.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(courses) != 2 {
		t.Fatalf("expected 2 courses, got %d", len(courses))
	}
	if len(courses[1].Deliverables) != 2 {
		t.Errorf("expected 2 deliverables on analyzed course, got %d", len(courses[1].Deliverables))
	}
	if len(courses[0].Deliverables) != 0 {
		t.Errorf("expected no deliverables on empty course, got %d", len(courses[0].Deliverables))
	}
}

func TestDeleteCourseCascades(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.Save(ctx, analyzedCourse("c1")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := db.Delete(ctx, "c1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	var count int
	if err := db.conn.Get(&count, "SELECT COUNT(*) FROM deliverables"); err != nil {
		t.Fatalf("count deliverables: %v", err)
	}
	if count != 0 {
		t.Errorf("expected deliverables removed, got %d", count)
	}

	if err := db.Delete(ctx, "c1"); !errors.Is(err, course.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestTrackerOverDB(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	tracker := course.NewTracker(db, nil)

	c, err := tracker.Add(ctx, "Biology")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := tracker.ApplyAnalysis(ctx, c.ID, course.Analysis{
		CourseName:   "BIO 1001",
		SourceText:   "text",
		AnalysisText: "analysis",
		Deliverables: []course.Deliverable{{Name: "Lab Report", Weight: "15%", DueDate: "March 3, 2025"}},
	}); err != nil {
		t.Fatalf("ApplyAnalysis: %v", err)
	}
	if _, err := tracker.SetCompletion(ctx, c.ID, "Lab Report", true); err != nil {
		t.Fatalf("SetCompletion: %v", err)
	}

	got, err := db.Get(ctx, c.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !got.IsDone("Lab Report") {
		t.Error("expected Lab Report to be done")
	}
}

func TestThemeSetting(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	name, err := db.Theme(ctx)
	if err != nil {
		t.Fatalf("Theme: %v", err)
	}
	if name != theme.Default {
		t.Errorf("expected default theme, got %q", name)
	}

	if err := db.SeedTheme(ctx, "Blue"); err != nil {
		t.Fatalf("SeedTheme: %v", err)
	}
	if err := db.SetTheme(ctx, "Pink"); err != nil {
		t.Fatalf("SetTheme: %v", err)
	}
	if err := db.SeedTheme(ctx, "Green"); err != nil {
		t.Fatalf("SeedTheme: %v", err)
	}
	name, _ = db.Theme(ctx)
	if name != "Pink" {
		t.Errorf("expected Pink, got %q", name)
	}

	if err := db.SetTheme(ctx, "Black"); err == nil {
		t.Error("expected error for unknown theme")
	}
}

func TestSettingMissing(t *testing.T) {
	db := openTestDB(t)
	_, ok, err := db.Setting(context.Background(), "missing")
	if err != nil {
		t.Fatalf("Setting: %v", err)
	}
	if ok {
		t.Error("expected missing setting")
	}
}
