package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ye-allison/SyllaBud/internal/course"
	"github.com/ye-allison/SyllaBud/internal/dashboard"
	"github.com/ye-allison/SyllaBud/internal/export"
	"github.com/ye-allison/SyllaBud/internal/extract"
	"github.com/ye-allison/SyllaBud/internal/ingest"
	"github.com/ye-allison/SyllaBud/internal/theme"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	courses, ok := s.listCourses(w, r)
	if !ok {
		return
	}

	s.render(w, r, "home.html", map[string]any{
		"Nav":       "home",
		"Courses":   courses,
		"Overview":  dashboard.ComputeOverview(courses),
		"Deadlines": dashboard.UpcomingDeadlines(courses),
		"Progress":  dashboard.ProgressCards(courses),
		"Formats":   export.Formats(),
	})
}

func (s *Server) handleCourses(w http.ResponseWriter, r *http.Request) {
	courses, ok := s.listCourses(w, r)
	if !ok {
		return
	}
	s.render(w, r, "courses.html", map[string]any{
		"Nav":     "courses",
		"Courses": courses,
	})
}

func (s *Server) handleAddCourse(w http.ResponseWriter, r *http.Request) {
	c, err := s.tracker.Add(r.Context(), course.DefaultName)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	http.Redirect(w, r, coursePath(c.ID), http.StatusFound)
}

func (s *Server) handleCourse(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	c, err := s.tracker.Get(r.Context(), id)
	if err != nil {
		s.courseError(w, r, err)
		return
	}
	courses, ok := s.listCourses(w, r)
	if !ok {
		return
	}

	s.render(w, r, "course.html", map[string]any{
		"Nav":      "courses",
		"Courses":  courses,
		"Course":   c,
		"Analyzed": c.Status() == course.StatusAnalyzed,
		"Progress": dashboard.CourseProgress(c),
	})
}

func (s *Server) handleRename(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	_, err := s.tracker.Rename(r.Context(), id, r.FormValue("name"))
	if errors.Is(err, course.ErrInvalidName) {
		s.addFlash(w, r, flashError, "Course name cannot be empty.")
		http.Redirect(w, r, coursePath(id), http.StatusFound)
		return
	}
	if err != nil {
		s.courseError(w, r, err)
		return
	}
	http.Redirect(w, r, coursePath(id), http.StatusFound)
}

func (s *Server) handleReupload(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.tracker.Reupload(r.Context(), id); err != nil {
		s.courseError(w, r, err)
		return
	}
	http.Redirect(w, r, coursePath(id), http.StatusFound)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.tracker.Delete(r.Context(), id); err != nil {
		s.courseError(w, r, err)
		return
	}
	http.Redirect(w, r, "/courses", http.StatusFound)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	back := coursePath(id)

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload+uploadOverhead)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		s.addFlash(w, r, flashError, "Error processing document: upload too large or malformed.")
		http.Redirect(w, r, back, http.StatusFound)
		return
	}
	file, header, err := r.FormFile("syllabus")
	if err != nil {
		s.addFlash(w, r, flashError, "Choose a syllabus file to upload.")
		http.Redirect(w, r, back, http.StatusFound)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	doc := extract.Document{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}
	_, err = s.ingestor.Ingest(r.Context(), id, doc)
	switch {
	case err == nil:
		s.addFlash(w, r, flashSuccess, "Syllabus processed successfully!")
	case errors.Is(err, course.ErrNotFound):
		http.NotFound(w, r)
		return
	case ingest.IsUserError(err):
		s.addFlash(w, r, flashError, "Error processing document: "+err.Error())
	default:
		s.serverError(w, r, err)
		return
	}
	http.Redirect(w, r, back, http.StatusFound)
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	name := r.FormValue("deliverable")
	done := r.FormValue("done") == "true"

	_, err := s.tracker.SetCompletion(r.Context(), id, name, done)
	if errors.Is(err, course.ErrUnknownDeliverable) {
		http.Error(w, "Unknown deliverable", http.StatusBadRequest)
		return
	}
	if err != nil {
		s.courseError(w, r, err)
		return
	}
	http.Redirect(w, r, returnPath(r, coursePath(id)), http.StatusFound)
}

func (s *Server) handleTheme(w http.ResponseWriter, r *http.Request) {
	name := r.FormValue("theme")
	if err := s.themes.SetTheme(r.Context(), name); err != nil {
		http.Error(w, "Unknown theme", http.StatusBadRequest)
		return
	}
	http.Redirect(w, r, returnPath(r, "/"), http.StatusFound)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	courses, ok := s.listCourses(w, r)
	if !ok {
		return
	}

	body, err := s.exporter.Render(format, dashboard.UpcomingDeadlines(courses).Items)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", format.Filename()))
	_, _ = w.Write(body)
}

func (s *Server) listCourses(w http.ResponseWriter, r *http.Request) ([]course.Course, bool) {
	courses, err := s.tracker.List(r.Context())
	if err != nil {
		s.serverError(w, r, err)
		return nil, false
	}
	s.metrics.SetCourses(len(courses))
	return courses, true
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data map[string]any) {
	tmpl, ok := s.pages[name]
	if !ok {
		s.logger.Error("template not found", zap.String("template", name))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	data["Theme"] = theme.Current(r.Context(), s.themes)
	data["Themes"] = theme.All()
	data["Path"] = r.URL.Path
	data["Flashes"] = s.popFlashes(w, r)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "base.html", data); err != nil {
		s.logger.Error("rendering template", zap.String("template", name), zap.Error(err))
	}
}

func (s *Server) courseError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, course.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	s.serverError(w, r, err)
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

func coursePath(id string) string {
	return "/courses/" + id
}

// returnPath reads a same-site path from the "return" form field.
func returnPath(r *http.Request, fallback string) string {
	p := r.FormValue("return")
	if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.Contains(p, "\\") {
		return fallback
	}
	return p
}
