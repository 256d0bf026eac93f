package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"

	"github.com/ye-allison/SyllaBud/internal/course"
	"github.com/ye-allison/SyllaBud/internal/export"
	"github.com/ye-allison/SyllaBud/internal/ingest"
	"github.com/ye-allison/SyllaBud/internal/logger"
	"github.com/ye-allison/SyllaBud/internal/metrics"
	"github.com/ye-allison/SyllaBud/internal/render"
	"github.com/ye-allison/SyllaBud/internal/theme"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// uploadOverhead covers multipart framing on top of the file itself.
const uploadOverhead = 1 << 20

// Deps are the collaborators the dashboard needs.
type Deps struct {
	Tracker    *course.Tracker
	Ingestor   *ingest.Ingestor
	Themes     theme.Store
	Exporter   *export.Exporter
	Metrics    *metrics.Metrics
	Logger     *zap.Logger
	SessionKey string
	MaxUpload  int64
}

// Server is the HTTP dashboard.
type Server struct {
	tracker   *course.Tracker
	ingestor  *ingest.Ingestor
	themes    theme.Store
	exporter  *export.Exporter
	metrics   *metrics.Metrics
	logger    *zap.Logger
	sessions  *sessions.CookieStore
	maxUpload int64
	pages     map[string]*template.Template
	router    chi.Router
}

// New creates a new Server.
func New(d Deps) (*Server, error) {
	if d.Tracker == nil || d.Ingestor == nil || d.Themes == nil {
		return nil, errors.New("server: tracker, ingestor and theme store are required")
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Exporter == nil {
		d.Exporter = export.New()
	}
	if d.MaxUpload <= 0 {
		d.MaxUpload = 20 << 20
	}

	key := []byte(d.SessionKey)
	if len(key) == 0 {
		key = securecookie.GenerateRandomKey(32)
		d.Logger.Debug("generated per-process session key")
	} else if len(key) < 32 {
		d.Logger.Warn("session key is short; 32+ chars recommended", zap.Int("length", len(key)))
	}
	store := sessions.NewCookieStore(key)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	pages, err := parsePages()
	if err != nil {
		return nil, err
	}

	s := &Server{
		tracker:   d.Tracker,
		ingestor:  d.Ingestor,
		themes:    d.Themes,
		exporter:  d.Exporter,
		metrics:   d.Metrics,
		logger:    d.Logger,
		sessions:  store,
		maxUpload: d.MaxUpload,
		pages:     pages,
		router:    chi.NewRouter(),
	}
	s.routes()
	return s, nil
}

func parsePages() (map[string]*template.Template, error) {
	funcMap := template.FuncMap{
		"markdown": render.Markdown,
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
	}

	// Parse base template first
	base, err := template.New("base.html").Funcs(funcMap).ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("parsing base template: %w", err)
	}

	// For each page template, clone the base and parse the page into the clone.
	// This gives each page its own {{define "content"}} and {{define "title"}}.
	pageNames := []string{"home.html", "courses.html", "course.html"}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning base for %s: %w", name, err)
		}
		_, err = clone.ParseFS(templateFS, "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		pages[name] = clone
	}
	return pages, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(logger.Middleware(s.logger))
	r.Use(s.metrics.Middleware)

	// Static files
	staticSub, _ := fs.Sub(staticFS, "static")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", s.metrics.Handler())

	r.Get("/", s.handleHome)
	r.Post("/theme", s.handleTheme)
	r.Get("/export/{format}", s.handleExport)

	r.Route("/courses", func(r chi.Router) {
		r.Get("/", s.handleCourses)
		r.Post("/", s.handleAddCourse)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleCourse)
			r.Post("/rename", s.handleRename)
			r.Post("/reupload", s.handleReupload)
			r.Post("/delete", s.handleDelete)
			r.Post("/upload", s.handleUpload)
			r.Post("/toggle", s.handleToggle)
		})
	})
}

// Serve listens on 127.0.0.1:port until ctx is cancelled.
func Serve(ctx context.Context, srv *Server, port int) error {
	addr := fmt.Sprintf("127.0.0.1:%d", port)
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		srv.logger.Info("server listening", zap.String("url", "http://"+addr))
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		srv.logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	}
}
