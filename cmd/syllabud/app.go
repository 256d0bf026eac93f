package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ye-allison/SyllaBud/internal/config"
	"github.com/ye-allison/SyllaBud/internal/course"
	"github.com/ye-allison/SyllaBud/internal/database"
	"github.com/ye-allison/SyllaBud/internal/export"
	"github.com/ye-allison/SyllaBud/internal/extract"
	"github.com/ye-allison/SyllaBud/internal/ingest"
	"github.com/ye-allison/SyllaBud/internal/llm"
	"github.com/ye-allison/SyllaBud/internal/metrics"
	"github.com/ye-allison/SyllaBud/internal/summarize"
	"github.com/ye-allison/SyllaBud/internal/theme"
)

// app holds the wired collaborators for one command run.
type app struct {
	db       *database.DB
	tracker  *course.Tracker
	themes   theme.Store
	provider llm.Provider
	ingestor *ingest.Ingestor
	exporter *export.Exporter
	metrics  *metrics.Metrics
}

func openApp() (*app, error) {
	a := &app{metrics: metrics.New(), exporter: export.New()}

	var store course.Store
	switch cfg.Storage.Driver {
	case config.DriverSQLite:
		db, err := database.Open(cfg.DatabasePath(), log)
		if err != nil {
			return nil, err
		}
		if err := db.SeedTheme(context.Background(), cfg.Theme.Default); err != nil {
			log.Warn("ignoring configured default theme", zap.Error(err))
		}
		a.db = db
		store = db
		a.themes = db
	default:
		log.Debug("using in-memory course store; courses are lost on exit")
		store = course.NewMemoryStore()
		a.themes = theme.NewMemoryStore(cfg.Theme.Default)
	}

	a.tracker = course.NewTracker(store, log)
	a.provider = llm.CreateProvider(llm.Options{
		Provider:    cfg.LLM.Provider,
		Model:       cfg.LLM.Model,
		OllamaURL:   cfg.LLM.OllamaURL,
		OpenAIModel: cfg.LLM.OpenAIModel,
		OpenAIURL:   cfg.LLM.OpenAIURL,
		APIKeyEnv:   cfg.LLM.APIKeyEnv,
		Timeout:     cfg.LLM.Timeout,
	}, log)

	summarizer := summarize.New(a.provider, cfg.LLM.MaxTokens, a.metrics, log)
	if !summarizer.Available() {
		log.Warn(fmt.Sprintf("uploads will fail until %s is set or Ollama is running", cfg.LLM.APIKeyEnv))
	}
	a.ingestor = ingest.New(a.tracker, extract.New(cfg.Uploads.MaxBytes), summarizer, a.metrics, log)
	return a, nil
}

func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
}

// requirePersistent rejects commands whose changes would vanish with the
// in-memory store.
func requirePersistent() error {
	if cfg.Storage.Driver != config.DriverSQLite {
		return fmt.Errorf("storage driver %q does not persist between commands; set storage.driver: sqlite", cfg.Storage.Driver)
	}
	return nil
}
