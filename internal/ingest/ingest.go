// Package ingest runs an uploaded syllabus through extraction,
// summarization and parsing, and applies the result to its course.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ye-allison/SyllaBud/internal/course"
	"github.com/ye-allison/SyllaBud/internal/extract"
	"github.com/ye-allison/SyllaBud/internal/metrics"
	"github.com/ye-allison/SyllaBud/internal/summarize"
	"github.com/ye-allison/SyllaBud/internal/syllabus"
)

// TextExtractor reads text out of an uploaded document.
type TextExtractor interface {
	Extract(ctx context.Context, doc extract.Document) (string, error)
}

// Summarizer condenses syllabus text into the parser's markdown format.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// StepResult holds the result of a single ingestion step.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}

// Result holds the outcome of one upload.
type Result struct {
	Course course.Course
	Steps  []StepResult
}

// Ingestor wires the ingestion steps together.
type Ingestor struct {
	tracker    *course.Tracker
	extractor  TextExtractor
	summarizer Summarizer
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

// New creates an Ingestor.
func New(tracker *course.Tracker, x TextExtractor, s Summarizer, m *metrics.Metrics, logger *zap.Logger) *Ingestor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ingestor{tracker: tracker, extractor: x, summarizer: s, metrics: m, logger: logger}
}

// Ingest processes doc for the course. Any failure leaves the course as it
// was; the returned Result still lists the steps that ran.
func (i *Ingestor) Ingest(ctx context.Context, courseID string, doc extract.Document) (*Result, error) {
	r := &Result{}
	log := i.logger.With(zap.String("course_id", courseID), zap.String("file", doc.Filename))

	c, err := i.tracker.Get(ctx, courseID)
	if err != nil {
		return r, err
	}
	r.Course = c
	if c.Status() == course.StatusAnalyzed {
		i.metrics.RecordIngestion(metrics.OutcomeAlreadyAnalyzed)
		return r, course.ErrAlreadyAnalyzed
	}

	// Step 1: Extract
	start := time.Now()
	text, err := i.extractor.Extract(ctx, doc)
	step := StepResult{Name: "Extract", Err: err}
	if err != nil {
		step.Summary = "could not read document"
		r.Steps = append(r.Steps, step)
		i.metrics.RecordIngestion(metrics.OutcomeExtractionError)
		log.Warn("extraction failed", zap.Error(err))
		return r, err
	}
	step.Summary = fmt.Sprintf("%d characters in %s", len(text), time.Since(start).Round(time.Millisecond))
	r.Steps = append(r.Steps, step)

	// Step 2: Summarize
	start = time.Now()
	analysis, err := i.summarizer.Summarize(ctx, text)
	step = StepResult{Name: "Summarize", Err: err}
	if err != nil {
		step.Summary = "summarization failed"
		r.Steps = append(r.Steps, step)
		i.metrics.RecordIngestion(metrics.OutcomeSummarizeError)
		return r, err
	}
	step.Summary = fmt.Sprintf("%d characters in %s", len(analysis), time.Since(start).Round(time.Millisecond))
	r.Steps = append(r.Steps, step)

	// Step 3: Parse
	parsed := syllabus.Parse(analysis)
	r.Steps = append(r.Steps, StepResult{
		Name: "Parse",
		Summary: fmt.Sprintf("%q: %d weeks, %d deliverables",
			parsed.CourseName, len(parsed.Weekly), len(parsed.Deliverables)),
	})
	if parsed.CourseName == course.DefaultName {
		log.Debug("no course line in analysis")
	}
	if len(parsed.Weekly) == 0 {
		log.Debug("no weekly schedule rows in analysis")
	}
	if len(parsed.Deliverables) == 0 {
		log.Debug("no deliverables in analysis")
	}

	// Step 4: Apply
	updated, err := i.tracker.ApplyAnalysis(ctx, courseID, course.Analysis{
		CourseName:   parsed.CourseName,
		SourceText:   text,
		AnalysisText: analysis,
		Weekly:       parsed.Weekly,
		Deliverables: parsed.Deliverables,
	})
	if err != nil {
		r.Steps = append(r.Steps, StepResult{Name: "Apply", Summary: "could not save course", Err: err})
		outcome := metrics.OutcomeStoreError
		if errors.Is(err, course.ErrAlreadyAnalyzed) {
			outcome = metrics.OutcomeAlreadyAnalyzed
		}
		i.metrics.RecordIngestion(outcome)
		return r, err
	}
	r.Course = updated
	r.Steps = append(r.Steps, StepResult{Name: "Apply", Summary: "course updated"})
	i.metrics.RecordIngestion(metrics.OutcomeSuccess)
	log.Info("syllabus ingested",
		zap.String("course", updated.Name),
		zap.Int("deliverables", len(updated.Deliverables)))
	return r, nil
}

// IsUserError reports whether err is a per-upload failure to show the user
// rather than an internal fault.
func IsUserError(err error) bool {
	var (
		xerr *extract.ExtractionError
		serr *summarize.SummarizationError
	)
	return errors.As(err, &xerr) || errors.As(err, &serr) || errors.Is(err, course.ErrAlreadyAnalyzed)
}
