// Package summarize turns extracted syllabus text into the structured
// markdown summary the parser understands.
package summarize

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ye-allison/SyllaBud/internal/llm"
	"github.com/ye-allison/SyllaBud/internal/metrics"
)

// DefaultMaxTokens bounds the summary length.
const DefaultMaxTokens = 1000

var (
	errNoProvider    = errors.New("no LLM provider available")
	errEmptyResponse = errors.New("empty response")
)

// SummarizationError reports a failed summary. The course it was meant for
// is left untouched.
type SummarizationError struct {
	Provider string
	Err      error
}

func (e *SummarizationError) Error() string {
	if e.Provider == "" {
		return fmt.Sprintf("summarizing syllabus: %v", e.Err)
	}
	return fmt.Sprintf("summarizing syllabus with %s: %v", e.Provider, e.Err)
}

func (e *SummarizationError) Unwrap() error { return e.Err }

// Summarizer calls an LLM provider with the syllabus prompt.
type Summarizer struct {
	provider  llm.Provider
	maxTokens int
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// New creates a Summarizer. A nil provider makes every call fail with a
// SummarizationError.
func New(provider llm.Provider, maxTokens int, m *metrics.Metrics, logger *zap.Logger) *Summarizer {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Summarizer{provider: provider, maxTokens: maxTokens, metrics: m, logger: logger}
}

// Available reports whether a configured provider is attached.
func (s *Summarizer) Available() bool {
	return s.provider != nil && s.provider.IsConfigured()
}

// Summarize returns the trimmed markdown summary of text.
func (s *Summarizer) Summarize(ctx context.Context, text string) (string, error) {
	if s.provider == nil {
		s.metrics.ObserveSummarize(metrics.OutcomeSummarizeError, 0)
		return "", &SummarizationError{Err: errNoProvider}
	}

	name := s.provider.Name()
	start := time.Now()
	out, err := s.provider.Generate(ctx, BuildPrompt(text), s.maxTokens)
	elapsed := time.Since(start)
	if err != nil {
		s.metrics.ObserveSummarize(metrics.OutcomeSummarizeError, elapsed)
		s.logger.Warn("summarization failed", zap.String("provider", name), zap.Error(err))
		return "", &SummarizationError{Provider: name, Err: err}
	}

	out = strings.TrimSpace(llm.StripCodeFence(out))
	if out == "" {
		s.metrics.ObserveSummarize(metrics.OutcomeSummarizeError, elapsed)
		return "", &SummarizationError{Provider: name, Err: errEmptyResponse}
	}

	s.metrics.ObserveSummarize(metrics.OutcomeSuccess, elapsed)
	s.logger.Debug("summarized syllabus",
		zap.String("provider", name),
		zap.Int("input_chars", len(text)),
		zap.Int("output_chars", len(out)),
		zap.Duration("elapsed", elapsed))
	return out, nil
}
