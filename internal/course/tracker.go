package course

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Tracker applies user actions to courses held in a Store.
type Tracker struct {
	store  Store
	logger *zap.Logger
	newID  func() string
	now    func() time.Time
}

// NewTracker creates a tracker over the given store.
func NewTracker(store Store, logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{
		store:  store,
		logger: logger,
		newID:  func() string { return uuid.NewString() },
		now:    time.Now,
	}
}

// List returns every course, newest first.
func (t *Tracker) List(ctx context.Context) ([]Course, error) {
	return t.store.List(ctx)
}

// Get returns a single course.
func (t *Tracker) Get(ctx context.Context, id string) (Course, error) {
	return t.store.Get(ctx, id)
}

// Add creates an empty course.
func (t *Tracker) Add(ctx context.Context, name string) (Course, error) {
	c := New(t.newID(), name, t.now().UTC())
	if err := t.store.Save(ctx, c); err != nil {
		return Course{}, fmt.Errorf("saving course: %w", err)
	}
	t.logger.Info("course added", zap.String("course_id", c.ID), zap.String("name", c.Name))
	return c, nil
}

// Rename changes a course's display name.
func (t *Tracker) Rename(ctx context.Context, id, name string) (Course, error) {
	return t.update(ctx, id, func(c Course) (Course, error) {
		return c.WithName(name)
	})
}

// Reupload returns a course to the empty state so a new syllabus can be ingested.
func (t *Tracker) Reupload(ctx context.Context, id string) (Course, error) {
	return t.update(ctx, id, func(c Course) (Course, error) {
		return c.Reuploaded(), nil
	})
}

// SetCompletion records whether a deliverable is done.
func (t *Tracker) SetCompletion(ctx context.Context, id, deliverable string, done bool) (Course, error) {
	return t.update(ctx, id, func(c Course) (Course, error) {
		return c.WithCompletion(deliverable, done)
	})
}

// ApplyAnalysis stores a successful analysis. Only empty courses accept one.
func (t *Tracker) ApplyAnalysis(ctx context.Context, id string, a Analysis) (Course, error) {
	return t.update(ctx, id, func(c Course) (Course, error) {
		if c.Status() == StatusAnalyzed {
			return c, ErrAlreadyAnalyzed
		}
		return c.WithAnalysis(a), nil
	})
}

// Delete removes a course entirely.
func (t *Tracker) Delete(ctx context.Context, id string) error {
	if err := t.store.Delete(ctx, id); err != nil {
		return err
	}
	t.logger.Info("course deleted", zap.String("course_id", id))
	return nil
}

func (t *Tracker) update(ctx context.Context, id string, fn func(Course) (Course, error)) (Course, error) {
	c, err := t.store.Get(ctx, id)
	if err != nil {
		return Course{}, err
	}
	next, err := fn(c)
	if err != nil {
		return c, err
	}
	if err := t.store.Save(ctx, next); err != nil {
		return c, fmt.Errorf("saving course: %w", err)
	}
	return next, nil
}
