package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ye-allison/SyllaBud/internal/course"
)

type courseRow struct {
	ID               string         `db:"id"`
	Name             string         `db:"name"`
	SyllabusText     sql.NullString `db:"syllabus_text"`
	Analysis         sql.NullString `db:"analysis"`
	FileUploaded     bool           `db:"file_uploaded"`
	AnalysisComplete bool           `db:"analysis_complete"`
	CreatedAt        string         `db:"created_at"`
}

type weeklyRow struct {
	CourseID string `db:"course_id"`
	Position int    `db:"position"`
	Week     string `db:"week"`
	Content  string `db:"content"`
}

type deliverableRow struct {
	CourseID string `db:"course_id"`
	Position int    `db:"position"`
	Name     string `db:"name"`
	Weight   string `db:"weight"`
	DueDate  string `db:"due_date"`
}

type completionRow struct {
	CourseID    string `db:"course_id"`
	Deliverable string `db:"deliverable"`
	Done        bool   `db:"done"`
}

const selectCourses = `SELECT id, name, syllabus_text, analysis, file_uploaded, analysis_complete, created_at FROM courses`

// List returns every course, newest first.
func (db *DB) List(ctx context.Context) ([]course.Course, error) {
	var rows []courseRow
	if err := db.conn.SelectContext(ctx, &rows, selectCourses+` ORDER BY rowid DESC`); err != nil {
		return nil, fmt.Errorf("listing courses: %w", err)
	}

	var weekly []weeklyRow
	if err := db.conn.SelectContext(ctx, &weekly,
		`SELECT course_id, position, week, content FROM weekly_entries ORDER BY course_id, position`); err != nil {
		return nil, fmt.Errorf("listing weekly entries: %w", err)
	}
	var items []deliverableRow
	if err := db.conn.SelectContext(ctx, &items,
		`SELECT course_id, position, name, weight, due_date FROM deliverables ORDER BY course_id, position`); err != nil {
		return nil, fmt.Errorf("listing deliverables: %w", err)
	}
	var done []completionRow
	if err := db.conn.SelectContext(ctx, &done,
		`SELECT course_id, deliverable, done FROM completion_states`); err != nil {
		return nil, fmt.Errorf("listing completion states: %w", err)
	}

	weeklyBy := make(map[string][]weeklyRow)
	for _, w := range weekly {
		weeklyBy[w.CourseID] = append(weeklyBy[w.CourseID], w)
	}
	itemsBy := make(map[string][]deliverableRow)
	for _, d := range items {
		itemsBy[d.CourseID] = append(itemsBy[d.CourseID], d)
	}
	doneBy := make(map[string][]completionRow)
	for _, c := range done {
		doneBy[c.CourseID] = append(doneBy[c.CourseID], c)
	}

	courses := make([]course.Course, 0, len(rows))
	for _, r := range rows {
		courses = append(courses, assemble(r, weeklyBy[r.ID], itemsBy[r.ID], doneBy[r.ID]))
	}
	return courses, nil
}

// Get returns one course.
func (db *DB) Get(ctx context.Context, id string) (course.Course, error) {
	var r courseRow
	err := db.conn.GetContext(ctx, &r, selectCourses+` WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return course.Course{}, course.ErrNotFound
	}
	if err != nil {
		return course.Course{}, fmt.Errorf("getting course: %w", err)
	}

	var weekly []weeklyRow
	if err := db.conn.SelectContext(ctx, &weekly,
		`SELECT course_id, position, week, content FROM weekly_entries WHERE course_id = ? ORDER BY position`, id); err != nil {
		return course.Course{}, fmt.Errorf("getting weekly entries: %w", err)
	}
	var items []deliverableRow
	if err := db.conn.SelectContext(ctx, &items,
		`SELECT course_id, position, name, weight, due_date FROM deliverables WHERE course_id = ? ORDER BY position`, id); err != nil {
		return course.Course{}, fmt.Errorf("getting deliverables: %w", err)
	}
	var done []completionRow
	if err := db.conn.SelectContext(ctx, &done,
		`SELECT course_id, deliverable, done FROM completion_states WHERE course_id = ?`, id); err != nil {
		return course.Course{}, fmt.Errorf("getting completion states: %w", err)
	}

	return assemble(r, weekly, items, done), nil
}

// Save inserts or replaces a course and all of its child rows.
func (db *DB) Save(ctx context.Context, c course.Course) error {
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	row := courseRow{
		ID:               c.ID,
		Name:             c.Name,
		SyllabusText:     nullString(c.SyllabusText),
		Analysis:         nullString(c.Analysis),
		FileUploaded:     c.FileUploaded,
		AnalysisComplete: c.AnalysisComplete,
		CreatedAt:        c.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if _, err := tx.NamedExecContext(ctx, `
INSERT INTO courses (id, name, syllabus_text, analysis, file_uploaded, analysis_complete, created_at)
VALUES (:id, :name, :syllabus_text, :analysis, :file_uploaded, :analysis_complete, :created_at)
ON CONFLICT(id) DO UPDATE SET
    name = excluded.name,
    syllabus_text = excluded.syllabus_text,
    analysis = excluded.analysis,
    file_uploaded = excluded.file_uploaded,
    analysis_complete = excluded.analysis_complete`, row); err != nil {
		return fmt.Errorf("saving course: %w", err)
	}

	if err := replaceChildren(ctx, tx, c); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

// Delete removes a course; child rows go with it.
func (db *DB) Delete(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM courses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting course: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting course: %w", err)
	}
	if n == 0 {
		return course.ErrNotFound
	}
	return nil
}

func replaceChildren(ctx context.Context, tx *sqlx.Tx, c course.Course) error {
	for _, table := range []string{"weekly_entries", "deliverables", "completion_states"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE course_id = ?`, c.ID); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	for i, w := range c.Weekly {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO weekly_entries (course_id, position, week, content) VALUES (?, ?, ?, ?)`,
			c.ID, i, w.Week, w.Content); err != nil {
			return fmt.Errorf("saving weekly entry: %w", err)
		}
	}
	for i, d := range c.Deliverables {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO deliverables (course_id, position, name, weight, due_date) VALUES (?, ?, ?, ?, ?)`,
			c.ID, i, d.Name, d.Weight, d.DueDate); err != nil {
			return fmt.Errorf("saving deliverable: %w", err)
		}
	}
	for name, done := range c.Completed {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO completion_states (course_id, deliverable, done) VALUES (?, ?, ?)`,
			c.ID, name, done); err != nil {
			return fmt.Errorf("saving completion state: %w", err)
		}
	}
	return nil
}

func assemble(r courseRow, weekly []weeklyRow, items []deliverableRow, done []completionRow) course.Course {
	created, _ := time.Parse(time.RFC3339Nano, r.CreatedAt)
	c := course.Course{
		ID:               r.ID,
		Name:             r.Name,
		SyllabusText:     stringPtr(r.SyllabusText),
		Analysis:         stringPtr(r.Analysis),
		FileUploaded:     r.FileUploaded,
		AnalysisComplete: r.AnalysisComplete,
		Completed:        make(map[string]bool, len(done)),
		CreatedAt:        created,
	}
	if len(weekly) > 0 {
		c.Weekly = make([]course.WeeklyEntry, 0, len(weekly))
		for _, w := range weekly {
			c.Weekly = append(c.Weekly, course.WeeklyEntry{Week: w.Week, Content: w.Content})
		}
	}
	if len(items) > 0 {
		c.Deliverables = make([]course.Deliverable, 0, len(items))
		for _, d := range items {
			c.Deliverables = append(c.Deliverables, course.Deliverable{Name: d.Name, Weight: d.Weight, DueDate: d.DueDate})
		}
	}
	for _, s := range done {
		c.Completed[s.Deliverable] = s.Done
	}
	return c
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

var _ course.Store = (*DB)(nil)
