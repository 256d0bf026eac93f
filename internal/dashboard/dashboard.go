// Package dashboard derives the home page summaries from a snapshot of
// courses: overall counts, pending deadlines and per-course progress.
package dashboard

import (
	"sort"
	"time"

	"github.com/ye-allison/SyllaBud/internal/course"
)

// DueDateLayout is the only due-date format that deadlines are sorted by,
// e.g. "January 15, 2025".
const DueDateLayout = "January 2, 2006"

// displayLayout re-renders sorted dates with a zero-padded day.
const displayLayout = "January 02, 2006"

// Overview holds the cross-course metrics.
type Overview struct {
	CourseCount           int
	TotalDeliverables     int
	CompletedDeliverables int
}

// Deadline is one pending deliverable.
type Deadline struct {
	CourseID   string
	CourseName string
	TaskName   string
	Weight     string
	DueDate    string
	// Due is the parsed date; zero unless every deadline parsed.
	Due        time.Time
}

// Deadlines is the upcoming-deadline list. Sorted is false when at least
// one due date could not be parsed and the list kept insertion order.
type Deadlines struct {
	Items  []Deadline
	Sorted bool
}

// Progress is the completion state of one course.
type Progress struct {
	CourseID   string
	CourseName string
	Completed  int
	Total      int
	Ratio      float64
	Percent    int
	HasTasks   bool
}

// ComputeOverview counts courses, deliverables and completed deliverables.
func ComputeOverview(courses []course.Course) Overview {
	o := Overview{CourseCount: len(courses)}
	for _, c := range courses {
		o.TotalDeliverables += len(c.Deliverables)
		o.CompletedDeliverables += c.CompletedCount()
	}
	return o
}

// UpcomingDeadlines lists every deliverable not marked done, course by
// course. The list is sorted by due date only if every due date parses with
// DueDateLayout; otherwise it is returned in its original order.
func UpcomingDeadlines(courses []course.Course) Deadlines {
	var items []Deadline
	for _, c := range courses {
		for _, d := range c.Deliverables {
			if c.IsDone(d.Name) {
				continue
			}
			items = append(items, Deadline{
				CourseID:   c.ID,
				CourseName: c.Name,
				TaskName:   d.Name,
				Weight:     d.Weight,
				DueDate:    d.DueDate,
			})
		}
	}
	if len(items) == 0 {
		return Deadlines{Items: []Deadline{}}
	}

	parsed := make([]time.Time, len(items))
	for i, item := range items {
		t, err := ParseDueDate(item.DueDate)
		if err != nil {
			return Deadlines{Items: items}
		}
		parsed[i] = t
	}

	for i := range items {
		items[i].Due = parsed[i]
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Due.Before(items[j].Due) })
	for i := range items {
		items[i].DueDate = items[i].Due.Format(displayLayout)
	}
	return Deadlines{Items: items, Sorted: true}
}

// ParseDueDate parses a due date written like "January 15, 2025".
func ParseDueDate(s string) (time.Time, error) {
	return time.Parse(DueDateLayout, s)
}

// CourseProgress reports completed over total deliverables. A course with
// no deliverables has HasTasks false and zero progress.
func CourseProgress(c course.Course) Progress {
	p := Progress{
		CourseID:   c.ID,
		CourseName: c.Name,
		Completed:  c.CompletedCount(),
		Total:      len(c.Deliverables),
	}
	if p.Total == 0 {
		return p
	}
	p.HasTasks = true
	p.Ratio = float64(p.Completed) / float64(p.Total)
	p.Percent = int(p.Ratio * 100)
	return p
}

// ProgressCards returns progress for every analyzed course, in store order.
func ProgressCards(courses []course.Course) []Progress {
	var cards []Progress
	for _, c := range courses {
		if c.Status() != course.StatusAnalyzed {
			continue
		}
		cards = append(cards, CourseProgress(c))
	}
	return cards
}
