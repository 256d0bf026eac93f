package course

import (
	"errors"
	"strings"
	"time"
)

// DefaultName is given to new courses and to analyses without a course line.
const DefaultName = "New Course"

var (
	ErrNotFound           = errors.New("course not found")
	ErrInvalidName        = errors.New("course name must not be empty")
	ErrUnknownDeliverable = errors.New("deliverable not found in course")
	ErrAlreadyAnalyzed    = errors.New("course already has an analyzed syllabus; reupload first")
)

// Status is the lifecycle state of a course.
type Status string

const (
	StatusEmpty     Status = "empty"
	StatusUploading Status = "uploading"
	StatusAnalyzed  Status = "analyzed"
)

// WeeklyEntry is one row of the week-by-week content outline.
type WeeklyEntry struct {
	Week    string `json:"week"`
	Content string `json:"content"`
}

// Deliverable is a graded course item.
type Deliverable struct {
	Name    string `json:"name"`
	Weight  string `json:"weight"`
	DueDate string `json:"due_date"`
}

// Course is everything tracked for one course.
type Course struct {
	ID               string
	Name             string
	SyllabusText     *string
	Analysis         *string
	FileUploaded     bool
	AnalysisComplete bool
	Weekly           []WeeklyEntry
	Deliverables     []Deliverable
	Completed        map[string]bool
	CreatedAt        time.Time
}

// Analysis is the outcome of a successful summarization, ready to apply.
type Analysis struct {
	CourseName   string
	SourceText   string
	AnalysisText string
	Weekly       []WeeklyEntry
	Deliverables []Deliverable
}

// New returns an empty course.
func New(id, name string, now time.Time) Course {
	if strings.TrimSpace(name) == "" {
		name = DefaultName
	}
	return Course{
		ID:        id,
		Name:      name,
		Completed: map[string]bool{},
		CreatedAt: now,
	}
}

// Status reports where the course is in its lifecycle.
func (c Course) Status() Status {
	if c.FileUploaded && c.AnalysisComplete {
		return StatusAnalyzed
	}
	return StatusEmpty
}

// Clone returns a deep copy.
func (c Course) Clone() Course {
	out := c
	if c.SyllabusText != nil {
		s := *c.SyllabusText
		out.SyllabusText = &s
	}
	if c.Analysis != nil {
		s := *c.Analysis
		out.Analysis = &s
	}
	if c.Weekly != nil {
		out.Weekly = append([]WeeklyEntry(nil), c.Weekly...)
	}
	if c.Deliverables != nil {
		out.Deliverables = append([]Deliverable(nil), c.Deliverables...)
	}
	out.Completed = make(map[string]bool, len(c.Completed))
	for k, v := range c.Completed {
		out.Completed[k] = v
	}
	return out
}

// WithAnalysis populates the course from an analysis in one step. Both
// flags are set together. Existing completion entries are kept; new
// deliverables start incomplete.
func (c Course) WithAnalysis(a Analysis) Course {
	out := c.Clone()
	out.Name = a.CourseName
	if strings.TrimSpace(out.Name) == "" {
		out.Name = DefaultName
	}
	src, analysis := a.SourceText, a.AnalysisText
	out.SyllabusText = &src
	out.Analysis = &analysis
	out.Weekly = append([]WeeklyEntry(nil), a.Weekly...)
	out.Deliverables = append([]Deliverable(nil), a.Deliverables...)
	for _, d := range out.Deliverables {
		if _, ok := out.Completed[d.Name]; !ok {
			out.Completed[d.Name] = false
		}
	}
	out.FileUploaded = true
	out.AnalysisComplete = true
	return out
}

// Reuploaded clears the ingested document and parsed tables. The name and
// completion map are user customization and survive.
func (c Course) Reuploaded() Course {
	out := c.Clone()
	out.SyllabusText = nil
	out.Analysis = nil
	out.Weekly = nil
	out.Deliverables = nil
	out.FileUploaded = false
	out.AnalysisComplete = false
	return out
}

// WithName renames the course.
func (c Course) WithName(name string) (Course, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return c, ErrInvalidName
	}
	out := c.Clone()
	out.Name = name
	return out, nil
}

// WithCompletion sets the completion flag of the named deliverable.
func (c Course) WithCompletion(name string, done bool) (Course, error) {
	if !c.HasDeliverable(name) {
		return c, ErrUnknownDeliverable
	}
	out := c.Clone()
	out.Completed[name] = done
	return out, nil
}

// HasDeliverable reports whether a deliverable with this name exists.
func (c Course) HasDeliverable(name string) bool {
	for _, d := range c.Deliverables {
		if d.Name == name {
			return true
		}
	}
	return false
}

// IsDone reports the completion flag for a deliverable; absent means false.
func (c Course) IsDone(name string) bool {
	return c.Completed[name]
}

// CompletedCount counts true completion flags.
func (c Course) CompletedCount() int {
	n := 0
	for _, done := range c.Completed {
		if done {
			n++
		}
	}
	return n
}
