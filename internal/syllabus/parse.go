// Package syllabus extracts a course name, weekly schedule and deliverables
// from the markdown-like text returned by the summarization call.
//
// Parsing never fails: a section that cannot be found yields its default
// (DefaultName for the name, empty slices for the tables) so the caller can
// still keep a partial result.
package syllabus

import (
	"strings"

	"github.com/ye-allison/SyllaBud/internal/course"
)

const (
	courseInfoMarker  = "Course Information"
	courseLinePrefix  = "Course:"
	weeklyMarker      = "**Weekly Schedule**"
	weeklyMarkerPlain = "Weekly Schedule"
	todoMarker        = "**To-do List**"
	todoMarkerPlain   = "To-do List"
	notAvailable      = "N/A"
)

// evaluationKeywords mark rows from the evaluation table that leaked into
// the weekly section. Legitimate weekly rows mentioning them are dropped too.
var evaluationKeywords = []string{"exam", "assignment", "project"}

// Result is everything Parse found.
type Result struct {
	CourseName   string
	Weekly       []course.WeeklyEntry
	Deliverables []course.Deliverable
}

// Parse reads the three sections of an analysis.
func Parse(analysis string) Result {
	return Result{
		CourseName:   CourseName(analysis),
		Weekly:       WeeklySchedule(analysis),
		Deliverables: Deliverables(analysis),
	}
}

// CourseName returns the text after "Course:" inside the first
// "Course Information" section, or course.DefaultName.
func CourseName(analysis string) string {
	for _, section := range strings.Split(analysis, "#") {
		if !strings.Contains(section, courseInfoMarker) {
			continue
		}
		for _, line := range strings.Split(section, "\n") {
			line = strings.TrimSpace(line)
			if strings.HasPrefix(line, courseLinePrefix) {
				return strings.TrimSpace(strings.TrimPrefix(line, courseLinePrefix))
			}
		}
		break
	}
	return course.DefaultName
}

// WeeklySchedule returns the rows of the weekly table, in input order.
func WeeklySchedule(analysis string) []course.WeeklyEntry {
	section, ok := after(analysis, weeklyMarker, weeklyMarkerPlain)
	if !ok {
		return []course.WeeklyEntry{}
	}
	if i := strings.Index(section, todoMarker); i >= 0 {
		section = section[:i]
	}

	entries := []course.WeeklyEntry{}
	for _, row := range tableRows(section) {
		if hasPercent(row) || mentionsEvaluation(row) {
			continue
		}
		cells := splitCells(row)
		if len(cells) < 2 {
			continue
		}
		if isWeekHeader(cells[0]) {
			continue
		}
		entries = append(entries, course.WeeklyEntry{Week: cells[0], Content: cells[1]})
	}
	return entries
}

// Deliverables returns the rows of the to-do table, in input order.
func Deliverables(analysis string) []course.Deliverable {
	section, ok := after(analysis, todoMarker, todoMarkerPlain)
	if !ok {
		return []course.Deliverable{}
	}

	items := []course.Deliverable{}
	for _, row := range tableRows(section) {
		cells := splitCells(row)
		if len(cells) < 3 {
			continue
		}
		name := cells[0]
		if name == "" || isNameHeader(name) {
			continue
		}
		items = append(items, course.Deliverable{
			Name:    name,
			Weight:  cellOr(cells, 1, notAvailable),
			DueDate: cellOr(cells, 2, notAvailable),
		})
	}
	return items
}

// after returns the text following the first occurrence of marker, falling
// back to the first occurrence of fallback.
func after(text, marker, fallback string) (string, bool) {
	if i := strings.Index(text, marker); i >= 0 {
		return text[i+len(marker):], true
	}
	if i := strings.Index(text, fallback); i >= 0 {
		return text[i+len(fallback):], true
	}
	return "", false
}

// tableRows yields trimmed lines that look like table data rows.
func tableRows(section string) []string {
	var rows []string
	for _, line := range strings.Split(section, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || isHeaderSeparator(line) || isBoldHeaderRow(line) || !isTableRow(line) {
			continue
		}
		rows = append(rows, line)
	}
	return rows
}

func splitCells(row string) []string {
	var cells []string
	for _, cell := range strings.Split(row, "|") {
		if cell = strings.TrimSpace(cell); cell != "" {
			cells = append(cells, cell)
		}
	}
	return cells
}

func cellOr(cells []string, i int, fallback string) string {
	if i < len(cells) {
		return cells[i]
	}
	return fallback
}

func isHeaderSeparator(line string) bool { return strings.HasPrefix(line, "|-") }

func isBoldHeaderRow(line string) bool { return strings.HasPrefix(line, "| **") }

func isTableRow(line string) bool { return strings.Contains(line, "|") }

func hasPercent(line string) bool { return strings.Contains(line, "%") }

func mentionsEvaluation(line string) bool {
	lower := strings.ToLower(line)
	for _, kw := range evaluationKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func isWeekHeader(cell string) bool { return cell == "Week" || cell == "**Week**" }

func isNameHeader(cell string) bool { return cell == "Name" || cell == "**Name**" }
