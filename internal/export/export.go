// Package export renders the pending-deadline list as a download.
package export

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ye-allison/SyllaBud/internal/dashboard"
)

// Format is a supported download format.
type Format string

const (
	FormatICS  Format = "ics"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

// ErrUnknownFormat is returned for formats outside the supported set.
var ErrUnknownFormat = errors.New("unknown export format")

const title = "Upcoming Deadlines"

var headers = []string{"Course", "Task", "Weight", "Due Date"}

// Formats lists the supported formats in menu order.
func Formats() []Format {
	return []Format{FormatICS, FormatCSV, FormatXLSX, FormatPDF}
}

// ParseFormat accepts a format name case-insensitively.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats() {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// ContentType is the MIME type served with the download.
func (f Format) ContentType() string {
	switch f {
	case FormatICS:
		return "text/calendar; charset=utf-8"
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	}
	return "application/octet-stream"
}

// Filename is the suggested download name.
func (f Format) Filename() string {
	return "deadlines." + string(f)
}

// Dataset defines tabular export content.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
}

// Exporter renders deadlines in any supported format.
type Exporter struct {
	now func() time.Time
}

// New creates an Exporter.
func New() *Exporter {
	return &Exporter{now: time.Now}
}

// Render dispatches on format.
func (e *Exporter) Render(format Format, items []dashboard.Deadline) ([]byte, error) {
	switch format {
	case FormatICS:
		return e.renderICS(items)
	case FormatCSV:
		return renderCSV(toDataset(items))
	case FormatXLSX:
		return renderXLSX(toDataset(items))
	case FormatPDF:
		return renderPDF(toDataset(items), title)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

func toDataset(items []dashboard.Deadline) Dataset {
	data := Dataset{Headers: headers, Rows: make([]map[string]string, 0, len(items))}
	for _, d := range items {
		data.Rows = append(data.Rows, map[string]string{
			"Course":   d.CourseName,
			"Task":     d.TaskName,
			"Weight":   d.Weight,
			"Due Date": d.DueDate,
		})
	}
	return data
}
