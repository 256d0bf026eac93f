package export

import (
	"crypto/sha1"
	"encoding/hex"

	ics "github.com/arran4/golang-ical"

	"github.com/ye-allison/SyllaBud/internal/dashboard"
)

// renderICS emits one all-day event per deadline with a parseable date.
func (e *Exporter) renderICS(items []dashboard.Deadline) ([]byte, error) {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//SyllaBud//Deadlines//EN")

	stamp := e.now().UTC()
	for _, d := range items {
		due := d.Due
		if due.IsZero() {
			t, err := dashboard.ParseDueDate(d.DueDate)
			if err != nil {
				continue
			}
			due = t
		}

		event := cal.AddEvent(eventUID(d))
		event.SetDtStampTime(stamp)
		event.SetAllDayStartAt(due)
		event.SetAllDayEndAt(due.AddDate(0, 0, 1))
		event.SetSummary(d.CourseName + ": " + d.TaskName)
		event.SetDescription("Weight: " + d.Weight)
	}

	return []byte(cal.Serialize()), nil
}

// eventUID is stable across exports so calendar apps update rather than
// duplicate.
func eventUID(d dashboard.Deadline) string {
	sum := sha1.Sum([]byte(d.CourseID + "\x00" + d.TaskName))
	return hex.EncodeToString(sum[:]) + "@syllabud"
}
