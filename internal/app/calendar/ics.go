// Package calendar renders schedules as iCalendar documents for calendar clients.
package calendar

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/tutorhub/backoffice/internal/app/models"
	"github.com/tutorhub/backoffice/internal/pkg/kst"
)

const productID = "-//tutorhub//backoffice//EN"

// UID returns the stable iCalendar UID of a schedule.
func UID(s *models.Schedule) string {
	return fmt.Sprintf("schedule-%d@tutorhub", s.ID)
}

// Export writes one VEVENT per schedule. Series are exported as their stored occurrences,
// not as RRULEs, so exceptions and partial deletes show up as they are.
func Export(schedules []*models.Schedule, stamp time.Time) []byte {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	cal.SetXWRTimezone("Asia/Seoul")

	for _, s := range schedules {
		event := cal.AddEvent(UID(s))
		event.SetDtStampTime(stamp)
		event.SetCreatedTime(s.CreatedAt)
		event.SetModifiedAt(s.UpdatedAt)
		event.SetStartAt(s.StartTime)
		event.SetEndAt(s.EndTime)
		event.SetStatus(ical.ObjectStatusConfirmed)
		event.SetSummary(summary(s))
		event.SetDescription(fmt.Sprintf("%s %s-%s KST", kst.DateKey(s.StartTime),
			kst.TimeOfDayOf(s.StartTime), kst.TimeOfDayOf(s.EndTime)))
		event.AddCategory(string(s.Kind))
	}
	return []byte(cal.Serialize())
}

func summary(s *models.Schedule) string {
	if s.ProgramID != nil {
		return fmt.Sprintf("Class for student %d (program %d)", s.StudentID, *s.ProgramID)
	}
	return fmt.Sprintf("Class for student %d", s.StudentID)
}
