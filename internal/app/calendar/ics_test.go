package calendar

import (
	"bytes"
	"testing"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutorhub/backoffice/internal/app/models"
	"github.com/tutorhub/backoffice/internal/pkg/kst"
)

func TestExport(t *testing.T) {
	start := kst.At(2025, time.January, 6, 10, 0, 0)
	program := int64(7)
	first := models.NewStandalone(1, 10, &program, start, start.Add(3*time.Hour))
	first.ID = 41
	second := models.NewStandalone(1, 11, nil, start.Add(24*time.Hour), start.Add(30*time.Hour))
	second.ID = 42

	out := Export([]*models.Schedule{first, second}, start)

	cal, err := ical.ParseCalendar(bytes.NewReader(out))
	require.NoError(t, err)
	events := cal.Events()
	require.Len(t, events, 2)

	assert.Equal(t, "schedule-41@tutorhub", events[0].Id())
	gotStart, err := events[0].GetStartAt()
	require.NoError(t, err)
	assert.True(t, gotStart.Equal(start), "DTSTART is the stored instant")
	gotEnd, err := events[0].GetEndAt()
	require.NoError(t, err)
	assert.True(t, gotEnd.Equal(start.Add(3*time.Hour)))
	assert.Equal(t, "Class for student 10 (program 7)", events[0].GetProperty(ical.ComponentPropertySummary).Value)
	assert.Equal(t, "Class for student 11", events[1].GetProperty(ical.ComponentPropertySummary).Value)
}

func TestExport_Empty(t *testing.T) {
	out := Export(nil, time.Now())
	assert.Contains(t, string(out), "BEGIN:VCALENDAR")
	assert.NotContains(t, string(out), "BEGIN:VEVENT")
}
