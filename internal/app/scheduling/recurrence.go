package scheduling

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/tutorhub/backoffice/internal/pkg/kst"
	"github.com/tutorhub/backoffice/internal/pkg/logger"
)

// DefaultMaxOccurrences caps a single series (ten years of weekly classes).
const DefaultMaxOccurrences = 520

// RecurrenceExpander turns a first class and a last date into weekly class starts.
type RecurrenceExpander struct {
	// MaxOccurrences is a safety cap on the expanded series, root included.
	MaxOccurrences int
}

// NewRecurrenceExpander returns an expander capped at maxOccurrences (DefaultMaxOccurrences when <= 0).
func NewRecurrenceExpander(maxOccurrences int) RecurrenceExpander {
	if maxOccurrences <= 0 {
		maxOccurrences = DefaultMaxOccurrences
	}
	return RecurrenceExpander{MaxOccurrences: maxOccurrences}
}

// weeklyRule builds the weekly rule. DTSTART is expressed in KST so that the rule steps
// by calendar weeks on the KST wall clock.
func weeklyRule(firstStart time.Time, until kst.Date) (*rrule.RRule, error) {
	return rrule.NewRRule(rrule.ROption{
		Freq:     rrule.WEEKLY,
		Interval: 1,
		Dtstart:  firstStart.In(kst.Location()),
		Until:    until.End(),
	})
}

// Expansion is an expanded weekly series.
type Expansion struct {
	Starts []time.Time
	// Until is the last date the series covers. It is the requested until date, or the
	// date of the last start when the series was cut at the cap.
	Until     kst.Date
	Truncated bool
}

// Expand returns firstStart followed by every weekly start whose KST date is on or before
// until, stopping at MaxOccurrences. When until precedes firstStart's date the series
// holds firstStart only.
func (e RecurrenceExpander) Expand(firstStart time.Time, until kst.Date) (Expansion, error) {
	if until.Before(kst.DateOf(firstStart)) {
		return Expansion{Starts: []time.Time{firstStart}, Until: until}, nil
	}

	r, err := weeklyRule(firstStart, until)
	if err != nil {
		return Expansion{}, fmt.Errorf("failed to build weekly rule: %w", err)
	}

	// The iterator yields DTSTART first; firstStart is kept as given.
	starts := []time.Time{firstStart}
	next := r.Iterator()
	if _, ok := next(); !ok {
		return Expansion{Starts: starts, Until: until}, nil
	}
	for e.MaxOccurrences <= 0 || len(starts) < e.MaxOccurrences {
		t, ok := next()
		if !ok {
			return Expansion{Starts: starts, Until: until}, nil
		}
		starts = append(starts, t.UTC())
	}

	// At the cap: one more instant means the rule went further than we store.
	if _, more := next(); !more {
		return Expansion{Starts: starts, Until: until}, nil
	}
	last := kst.DateOf(starts[len(starts)-1])
	logger.Warn().
		Time("firstStart", firstStart).
		Str("until", until.String()).
		Str("truncatedUntil", last.String()).
		Int("cap", e.MaxOccurrences).
		Msg("Weekly series truncated at occurrence cap")
	return Expansion{Starts: starts, Until: last, Truncated: true}, nil
}

// RuleString encodes the weekly cadence and until date stored on a series root,
// e.g. "FREQ=WEEKLY;INTERVAL=1;UNTIL=20250127T145959Z".
func RuleString(firstStart time.Time, until kst.Date) (string, error) {
	r, err := weeklyRule(firstStart, until)
	if err != nil {
		return "", fmt.Errorf("failed to build weekly rule: %w", err)
	}
	return r.OrigOptions.RRuleString(), nil
}

// ParseRuleUntil returns the KST until date encoded in a stored series rule.
func ParseRuleUntil(rule string) (kst.Date, error) {
	r, err := rrule.StrToRRule(rule)
	if err != nil {
		return kst.Date{}, fmt.Errorf("invalid series rule %q: %w", rule, err)
	}
	if r.OrigOptions.Until.IsZero() {
		return kst.Date{}, fmt.Errorf("series rule %q has no UNTIL", rule)
	}
	return kst.DateOf(r.OrigOptions.Until), nil
}
