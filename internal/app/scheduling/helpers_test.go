package scheduling

import (
	"time"

	"github.com/tutorhub/backoffice/internal/app/scheduling/schedulingtest"
	"github.com/tutorhub/backoffice/internal/pkg/kst"
)

// fixedClock returns a clock stuck at the given KST wall-clock time.
func fixedClock(y int, mo time.Month, d, h, mi int) kst.Clock {
	t := kst.At(y, mo, d, h, mi, 0)
	return func() time.Time { return t }
}

var (
	_ Store    = (*schedulingtest.MemStore)(nil)
	_ Settings = (*schedulingtest.MemStore)(nil)
	_ Profile  = (*schedulingtest.MemStore)(nil)
)
