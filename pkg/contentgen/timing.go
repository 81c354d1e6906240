package contentgen

import (
	"time"

	"estatecast/pkg/domain"
)

// PostingTime picks the next engagement-optimal slot for a platform: a
// random hour inside one of the platform's posting windows on a quarter-hour
// boundary, pushed to tomorrow when the drawn slot is not in the future.
func (g *Generator) PostingTime(platform domain.Platform) time.Time {
	windows, ok := optimalPostingWindows[platform]
	if !ok {
		windows = optimalPostingWindows[domain.PlatformInstagram]
	}

	now := g.now()
	slots := windows.weekday
	if wd := now.Weekday(); wd == time.Saturday || wd == time.Sunday {
		slots = windows.weekend
	}

	window := slots[g.rand.IntN(len(slots))]
	hour := window.start + g.rand.IntN(window.end-window.start)
	minute := 15 * g.rand.IntN(4)

	posting := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !posting.After(now) {
		posting = posting.AddDate(0, 0, 1)
	}
	return posting
}
