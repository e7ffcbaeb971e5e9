package scheduling

import (
	"sort"

	"github.com/example/appointment-manager/internal/timeutil"
)

// Default day window applied when no availability rule covers a weekday.
const (
	defaultDayStartMinutes = 6 * 60  // 06:00
	defaultDayEndMinutes   = 20 * 60 // 20:00
)

// dayWindows resolves the bookable windows for a calendar day from the
// configured weekday rules. Disabled rules and rules for other weekdays are
// ignored; with no applicable rule the default 06:00-20:00 window applies.
// Windows are returned sorted by start and never overlap-merged: rules are
// owner configuration and stay as entered.
func dayWindows(date string, rules []Rule) ([]timeutil.Interval, error) {
	day, err := timeutil.ParseDate(date)
	if err != nil {
		return nil, err
	}
	weekday := int(day.Weekday())

	windows := make([]timeutil.Interval, 0, 2)
	for _, rule := range rules {
		if !rule.Enabled || rule.DayOfWeek != weekday {
			continue
		}
		start, err := timeutil.ParseClock(rule.StartTime)
		if err != nil {
			return nil, err
		}
		end, err := timeutil.ParseClock(rule.EndTime)
		if err != nil {
			return nil, err
		}
		if end <= start {
			continue
		}
		windows = append(windows, timeutil.Interval{Start: start, End: end})
	}

	if len(windows) == 0 {
		windows = append(windows, timeutil.Interval{Start: defaultDayStartMinutes, End: defaultDayEndMinutes})
	}

	sort.Slice(windows, func(i, j int) bool { return windows[i].Start < windows[j].Start })
	return windows, nil
}
