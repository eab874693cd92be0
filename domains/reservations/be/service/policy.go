package service

import (
	"sort"
	"time"

	membersservice "github.com/clubreserve/clubreserve/domains/members/be/service"
	settingsservice "github.com/clubreserve/clubreserve/domains/settings/be/service"
)

// Limits are the booking caps that apply to one member: club-wide settings
// with any per-member overrides layered on top.
type Limits struct {
	MinHours           int
	MaxHours           int
	MaxAdvanceDays     int
	MaxPending         int
	MaxConsecutiveDays int
}

// LimitsFor resolves the effective limits for a member. Overrides replace the
// club-wide value only when present and positive.
func LimitsFor(st settingsservice.Settings, m membersservice.Member) Limits {
	l := Limits{
		MinHours:           st.MinHours(),
		MaxHours:           st.MaxHours(),
		MaxAdvanceDays:     st.MaxAdvanceDays(),
		MaxPending:         st.MaxPending(),
		MaxConsecutiveDays: st.MaxConsecutiveDays(),
	}
	if m.MaxPendingOverride != nil && *m.MaxPendingOverride > 0 {
		l.MaxPending = *m.MaxPendingOverride
	}
	if m.MaxConsecutiveOverride != nil && *m.MaxConsecutiveOverride > 0 {
		l.MaxConsecutiveDays = *m.MaxConsecutiveOverride
	}
	return l
}

// ViolatesRun reports whether the set of reservation dates contains a run of
// strictly more than max consecutive calendar days. Dates are collapsed to
// distinct days first: two reservations on the same day count once. The run
// check is a full recompute over the whole set, so cancellations immediately
// free capacity.
func ViolatesRun(dates []time.Time, max int) bool {
	if max <= 0 || len(dates) == 0 {
		return false
	}
	days := make([]time.Time, 0, len(dates))
	seen := make(map[time.Time]struct{}, len(dates))
	for _, d := range dates {
		day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
		if _, dup := seen[day]; dup {
			continue
		}
		seen[day] = struct{}{}
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	run := 1
	for i := 1; i < len(days); i++ {
		if days[i].Sub(days[i-1]) == 24*time.Hour {
			run++
			if run > max {
				return true
			}
		} else {
			run = 1
		}
	}
	return run > max
}

// dayOf truncates a timestamp to its calendar date.
func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// onGrid reports whether a timestamp lands on a half-hour boundary.
func onGrid(t time.Time) bool {
	return t.Second() == 0 && t.Nanosecond() == 0 && t.Minute()%30 == 0
}
