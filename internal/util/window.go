package util

import (
	"fmt"
	"time"
)

// InWindow returns true if now is within the configured window.
// Empty window values mean no restriction.
func InWindow(now time.Time, start, end, tz string) (bool, error) {
	if start == "" && end == "" {
		return true, nil
	}
	loc := now.Location()
	if tz != "" {
		var err error
		loc, err = time.LoadLocation(tz)
		if err != nil {
			return false, fmt.Errorf("invalid timezone: %w", err)
		}
	}
	local := now.In(loc)
	current := local.Hour()*60 + local.Minute()

	parse := func(v string) (int, error) {
		t, err := time.Parse("15:04", v)
		if err != nil {
			return 0, err
		}
		return t.Hour()*60 + t.Minute(), nil
	}

	if end == "" {
		s, err := parse(start)
		if err != nil {
			return false, fmt.Errorf("invalid window start: %w", err)
		}
		return current >= s, nil
	}
	if start == "" {
		e, err := parse(end)
		if err != nil {
			return false, fmt.Errorf("invalid window end: %w", err)
		}
		return current <= e, nil
	}
	s, err := parse(start)
	if err != nil {
		return false, fmt.Errorf("invalid window start: %w", err)
	}
	e, err := parse(end)
	if err != nil {
		return false, fmt.Errorf("invalid window end: %w", err)
	}
	if s <= e {
		return current >= s && current <= e, nil
	}
	// Window wraps past midnight.
	return current >= s || current <= e, nil
}
