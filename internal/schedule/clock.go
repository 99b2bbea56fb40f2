// Package schedule maps the university's fixed module timetable to
// wall-clock instants. Everything here is pure: callers supply the day and
// the grace period, nothing reads global time.
package schedule

import (
	"errors"
	"fmt"
	"time"
)

// ErrModuleNotConfigured signals an unknown module number. Callers are
// expected to skip and log, never to fail a batch on it.
var ErrModuleNotConfigured = errors.New("module not configured")

type TimeOfDay struct {
	Hour   int
	Minute int
}

// Block is the (start, end) wall-clock window of one module.
type Block struct {
	Start TimeOfDay
	End   TimeOfDay
}

// blocks is the campus-wide module timetable. Module 5 starts at minute 50,
// which exercises the grace-period hour rollover.
var blocks = map[int]Block{
	1: {Start: TimeOfDay{8, 20}, End: TimeOfDay{9, 30}},
	2: {Start: TimeOfDay{9, 40}, End: TimeOfDay{10, 50}},
	3: {Start: TimeOfDay{11, 0}, End: TimeOfDay{12, 10}},
	4: {Start: TimeOfDay{12, 20}, End: TimeOfDay{13, 30}},
	5: {Start: TimeOfDay{14, 50}, End: TimeOfDay{16, 0}},
	6: {Start: TimeOfDay{16, 10}, End: TimeOfDay{17, 20}},
	7: {Start: TimeOfDay{17, 30}, End: TimeOfDay{18, 40}},
	8: {Start: TimeOfDay{18, 50}, End: TimeOfDay{20, 0}},
	9: {Start: TimeOfDay{20, 10}, End: TimeOfDay{21, 20}},
}

// BlockFor returns the timetable block of a module.
func BlockFor(module int) (Block, error) {
	b, ok := blocks[module]
	if !ok {
		return Block{}, fmt.Errorf("module %d: %w", module, ErrModuleNotConfigured)
	}
	return b, nil
}

// Start returns the instant the module begins on the given day. Only the
// day's date and location are used; any time-of-day component is ignored.
func Start(day time.Time, module int) (time.Time, error) {
	b, err := BlockFor(module)
	if err != nil {
		return time.Time{}, err
	}
	return at(day, b.Start), nil
}

// Deadline returns the latest instant a check-in for the module on the
// given day is still valid: module start plus the grace period. Minute
// overflow carries into the hour.
func Deadline(day time.Time, module int, graceMinutes int) (time.Time, error) {
	b, err := BlockFor(module)
	if err != nil {
		return time.Time{}, err
	}

	minute := b.Start.Minute + graceMinutes
	hour := b.Start.Hour + minute/60
	minute %= 60

	return at(day, TimeOfDay{Hour: hour, Minute: minute}), nil
}

// DayIn rebuilds a date in the given location. Dates come out of the store
// as UTC midnight; the timetable is meaningful only in campus local time.
func DayIn(day time.Time, loc *time.Location) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
}

func at(day time.Time, tod TimeOfDay) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), tod.Hour, tod.Minute, 0, 0, day.Location())
}
