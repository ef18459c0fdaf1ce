// Package shift derives the working shift of an attendance event from the
// weekday and clock time it was observed at.
package shift

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"smartattendance/backend/internal/entity"
)

const (
	A = "A"
	B = "B"

	clockLayout = "15:04:05"
)

// Shift is the outcome of resolving a policy for one event.
type Shift struct {
	Name     string
	Start    time.Time
	MinHours float64
}

// Policy is the shift table. The zero value is not usable; start from
// DefaultPolicy.
type Policy struct {
	// Threshold splits Monday to Thursday events: clocks at or before it
	// belong to shift A, later ones to shift B.
	Threshold string `yaml:"threshold"`
	StartA    string `yaml:"shift_a_start"`
	StartB    string `yaml:"shift_b_start"`

	MinHoursWeekday float64 `yaml:"min_hours_weekday"`
	MinHoursFriday  float64 `yaml:"min_hours_friday"`
	MinHoursWeekend float64 `yaml:"min_hours_weekend"`

	// Grace is added to the shift start before an arrival counts as late.
	Grace time.Duration `yaml:"grace"`
}

func DefaultPolicy() Policy {
	return Policy{
		Threshold:       "08:00:00",
		StartA:          "08:00:00",
		StartB:          "10:00:00",
		MinHoursWeekday: 7,
		MinHoursFriday:  4,
		MinHoursWeekend: 5,
		Grace:           time.Minute,
	}
}

// LoadPolicy reads a YAML policy file. Keys missing from the file keep
// their default value. An empty path returns the default policy.
func LoadPolicy(path string) (Policy, error) {
	p := DefaultPolicy()
	if path == "" {
		return p, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, errors.Wrap(err, "reading shift policy")
	}
	if err := yaml.Unmarshal(b, &p); err != nil {
		return Policy{}, errors.Wrap(err, "parsing shift policy")
	}

	return p, p.Validate()
}

// Validate checks that every clock value parses.
func (p Policy) Validate() error {
	for name, v := range map[string]string{
		"threshold":     p.Threshold,
		"shift_a_start": p.StartA,
		"shift_b_start": p.StartB,
	} {
		if _, err := time.Parse(clockLayout, v); err != nil {
			return errors.Wrapf(err, "shift policy %s", name)
		}
	}
	if p.Grace < 0 {
		return errors.New("shift policy grace must not be negative")
	}
	return nil
}

// Resolve returns the shift of an event observed at at. The shift start is
// on the same calendar date as at, in at's location.
func (p Policy) Resolve(at time.Time) Shift {
	switch at.Weekday() {
	case time.Monday, time.Tuesday, time.Wednesday, time.Thursday:
		if !clockAfter(at, p.Threshold) {
			return Shift{Name: A, Start: onDate(at, p.StartA), MinHours: p.MinHoursWeekday}
		}
		return Shift{Name: B, Start: onDate(at, p.StartB), MinHours: p.MinHoursWeekday}
	case time.Friday:
		return Shift{Name: A, Start: onDate(at, p.StartA), MinHours: p.MinHoursFriday}
	default:
		return Shift{Name: A, Start: onDate(at, p.StartA), MinHours: p.MinHoursWeekend}
	}
}

// Punctuality grades an arrival at at against the start of s.
func (p Policy) Punctuality(at time.Time, s Shift) string {
	if at.After(s.Start.Add(p.Grace)) {
		return entity.Late
	}
	return entity.Punctual
}

// clockAfter reports whether the time of day of at is later than clock.
func clockAfter(at time.Time, clock string) bool {
	return at.After(onDate(at, clock))
}

func onDate(at time.Time, clock string) time.Time {
	c, err := time.Parse(clockLayout, clock)
	if err != nil {
		// Validate rejects such policies; keep Resolve total anyway.
		c = time.Time{}
	}
	y, m, d := at.Date()
	return time.Date(y, m, d, c.Hour(), c.Minute(), c.Second(), 0, at.Location())
}
