package config

import (
	"fmt"
	"strings"
	"time"
)

const (
	// DateLayout is the form used in booking URLs.
	DateLayout = "2006-01-02"
	// DisplayLayout is the form used in notification text.
	DisplayLayout = "02/01/2006"
)

// Date is a calendar date without a time of day.
type Date struct {
	time.Time
}

// NewDate returns the Date for the given year, month and day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return Date{t}, nil
}

// String returns the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(DateLayout)
}

// Display returns the date as DD/MM/YYYY.
func (d Date) Display() string {
	return d.Format(DisplayLayout)
}

// UnmarshalYAML accepts both plain YAML dates and quoted YYYY-MM-DD strings.
func (d *Date) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return fmt.Errorf("date must be a YYYY-MM-DD value: %w", err)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DateRange is one candidate stay.
type DateRange struct {
	CheckIn  Date
	CheckOut Date
}

// UnmarshalYAML decodes a two element list: [check_in, check_out].
func (r *DateRange) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var pair []Date
	if err := unmarshal(&pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("date range must have exactly 2 dates, got %d", len(pair))
	}
	r.CheckIn, r.CheckOut = pair[0], pair[1]
	return nil
}

// Valid reports whether check-in is strictly before check-out.
func (r DateRange) Valid() bool {
	return r.CheckIn.Before(r.CheckOut.Time)
}

// String returns the range in display form, e.g. "01/07/2022 - 03/07/2022".
func (r DateRange) String() string {
	return r.CheckIn.Display() + " - " + r.CheckOut.Display()
}
