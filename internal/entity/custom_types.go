package entity

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// DateOnly is a calendar date without a time component.
type DateOnly struct {
	time.Time
}

const dateOnlyLayout = "2006-01-02"

func (d *DateOnly) UnmarshalJSON(b []byte) error {
	s := string(b[1 : len(b)-1]) // Remove quotes
	if s == "null" || s == "" {
		return nil
	}
	t, err := time.Parse(dateOnlyLayout, s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

func (d DateOnly) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(dateOnlyLayout) + `"`), nil
}

func (d DateOnly) Value() (driver.Value, error) {
	return d.Time, nil
}

func (d *DateOnly) Scan(value interface{}) error {
	if value == nil {
		return nil
	}

	switch v := value.(type) {
	case time.Time:
		d.Time = v
	case []byte:
		t, err := time.Parse(dateOnlyLayout, string(v))
		if err != nil {
			return err
		}
		d.Time = t
	case string:
		t, err := time.Parse(dateOnlyLayout, v)
		if err != nil {
			return err
		}
		d.Time = t
	default:
		return fmt.Errorf("cannot scan type %T into DateOnly", value)
	}
	return nil
}

// ClockTime is a wall-clock time of day without a date component.
type ClockTime struct {
	time.Time
}

const clockTimeLayout = "15:04"

func (c *ClockTime) UnmarshalJSON(b []byte) error {
	s := string(b[1 : len(b)-1])
	if s == "null" || s == "" {
		return nil
	}
	t, err := time.Parse(clockTimeLayout, s)
	if err != nil {
		return err
	}
	c.Time = t
	return nil
}

func (c ClockTime) MarshalJSON() ([]byte, error) {
	return []byte(`"` + c.Format(clockTimeLayout) + `"`), nil
}

func (c ClockTime) Value() (driver.Value, error) {
	return c.Format("15:04:05"), nil
}

func (c *ClockTime) Scan(value interface{}) error {
	if value == nil {
		return nil
	}

	switch v := value.(type) {
	case time.Time:
		c.Time = v
	case []byte:
		t, err := parseClock(string(v))
		if err != nil {
			return err
		}
		c.Time = t
	case string:
		t, err := parseClock(v)
		if err != nil {
			return err
		}
		c.Time = t
	default:
		return fmt.Errorf("cannot scan type %T into ClockTime", value)
	}
	return nil
}

func parseClock(s string) (time.Time, error) {
	if t, err := time.Parse("15:04:05", s); err == nil {
		return t, nil
	}
	return time.Parse(clockTimeLayout, s)
}
