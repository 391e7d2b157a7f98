// Package calendar holds the wall-clock value types that cross the HTTP and
// SQL boundaries: a calendar Date with no time zone and a TimeOfDay with
// second resolution. Neither type is ever converted through a time.Location,
// so a booking for 2024-03-15 stays 2024-03-15 whatever the server or client
// offset is.
package calendar

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// ErrInvalidDate is returned when a value cannot be read as YYYY-MM-DD.
var ErrInvalidDate = errors.New("invalid date; expected YYYY-MM-DD")

// ErrInvalidTime is returned when a value cannot be read as HH:MM[:SS].
var ErrInvalidTime = errors.New("invalid time; expected HH:MM:SS")

// Date is a calendar day.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate reads a YYYY-MM-DD string. A full ISO timestamp such as
// "2024-03-15T00:00:00.000Z" is accepted too, but only its date part is
// kept: the offset is ignored on purpose, never applied.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if len(s) > len(dateLayout) {
		sep := s[len(dateLayout)]
		if sep != 'T' && sep != ' ' {
			return Date{}, ErrInvalidDate
		}
		s = s[:len(dateLayout)]
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return DateOf(t), nil
}

// DateOf returns the day t falls on in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool { return d == Date{} }

// String renders YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Long renders the date the way it is shown to guests, e.g.
// "Saturday, June 1, 2024".
func (d Date) Long() string {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).Format("Monday, January 2, 2006")
}

func (d Date) MarshalJSON() ([]byte, error) { return json.Marshal(d.String()) }

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return ErrInvalidDate
	}
	v, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// Value sends the date to the driver as a string so no location is applied.
// The zero Date is sent as NULL, mirroring Scan.
func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.String(), nil
}

// Scan accepts DATE columns returned either as text or, with parseTime
// enabled, as a time.Time whose fields are taken as-is.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*d = DateOf(v)
		return nil
	case []byte:
		return d.scanString(string(v))
	case string:
		return d.scanString(v)
	case nil:
		*d = Date{}
		return nil
	}
	return fmt.Errorf("calendar: cannot scan %T into Date", src)
}

func (d *Date) scanString(s string) error {
	v, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// TimeOfDay is a wall-clock time with second resolution.
type TimeOfDay struct {
	Hour   int
	Minute int
	Second int
}

// ParseTimeOfDay normalizes "H:MM", "HH:MM", "HH:MM:SS" and
// "HH:MM:SS.fff" into a TimeOfDay. Fractional seconds are dropped.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s = s[:i]
	}
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return TimeOfDay{}, ErrInvalidTime
	}
	vals := [3]int{}
	for i, p := range parts {
		if p == "" || len(p) > 2 || (i > 0 && len(p) != 2) {
			return TimeOfDay{}, ErrInvalidTime
		}
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return TimeOfDay{}, ErrInvalidTime
		}
		vals[i] = n
	}
	t := TimeOfDay{Hour: vals[0], Minute: vals[1], Second: vals[2]}
	if t.Hour > 23 || t.Minute > 59 || t.Second > 59 {
		return TimeOfDay{}, ErrInvalidTime
	}
	return t, nil
}

// String renders HH:MM:SS.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// Kitchen renders a 12-hour clock value such as "7:00 PM".
func (t TimeOfDay) Kitchen() string {
	return time.Date(2000, 1, 1, t.Hour, t.Minute, t.Second, 0, time.UTC).Format("3:04 PM")
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) { return json.Marshal(t.String()) }

func (t *TimeOfDay) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return ErrInvalidTime
	}
	v, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = v
	return nil
}

func (t TimeOfDay) Value() (driver.Value, error) { return t.String(), nil }

// Scan accepts TIME columns, which the MySQL driver returns as text.
func (t *TimeOfDay) Scan(src any) error {
	var s string
	switch v := src.(type) {
	case []byte:
		s = string(v)
	case string:
		s = v
	case nil:
		*t = TimeOfDay{}
		return nil
	default:
		return fmt.Errorf("calendar: cannot scan %T into TimeOfDay", src)
	}
	v, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = v
	return nil
}
