package model

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Money is an amount in cents. It maps to DECIMAL(10,2) columns and is
// rendered with exactly two decimals, so prices never pass through a float.
type Money int64

var errMoney = errors.New("invalid money amount")

// ParseMoney reads "12", "12.5" or "12.50". More than two decimals is an
// error rather than a silent rounding.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" || len(frac) > 2 {
		return 0, errMoney
	}
	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, errMoney
	}
	for len(frac) < 2 {
		frac += "0"
	}
	f, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, errMoney
	}
	m := Money(w*100 + f)
	if neg {
		m = -m
	}
	return m, nil
}

// String renders the amount with two decimals, e.g. "12.50".
func (m Money) String() string {
	sign := ""
	if m < 0 {
		sign, m = "-", -m
	}
	return fmt.Sprintf("%s%d.%02d", sign, int64(m)/100, int64(m)%100)
}

// Times returns m multiplied by a quantity.
func (m Money) Times(n int) Money { return m * Money(n) }

func (m Money) MarshalJSON() ([]byte, error) { return []byte(m.String()), nil }

func (m Money) Value() (driver.Value, error) { return m.String(), nil }

// Scan accepts DECIMAL columns as text and integer columns as-is.
func (m *Money) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		return m.scanString(string(v))
	case string:
		return m.scanString(v)
	case int64:
		*m = Money(v * 100)
		return nil
	case nil:
		*m = 0
		return nil
	}
	return fmt.Errorf("model: cannot scan %T into Money", src)
}

func (m *Money) scanString(s string) error {
	v, err := ParseMoney(s)
	if err != nil {
		return err
	}
	*m = v
	return nil
}
