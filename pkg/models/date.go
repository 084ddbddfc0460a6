package models

import (
	"fmt"
	"time"
)

// DateLayout is the dd-mm-yyyy format used by every date in the record.
const DateLayout = "02-01-2006"

// Date is a calendar date serialized as dd-mm-yyyy.
type Date struct {
	time.Time
}

func NewDate(t time.Time) Date {
	y, mo, d := t.Date()
	return Date{Time: time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)}
}

func (d Date) String() string { return d.Format(DateLayout) }

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(DateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("date must be a quoted dd-mm-yyyy string, got %s", s)
	}
	t, err := time.Parse(DateLayout, s[1:len(s)-1])
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}
