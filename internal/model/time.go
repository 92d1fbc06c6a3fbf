package model

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"time"
)

// Time is a UTC instant persisted as Unix milliseconds and serialized as RFC 3339.
type Time struct {
	time.Time
}

func NewTime(t time.Time) Time {
	return Time{Time: t.UTC().Truncate(time.Millisecond)}
}

func Now() Time {
	return NewTime(time.Now())
}

func (t Time) Value() (driver.Value, error) {
	return t.UnixMilli(), nil
}

func (t *Time) Scan(src any) error {
	var ms int64
	switch v := src.(type) {
	case nil:
		t.Time = time.Time{}
		return nil
	case int64:
		ms = v
	case float64:
		ms = int64(v)
	case []byte:
		n, err := strconv.ParseInt(string(v), 10, 64)
		if err != nil {
			return fmt.Errorf("scan time: %w", err)
		}
		ms = n
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("scan time: %w", err)
		}
		ms = n
	case time.Time:
		t.Time = v.UTC()
		return nil
	default:
		return fmt.Errorf("scan time: unsupported type %T", src)
	}
	t.Time = time.UnixMilli(ms).UTC()
	return nil
}
