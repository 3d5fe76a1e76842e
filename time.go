package pandaqa

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// Time wraps time.Time so it round-trips through SQLite as RFC3339 text
// with millisecond precision.
type Time struct {
	T time.Time
}

const sqliteTimeFormat = "2006-01-02T15:04:05.999Z07:00"

func (t Time) Value() (driver.Value, error) {
	return t.T.UTC().Format(sqliteTimeFormat), nil
}

func (t *Time) Scan(value any) error {
	switch v := value.(type) {
	case time.Time:
		t.T = v.UTC()
		return nil
	case string:
		parsed, err := time.Parse(sqliteTimeFormat, v)
		if err != nil {
			return fmt.Errorf("parse time: %w", err)
		}
		t.T = parsed.UTC()
		return nil
	case []byte:
		return t.Scan(string(v))
	default:
		return fmt.Errorf("cannot scan %T into Time", value)
	}
}

func (t Time) Add(d time.Duration) Time {
	return Time{T: t.T.Add(d)}
}

func (t Time) IsZero() bool {
	return t.T.IsZero()
}
