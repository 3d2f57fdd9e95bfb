package repository

import (
	"database/sql"
	"time"

	"wellsync/internal/types"
)

func dayKey(t time.Time) string {
	return t.Format(types.DateLayout)
}

func parseDay(s string) (time.Time, error) {
	return time.ParseInLocation(types.DateLayout, s, time.Local)
}

// storedTime normalizes timestamps so SQL MIN/MAX over the text form orders correctly
func storedTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

func nullTimeFrom(t *time.Time) sql.NullTime {
	if t == nil || t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: storedTime(*t), Valid: true}
}

func timePtrFromNull(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}
