package sqlite

import (
	"fmt"
	"time"
)

// parseTime tries multiple SQLite datetime formats. Rows written by the
// application use RFC 3339; rows inserted by hand through the column default
// use CURRENT_TIMESTAMP's "YYYY-MM-DD HH:MM:SS".
func parseTime(s string) (time.Time, error) {
	formats := []string{
		"2006-01-02T15:04:05Z",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05.000",
		time.RFC3339,
		time.RFC3339Nano,
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized time format: %s", s)
}
