package knesset

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPreviousWeek(t *testing.T) {
	tests := []struct {
		name      string
		now       time.Time
		wantStart string
		wantEnd   string
	}{
		{
			name:      "midweek",
			now:       time.Date(2026, 1, 14, 12, 0, 0, 0, time.UTC), // Wednesday
			wantStart: "2026-01-04",
			wantEnd:   "2026-01-10",
		},
		{
			name:      "sunday picks yesterday as week end",
			now:       time.Date(2026, 1, 11, 0, 30, 0, 0, time.UTC), // Sunday
			wantStart: "2026-01-04",
			wantEnd:   "2026-01-10",
		},
		{
			name:      "saturday skips to the week before",
			now:       time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC), // Saturday
			wantStart: "2025-12-28",
			wantEnd:   "2026-01-03",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := PreviousWeek(tt.now)
			assert.Equal(t, tt.wantStart, DateString(start))
			assert.Equal(t, tt.wantEnd, DateString(end))
			assert.Equal(t, time.Sunday, start.Weekday())
			assert.Equal(t, time.Saturday, end.Weekday())

			// Day-precision bounds: start of day and end of day.
			assert.Equal(t, 0, start.Hour())
			assert.Equal(t, 23, end.Hour())
			assert.Equal(t, 59, end.Minute())
		})
	}
}
