package statement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDate(t *testing.T) {
	now := time.Date(2025, time.June, 15, 18, 30, 0, 0, time.UTC)
	today := time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   string
		want time.Time
	}{
		{"day first", "31/12/2024", time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)},
		{"iso", "2024-01-05", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)},
		{"ambiguous is day first", "03/04/2024", time.Date(2024, 4, 3, 0, 0, 0, 0, time.UTC)},
		{"month first when second exceeds 12", "04/25/2024", time.Date(2024, 4, 25, 0, 0, 0, 0, time.UTC)},
		{"iso with time", "2024-10-31 00:00:00", time.Date(2024, 10, 31, 0, 0, 0, 0, time.UTC)},
		{"iso with T", "2024-10-31T13:45:00Z", time.Date(2024, 10, 31, 0, 0, 0, 0, time.UTC)},
		{"slashes iso", "2024/02/29", time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)},
		{"two digit year", "05.03.24", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
		{"missing year", "05/03", time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)},
		{"both above 12", "13/13/2024", today},
		{"impossible day", "31/02/2024", today},
		{"bad iso month", "2024-13-01", today},
		{"garbage", "yesterday", today},
		{"empty", "", today},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeDate(tt.in, now))
		})
	}
}
