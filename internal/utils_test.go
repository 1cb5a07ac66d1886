package internal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateString(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want string
	}{
		{"no padding", time.Date(2024, time.March, 7, 23, 59, 0, 0, time.Local), "2024-3-7"},
		{"two digits", time.Date(2025, time.December, 31, 0, 0, 0, 0, time.Local), "2025-12-31"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DateString(tt.in))
		})
	}
}

func TestNewWordIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewWordID()
		require.NotEmpty(t, id)
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}
