package housekeeping

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExpired(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		ref     time.Time
		days    int
		expired bool
	}{
		{name: "well past the window", ref: now.Add(-40 * 24 * time.Hour), days: 30, expired: true},
		{name: "exactly at the threshold", ref: now.Add(-30 * 24 * time.Hour), days: 30, expired: true},
		{name: "one second short", ref: now.Add(-30*24*time.Hour + time.Second), days: 30, expired: false},
		{name: "fresh", ref: now.Add(-time.Hour), days: 30, expired: false},
		{name: "zero-day threshold", ref: now, days: 0, expired: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expired, Expired(tt.ref, now, tt.days))
		})
	}
}
