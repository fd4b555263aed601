package booking

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewBookingNumber_Format(t *testing.T) {
	id := NewBookingNumber(time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC))
	assert.Regexp(t, regexp.MustCompile(`^CB-[0-9A-Z]+-[0-9A-F]{10}$`), id)
}

func TestNewBookingNumber_SameMillisecond(t *testing.T) {
	now := time.Now()
	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		id := NewBookingNumber(now)
		_, dup := seen[id]
		assert.False(t, dup, "duplicate %s", id)
		seen[id] = struct{}{}
	}
}
