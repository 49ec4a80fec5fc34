package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "Monday, 6 January 2025", FormatDate("2025-01-06"))
	assert.Equal(t, "Mon 06.01", FormatDateShort("2025-01-06"))
	assert.Equal(t, "not-a-date", FormatDate("not-a-date"))
}

func TestCallbackTime(t *testing.T) {
	assert.Equal(t, "09-00", TimeToCallback("09:00"))
	assert.Equal(t, "09:00", TimeFromCallback(TimeToCallback("09:00")))
}

func TestCountNoun(t *testing.T) {
	assert.Equal(t, "an hour", CountNoun(1, "an hour", "hours"))
	assert.Equal(t, "3 hours", CountNoun(3, "an hour", "hours"))
	assert.Equal(t, "2 days", CountNoun(2, "a day", "days"))
}
