package utils

import (
	"fmt"
	"strings"
	"time"

	"consultbot/models"
)

// FormatDate renders "2025-01-06" as "Monday, 6 January 2025". Unparsable input
// is returned unchanged.
func FormatDate(date string) string {
	t, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return date
	}
	return t.Format("Monday, 2 January 2006")
}

// FormatDateShort renders "2025-01-06" as "Mon 06.01" for keyboard buttons.
func FormatDateShort(date string) string {
	t, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return date
	}
	return t.Format("Mon 02.01")
}

// TimeToCallback turns "10:00" into "10-00"; colons are kept out of callback data.
func TimeToCallback(clock string) string {
	return strings.ReplaceAll(clock, ":", "-")
}

// TimeFromCallback reverses TimeToCallback.
func TimeFromCallback(s string) string {
	return strings.ReplaceAll(s, "-", ":")
}

// CountNoun renders 1 as one ("an hour") and any other n as "n many" ("3 hours").
func CountNoun(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return fmt.Sprintf("%d %s", n, many)
}
