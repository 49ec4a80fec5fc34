// File: utils/constants.go
package utils

import "time"

// SessionKeyPrefix is the prefix used for Redis booking session keys.
const SessionKeyPrefix = "bookingSession:"

// DefaultSessionTTL applies when SESSION_TTL is not configured.
const DefaultSessionTTL = 30 * time.Minute

// OrphanGracePeriod is how old an unlinked calendar event must be before reconciliation removes it.
const OrphanGracePeriod = 15 * time.Minute
