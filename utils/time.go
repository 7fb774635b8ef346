// Package utils provides utility functions for the application.
package utils

import (
	"time"
)

// UTCNow returns the current time in UTC
func UTCNow() time.Time {
	return time.Now().UTC()
}

// UTCNowUnix returns the current UTC time as Unix timestamp
func UTCNowUnix() int64 {
	return UTCNow().Unix()
}

// UTCFromUnix converts a Unix timestamp into a UTC time
func UTCFromUnix(ts int64) time.Time {
	return time.Unix(ts, 0).UTC()
}
