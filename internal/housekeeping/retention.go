// Package housekeeping implements the background maintenance passes of the
// document host: trash collection of soft-deleted workspaces and documents,
// eviction of locally cached document copies, and the cluster-wide gate that
// keeps concurrent replicas from running the same pass twice.
package housekeeping

import "time"

// Expired reports whether the retention window of thresholdDays has fully
// elapsed between ref and now. The caller always supplies now, so passes can
// be driven with synthetic clocks in tests.
func Expired(ref, now time.Time, thresholdDays int) bool {
	return now.Sub(ref) >= time.Duration(thresholdDays)*24*time.Hour
}
