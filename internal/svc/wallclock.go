package svc

import "time"

// SystemClock implements Clock against the host's wall clock. On real
// hardware the analogous type would read CNTPCT_EL0/CNTFRQ_EL0; cmd/kernel
// uses this one when running without that hardware counter.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() (secs, nanos uint64) {
	now := time.Now()
	return uint64(now.Unix()), uint64(now.Nanosecond())
}
