// Package alert carries user-facing notifications from driver loops to
// their destinations. Drivers call Notify, which never blocks; a
// dispatcher goroutine fans each notification out to its sinks (the
// structured log always, the broker's notify topic when connected).
package alert
