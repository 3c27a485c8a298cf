// Package probe implements the out-of-band reachability check against the
// peer's health endpoint.
//
// The probe is pure scheduling plus one HTTP GET: a check immediately on
// start, then one per fixed interval, each producing exactly one
// Reachable/Unreachable outcome on the result stream. It knows nothing
// about connection state; the controller interprets outcomes. The probe
// must be stopped on teardown or its timer leaks across restarts.
package probe
