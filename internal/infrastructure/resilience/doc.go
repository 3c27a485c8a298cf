// Package resilience provides a consecutive-failure circuit breaker.
//
// The bridge uses it on the agent relay only. The health probe is
// deliberately not breakered: its fixed cadence is part of the session
// contract and a breaker would delay self-healing.
package resilience
