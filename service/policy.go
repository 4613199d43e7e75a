package service

import "strings"

// FailurePolicy decides what an abuse check reports when it cannot reach
// its backing store.
type FailurePolicy int

const (
	// FailOpen reports "no violation" so legitimate traffic is never blocked
	// by an internal failure.
	FailOpen FailurePolicy = iota
	// FailClosed reports "violation" on internal failure.
	FailClosed
)

// ParseFailurePolicy maps "fail_closed" to FailClosed; anything else is FailOpen.
func ParseFailurePolicy(s string) FailurePolicy {
	if strings.EqualFold(strings.TrimSpace(s), "fail_closed") {
		return FailClosed
	}
	return FailOpen
}

func (p FailurePolicy) String() string {
	if p == FailClosed {
		return "fail_closed"
	}
	return "fail_open"
}

// verdict is the check result to use when the check itself failed.
func (p FailurePolicy) verdict() bool {
	return p == FailClosed
}
