// Package admissiongate provides a Go SDK for the Admission Gate admin API.
//
// Admission Gate is a request-admission and egress-safety layer that sits in
// front of an HTTP application. This SDK lets Go programs manage the egress
// allow-list, inspect recent rate-limit violations, and query remaining
// budgets programmatically. It uses only the Go standard library (net/http)
// with zero external dependencies.
//
// Quick start:
//
//	// Set ADMISSION_GATE_SERVER_ADDR and ADMISSION_GATE_API_KEY env vars, then:
//	client := admissiongate.NewClient()
//
//	if _, err := client.AddDomain(ctx, "partner.example.com"); err != nil {
//	    if errors.Is(err, admissiongate.ErrDomainExists) {
//	        // already on the allow-list
//	    }
//	}
package admissiongate

import "time"

// Health status values reported by the gate's health endpoint.
const (
	// StatusHealthy indicates all gate components are reachable.
	StatusHealthy = "healthy"

	// StatusDegraded indicates at least one component check failed. The gate
	// keeps admitting traffic (admission fails open), so degraded is not down.
	StatusDegraded = "degraded"
)

// DomainList is the gate's view of the egress allow-list.
type DomainList struct {
	// Domains is the sorted list of allowed hostnames.
	Domains []string `json:"domains"`

	// Count is the number of entries in Domains.
	Count int `json:"count"`

	// Persistent reports whether admin mutations are written to a domains file.
	Persistent bool `json:"persistent"`
}

// RateLimitStatus is the remaining budget for one client on one route.
// Reading it consumes none of the budget.
type RateLimitStatus struct {
	// Limit is the route policy limit per window.
	Limit int `json:"limit"`

	// Used is the number of requests counted in the current window.
	Used int64 `json:"used"`

	// Remaining is Limit - Used, floored at zero.
	Remaining int64 `json:"remaining"`

	// ResetTime is the Unix timestamp at which the current window ends.
	ResetTime int64 `json:"reset_time"`
}

// Violation is one recorded rate-limit denial.
type Violation struct {
	// Identity is the client address the denied request resolved to.
	Identity string `json:"identity"`

	// Subject is the authenticated user ID, when the request carried one.
	Subject *int64 `json:"subject,omitempty"`

	// Route is the request path that was denied.
	Route string `json:"route"`

	// Dimension is the budget that was exhausted: "ip", "route", or "user".
	Dimension string `json:"dimension"`

	// Count is the counter value that exceeded the limit.
	Count int64 `json:"count"`

	// Limit is the limit that was exceeded.
	Limit int `json:"limit"`

	// At is when the denial happened.
	At time.Time `json:"at"`
}

// ViolationList wraps recent violations, newest first.
type ViolationList struct {
	// Violations holds the records, newest first.
	Violations []Violation `json:"violations"`

	// Count is the number of records returned.
	Count int `json:"count"`

	// Capacity is the size of the gate's violation ring buffer.
	Capacity int `json:"capacity"`
}

// Health is the gate's health report.
type Health struct {
	// Status is StatusHealthy or StatusDegraded.
	Status string `json:"status"`

	// Checks maps component names to their check results.
	Checks map[string]string `json:"checks"`

	// Version is the gate's build version, when configured.
	Version string `json:"version,omitempty"`
}
