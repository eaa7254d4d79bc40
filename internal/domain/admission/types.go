// Package admission contains the domain types for request admission:
// fixed-window rate policies, counter keys, decisions, and the
// violation ring buffer.
package admission

import (
	"time"
)

// Dimension identifies one axis a request is counted on.
// Dimensions are always evaluated in the order IP, route, user, and a
// denial reports the first dimension whose budget is exhausted.
type Dimension string

const (
	// DimensionIP counts requests per resolved client address.
	DimensionIP Dimension = "ip"

	// DimensionRoute counts requests per route across all clients.
	DimensionRoute Dimension = "route"

	// DimensionUser counts requests per authenticated subject.
	DimensionUser Dimension = "user"
)

// Policy is one route's rate limit: at most Limit requests per Window.
// Policies are static after load; changing them is a restart.
type Policy struct {
	// Route is the pattern the policy applies to. Either an exact path
	// ("/auth/login") or a prefix pattern ending in "/*" ("/api/*").
	Route string

	// Limit is the maximum number of admitted requests per window.
	Limit int

	// Window is the fixed window length.
	Window time.Duration
}

// Decision is the outcome of an admission check.
// A denial is an expected outcome, not an error.
type Decision struct {
	// Allowed reports whether the request may proceed.
	Allowed bool

	// Dimension is the first exhausted dimension when denied.
	Dimension Dimension

	// Limit is the budget of the exhausted dimension.
	Limit int

	// Count is the post-increment counter of the exhausted dimension.
	Count int64

	// RetryAfter is the window length, surfaced to the client on denial.
	RetryAfter time.Duration

	// FailOpen is true when the counter store was unreachable and the
	// request was admitted uncounted. Telemetry must be able to tell
	// such admissions apart from normal ones.
	FailOpen bool
}

// Status is a read-only snapshot of a client's budget on a route.
// It performs no increments.
type Status struct {
	// Limit is the route policy limit.
	Limit int `json:"limit"`

	// Used is the highest counter across the client's dimensions.
	Used int64 `json:"used"`

	// Remaining is Limit - Used, floored at zero.
	Remaining int64 `json:"remaining"`

	// ResetTime is the Unix second the current window ends.
	ResetTime int64 `json:"reset_time"`
}

// ViolationRecord captures one denied request for diagnostics.
type ViolationRecord struct {
	// Identity is the resolved client address.
	Identity string `json:"identity"`

	// Subject is the authenticated subject ID, if any.
	Subject *int64 `json:"subject,omitempty"`

	// Route is the request route.
	Route string `json:"route"`

	// Dimension is the dimension that denied the request.
	Dimension Dimension `json:"dimension"`

	// Count is the counter value that crossed the limit.
	Count int64 `json:"count"`

	// Limit is the exceeded budget.
	Limit int `json:"limit"`

	// At is when the denial happened.
	At time.Time `json:"at"`
}
