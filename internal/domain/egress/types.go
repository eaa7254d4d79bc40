// Package egress guards outbound URL fetches against SSRF: every URL a
// request asks the server to fetch is checked against an allow-list and
// its resolved addresses before any connection is made.
package egress

// Candidate is a URL-carrying value found in an incoming request.
type Candidate struct {
	// Field is the request field the value came from ("url", "callback", ...).
	Field string `json:"field"`

	// Raw is the value exactly as received.
	Raw string `json:"raw"`
}

// Reason classifies why a candidate was rejected. Reasons are for
// internal diagnostics only; HTTP responses stay generic.
type Reason string

const (
	// ReasonMalformed means the value did not parse as a URL with a host.
	ReasonMalformed Reason = "malformed"

	// ReasonScheme means the URL scheme is not http or https.
	ReasonScheme Reason = "scheme"

	// ReasonDomain means the hostname is not on the allow-list.
	ReasonDomain Reason = "domain"

	// ReasonResolve means DNS resolution failed or timed out. Resolution
	// failures fail closed.
	ReasonResolve Reason = "resolve"

	// ReasonPrivateAddress means at least one resolved address falls in
	// a private or reserved range.
	ReasonPrivateAddress Reason = "private_address"
)

// Verdict is the outcome of checking one candidate. Verdicts are never
// cached; every check re-resolves so DNS rebinding between checks
// cannot launder a hostname.
type Verdict struct {
	// Candidate is the value that was checked.
	Candidate Candidate `json:"candidate"`

	// Safe reports whether the URL may be fetched.
	Safe bool `json:"safe"`

	// Reason is set when Safe is false.
	Reason Reason `json:"reason,omitempty"`
}
