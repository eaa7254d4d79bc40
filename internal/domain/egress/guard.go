package egress

import (
	"context"
	"log/slog"
	"net"
	"net/url"
	"strings"
	"time"
)

// defaultLookupTimeout bounds how long one DNS resolution may hold up a
// request.
const defaultLookupTimeout = time.Second

// LookupFunc resolves a hostname to its addresses.
type LookupFunc func(ctx context.Context, host string) ([]net.IPAddr, error)

// Guard validates outbound URL candidates. Each check re-parses and
// re-resolves; nothing is cached between checks, so a hostname whose
// DNS answer changes is re-judged on its current addresses.
type Guard struct {
	domains *DomainSet
	lookup  LookupFunc
	timeout time.Duration
	logger  *slog.Logger
}

// GuardOption configures a Guard.
type GuardOption func(*Guard)

// WithLookupFunc sets a custom DNS lookup function (useful for testing).
func WithLookupFunc(fn LookupFunc) GuardOption {
	return func(g *Guard) {
		g.lookup = fn
	}
}

// WithLookupTimeout bounds each DNS resolution. Non-positive values
// keep the default.
func WithLookupTimeout(d time.Duration) GuardOption {
	return func(g *Guard) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// NewGuard creates a Guard checking candidates against the given
// allow-list.
func NewGuard(domains *DomainSet, logger *slog.Logger, opts ...GuardOption) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	g := &Guard{
		domains: domains,
		lookup:  net.DefaultResolver.LookupIPAddr,
		timeout: defaultLookupTimeout,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Domains returns the allow-list the guard checks against.
func (g *Guard) Domains() *DomainSet {
	return g.domains
}

// Check judges one candidate:
//
//  1. The value must parse as a URL with a hostname.
//  2. The scheme must be http or https.
//  3. The hostname must be on the allow-list. Anything not explicitly
//     allowed is rejected.
//  4. The hostname is resolved now, at validation time. Resolution
//     failure or timeout rejects: a URL that cannot be verified is
//     treated as hostile.
//  5. If ANY resolved address is private or reserved, the candidate is
//     rejected, even when other addresses are public.
func (g *Guard) Check(ctx context.Context, c Candidate) Verdict {
	u, err := url.Parse(c.Raw)
	if err != nil || u.Hostname() == "" {
		return g.reject(c, ReasonMalformed)
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return g.reject(c, ReasonScheme)
	}

	host := u.Hostname()
	if !g.domains.Contains(host) {
		return g.reject(c, ReasonDomain)
	}

	lookupCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	addrs, err := g.lookup(lookupCtx, host)
	if err != nil || len(addrs) == 0 {
		return g.reject(c, ReasonResolve)
	}

	for _, addr := range addrs {
		if IsPrivateIP(addr.IP) {
			return g.reject(c, ReasonPrivateAddress)
		}
	}

	return Verdict{Candidate: c, Safe: true}
}

func (g *Guard) reject(c Candidate, reason Reason) Verdict {
	g.logger.Debug("outbound url rejected",
		"field", c.Field,
		"reason", string(reason),
	)
	return Verdict{Candidate: c, Safe: false, Reason: reason}
}
