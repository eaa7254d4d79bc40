// Package identity resolves the client identity used for admission decisions.
//
// The resolver unwinds proxy headers deterministically so that the same
// request always yields the same identity. Header values are treated as
// opaque strings; no IP parsing or canonicalization is applied.
package identity

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/Admission-Gate/Admissiongate/internal/ctxkey"
)

// UnknownAddress is the sentinel network address used when no other
// source yields a value. Requests carrying it share one rate bucket.
const UnknownAddress = "unknown"

// DefaultTrustedHeaders are the edge-proxy headers consulted before
// X-Forwarded-For, in priority order. Each is expected to be set by a
// trusted reverse proxy, never by the client directly.
var DefaultTrustedHeaders = []string{
	"CF-Connecting-IP",
	"True-Client-IP",
	"X-Real-IP",
}

// ClientIdentity is the per-request identity admission decisions key on.
type ClientIdentity struct {
	// Addr is the resolved network address, or UnknownAddress.
	Addr string
	// Subject is the authenticated subject ID, nil for anonymous requests.
	Subject *int64
}

// Resolver resolves a ClientIdentity from an incoming request.
type Resolver struct {
	trusted []string
}

// NewResolver builds a Resolver consulting the given trusted headers in
// order. An empty list falls back to DefaultTrustedHeaders.
func NewResolver(trustedHeaders []string) *Resolver {
	if len(trustedHeaders) == 0 {
		trustedHeaders = DefaultTrustedHeaders
	}
	return &Resolver{trusted: trustedHeaders}
}

// Resolve determines the client identity for a request.
//
// Resolution order:
//  1. The first non-empty trusted edge header, verbatim.
//  2. The LAST entry of X-Forwarded-For. Clients can prepend arbitrary
//     entries but cannot control the one appended by the trusted edge.
//  3. The host part of the transport remote address.
//  4. UnknownAddress.
//
// The subject ID, if any, is read from the request context (see
// WithSubject).
func (re *Resolver) Resolve(r *http.Request) ClientIdentity {
	id := ClientIdentity{Addr: re.resolveAddr(r)}
	if sub, ok := SubjectFromContext(r.Context()); ok {
		id.Subject = &sub
	}
	return id
}

func (re *Resolver) resolveAddr(r *http.Request) string {
	for _, h := range re.trusted {
		if v := strings.TrimSpace(r.Header.Get(h)); v != "" {
			return v
		}
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		for i := len(parts) - 1; i >= 0; i-- {
			if v := strings.TrimSpace(parts[i]); v != "" {
				return v
			}
		}
	}

	if r.RemoteAddr != "" {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			// RemoteAddr without a port, use as-is.
			return r.RemoteAddr
		}
		return host
	}

	return UnknownAddress
}

// WithSubject returns a context carrying the authenticated subject ID.
// The embedding application's auth layer calls this before the admission
// middleware runs.
func WithSubject(ctx context.Context, subject int64) context.Context {
	return context.WithValue(ctx, ctxkey.SubjectKey{}, subject)
}

// SubjectFromContext retrieves the authenticated subject ID, if any.
func SubjectFromContext(ctx context.Context) (int64, bool) {
	sub, ok := ctx.Value(ctxkey.SubjectKey{}).(int64)
	return sub, ok
}

// WithIdentity returns a context carrying a resolved client identity.
func WithIdentity(ctx context.Context, id ClientIdentity) context.Context {
	return context.WithValue(ctx, ctxkey.IdentityKey{}, id)
}

// FromContext retrieves the client identity stored by the identity
// middleware. The second return is false when no middleware ran.
func FromContext(ctx context.Context) (ClientIdentity, bool) {
	id, ok := ctx.Value(ctxkey.IdentityKey{}).(ClientIdentity)
	return id, ok
}
