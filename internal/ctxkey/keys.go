// Package ctxkey defines shared context key types used across multiple packages.
// This package should have no dependencies on other internal packages to avoid import cycles.
package ctxkey

// LoggerKey is the context key type for the enriched logger.
// Used by HTTP middleware to store and retrieve the logger with the request_id field.
type LoggerKey struct{}

// IdentityKey is the context key type for the resolved client identity.
// Set once per request by the identity middleware and read by the
// admission and admin layers.
type IdentityKey struct{}

// SubjectKey is the context key type for the authenticated subject ID.
// The embedding application's auth layer sets it before the admission
// middleware runs; absence means the request is anonymous.
type SubjectKey struct{}
