// Package http provides the inbound HTTP transport for Admission Gate.
//
// The transport wraps an application handler with the admission chain:
// every request is identified, size-capped, scanned for unsafe outbound
// URLs, and counted against the fixed-window rate limits before the
// application sees it.
//
// # Usage
//
// Create and start a transport:
//
//	transport := http.NewTransport(admissionSvc, guardSvc, resolver,
//	    http.WithAddr(":8080"),
//	    http.WithLogger(logger),
//	    http.WithAppHandler(app),
//	    http.WithAdminHandler(adminAPI.Routes()),
//	)
//	err := transport.Start(ctx)
//
// # Endpoints
//
//	GET  /healthz        - component health (always 200; "degraded" when
//	                       the counter store is unreachable, because
//	                       admission fails open)
//	GET  /metrics        - Prometheus metrics
//	     /admin/api/v1/* - operator API (when configured)
//	     /*              - the protected application handler
//
// # Middleware Chain
//
// Application requests pass through middleware in this order:
//
//  1. MetricsMiddleware - records duration and status (outermost to
//     capture the full request)
//  2. RequestIDMiddleware - X-Request-ID in/out, enriched logger in context
//  3. SecurityHeadersMiddleware - decorates every response below it,
//     rejections included
//  4. RecovererMiddleware - panics become generic 500s
//  5. ClientIdentityMiddleware - resolves the client address from
//     trusted proxy headers
//  6. MaxBodyMiddleware - oversized requests get 413
//  7. GuardMiddleware - unsafe outbound URLs get 400
//  8. AdmissionMiddleware - exhausted budgets get 429 with Retry-After
//
// Rejection bodies are generic: they never reveal which dimension,
// allow-list entry, or validation step produced them.
package http
