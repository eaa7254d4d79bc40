package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Admission-Gate/Admissiongate/internal/domain/admission"
	"github.com/Admission-Gate/Admissiongate/internal/domain/identity"
)

// Per-dimension defaults when no option overrides them.
const (
	defaultIPLimit      = 100
	defaultUserLimit    = 1000
	defaultGrace        = 10 * time.Second
	defaultStoreTimeout = time.Second
)

// AdmissionService decides whether requests may proceed under the
// fixed-window budget. Every request increments up to three counters
// (IP, route, user) in one store round trip; the decision compares each
// post-increment value against its dimension's limit.
//
// Store outages fail OPEN: the request is admitted uncounted and the
// decision is flagged so telemetry can tell it apart from a normal
// allow. Availability of the protected service outranks strict
// enforcement during a dependency outage.
type AdmissionService struct {
	store        admission.CounterStore
	table        *admission.PolicyTable
	violations   *admission.ViolationLog
	logger       *slog.Logger
	tracer       trace.Tracer
	ipLimit      int
	userLimit    int
	grace        time.Duration
	storeTimeout time.Duration
	now          func() time.Time
}

// AdmissionOption configures an AdmissionService.
type AdmissionOption func(*AdmissionService)

// WithIPLimit sets the per-IP dimension limit.
func WithIPLimit(n int) AdmissionOption {
	return func(s *AdmissionService) {
		if n > 0 {
			s.ipLimit = n
		}
	}
}

// WithUserLimit sets the per-user dimension limit.
func WithUserLimit(n int) AdmissionOption {
	return func(s *AdmissionService) {
		if n > 0 {
			s.userLimit = n
		}
	}
}

// WithGrace sets how long counters outlive their window before the
// store may drop them.
func WithGrace(d time.Duration) AdmissionOption {
	return func(s *AdmissionService) {
		if d > 0 {
			s.grace = d
		}
	}
}

// WithStoreTimeout bounds each store call. A store slower than this is
// treated as unreachable.
func WithStoreTimeout(d time.Duration) AdmissionOption {
	return func(s *AdmissionService) {
		if d > 0 {
			s.storeTimeout = d
		}
	}
}

// WithClock sets the time source (useful for testing window math).
func WithClock(now func() time.Time) AdmissionOption {
	return func(s *AdmissionService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithTracer sets the tracer used for admission spans.
func WithTracer(tr trace.Tracer) AdmissionOption {
	return func(s *AdmissionService) {
		if tr != nil {
			s.tracer = tr
		}
	}
}

// NewAdmissionService creates an AdmissionService.
func NewAdmissionService(
	store admission.CounterStore,
	table *admission.PolicyTable,
	violations *admission.ViolationLog,
	logger *slog.Logger,
	opts ...AdmissionOption,
) *AdmissionService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &AdmissionService{
		store:        store,
		table:        table,
		violations:   violations,
		logger:       logger,
		tracer:       otel.Tracer("admission-gate"),
		ipLimit:      defaultIPLimit,
		userLimit:    defaultUserLimit,
		grace:        defaultGrace,
		storeTimeout: defaultStoreTimeout,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// dimensionCheck pairs one counter dimension with its value and limit.
type dimensionCheck struct {
	dim   admission.Dimension
	value string
	limit int
}

// checksFor builds the dimension checks for a request, in evaluation
// order: IP, route, user. The user dimension exists only for
// authenticated requests.
func (s *AdmissionService) checksFor(id identity.ClientIdentity, route string, routeLimit int) []dimensionCheck {
	checks := []dimensionCheck{
		{admission.DimensionIP, id.Addr, s.ipLimit},
		{admission.DimensionRoute, route, routeLimit},
	}
	if id.Subject != nil {
		checks = append(checks, dimensionCheck{admission.DimensionUser, strconv.FormatInt(*id.Subject, 10), s.userLimit})
	}
	return checks
}

// Admit counts the request on every applicable dimension and decides.
// Denials report the first exceeded dimension in IP, route, user order
// and are appended to the violation log best-effort.
func (s *AdmissionService) Admit(ctx context.Context, id identity.ClientIdentity, route string) admission.Decision {
	policy := s.table.PolicyFor(route)
	windowStart := admission.WindowStart(s.now(), policy.Window)
	checks := s.checksFor(id, route, policy.Limit)

	keys := make([]string, len(checks))
	for i, c := range checks {
		keys[i] = admission.Key(c.dim, c.value, windowStart)
	}

	ctx, span := s.tracer.Start(ctx, "admission.admit",
		trace.WithAttributes(attribute.String("admission.route", route)))
	defer span.End()

	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	counts, err := s.store.IncrementBatch(storeCtx, keys, policy.Window+s.grace)
	if err != nil {
		s.logger.Warn("counter store unavailable, admitting uncounted",
			"route", route,
			"error", err)
		span.SetAttributes(attribute.Bool("admission.fail_open", true))
		return admission.Decision{Allowed: true, FailOpen: true}
	}

	for i, c := range checks {
		if counts[i] <= int64(c.limit) {
			continue
		}
		span.SetAttributes(
			attribute.Bool("admission.allowed", false),
			attribute.String("admission.dimension", string(c.dim)),
		)
		s.violations.Append(admission.ViolationRecord{
			Identity:  id.Addr,
			Subject:   id.Subject,
			Route:     route,
			Dimension: c.dim,
			Count:     counts[i],
			Limit:     c.limit,
			At:        s.now(),
		})
		return admission.Decision{
			Allowed:    false,
			Dimension:  c.dim,
			Limit:      c.limit,
			Count:      counts[i],
			RetryAfter: policy.Window,
		}
	}

	span.SetAttributes(attribute.Bool("admission.allowed", true))
	return admission.Decision{Allowed: true}
}

// Status reports the caller's remaining budget on a route without
// incrementing anything. Used is the highest of the caller's IP and
// user counters; the limit is the route policy's. Unlike Admit, a store
// failure is returned: this is a diagnostic read, nothing depends on it
// staying available.
func (s *AdmissionService) Status(ctx context.Context, id identity.ClientIdentity, route string) (admission.Status, error) {
	policy := s.table.PolicyFor(route)
	windowStart := admission.WindowStart(s.now(), policy.Window)

	keys := []string{admission.Key(admission.DimensionIP, id.Addr, windowStart)}
	if id.Subject != nil {
		keys = append(keys, admission.Key(admission.DimensionUser, strconv.FormatInt(*id.Subject, 10), windowStart))
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	counts, err := s.store.Counts(storeCtx, keys)
	if err != nil {
		return admission.Status{}, fmt.Errorf("counter store read: %w", err)
	}

	var used int64
	for _, c := range counts {
		if c > used {
			used = c
		}
	}
	remaining := int64(policy.Limit) - used
	if remaining < 0 {
		remaining = 0
	}

	return admission.Status{
		Limit:     policy.Limit,
		Used:      used,
		Remaining: remaining,
		ResetTime: windowStart + int64(policy.Window/time.Second),
	}, nil
}

// Violations exposes the denial ring buffer for the admin surface.
func (s *AdmissionService) Violations() *admission.ViolationLog {
	return s.violations
}
