package service

import (
	"context"
	"log/slog"
	"net/url"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Admission-Gate/Admissiongate/internal/domain/egress"
)

// EgressGuardService scans requests for outbound URL candidates and
// judges each against the guard. Checks run sequentially and stop at
// the first unsafe candidate; one bad URL rejects the whole request, so
// the rest need no DNS work.
type EgressGuardService struct {
	guard  *egress.Guard
	keys   egress.KeySet
	logger *slog.Logger
	tracer trace.Tracer
}

// EgressOption configures an EgressGuardService.
type EgressOption func(*EgressGuardService)

// WithEgressTracer sets the tracer used for guard spans.
func WithEgressTracer(tr trace.Tracer) EgressOption {
	return func(s *EgressGuardService) {
		if tr != nil {
			s.tracer = tr
		}
	}
}

// NewEgressGuardService creates an EgressGuardService scanning the
// given field names (nil means egress.DefaultParamKeys).
func NewEgressGuardService(guard *egress.Guard, paramKeys []string, logger *slog.Logger, opts ...EgressOption) *EgressGuardService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &EgressGuardService{
		guard:  guard,
		keys:   egress.NewKeySet(paramKeys),
		logger: logger,
		tracer: otel.Tracer("admission-gate"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IsSafe judges a single URL value.
func (s *EgressGuardService) IsSafe(ctx context.Context, raw string) egress.Verdict {
	return s.check(ctx, egress.Candidate{Field: "url", Raw: raw})
}

// Scan extracts candidates from query parameters and the top level of a
// decoded JSON object body, then checks them. The returned verdicts end
// at the first unsafe candidate; a scan of a clean request returns one
// verdict per candidate, all safe.
func (s *EgressGuardService) Scan(ctx context.Context, query url.Values, body map[string]any) []egress.Verdict {
	candidates := egress.ExtractQuery(query, s.keys)
	candidates = append(candidates, egress.ExtractBody(body, s.keys)...)
	if len(candidates) == 0 {
		return nil
	}

	verdicts := make([]egress.Verdict, 0, len(candidates))
	for _, c := range candidates {
		v := s.check(ctx, c)
		verdicts = append(verdicts, v)
		if !v.Safe {
			break
		}
	}
	return verdicts
}

// Domains exposes the allow-list for the admin surface.
func (s *EgressGuardService) Domains() *egress.DomainSet {
	return s.guard.Domains()
}

func (s *EgressGuardService) check(ctx context.Context, c egress.Candidate) egress.Verdict {
	ctx, span := s.tracer.Start(ctx, "egress.check",
		trace.WithAttributes(attribute.String("egress.field", c.Field)))
	defer span.End()

	v := s.guard.Check(ctx, c)
	span.SetAttributes(attribute.Bool("egress.safe", v.Safe))
	if !v.Safe {
		span.SetAttributes(attribute.String("egress.reason", string(v.Reason)))
		s.logger.Info("outbound url blocked",
			"field", c.Field,
			"reason", string(v.Reason))
	}
	return v
}
