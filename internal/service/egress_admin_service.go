package service

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Admission-Gate/Admissiongate/internal/adapter/outbound/domainsfile"
	"github.com/Admission-Gate/Admissiongate/internal/domain/egress"
)

// ErrInvalidDomain is returned when an admin mutation carries a value
// that is not a well-formed hostname.
var ErrInvalidDomain = errors.New("invalid domain name")

// EgressAdminService mutates the runtime allow-list on behalf of the
// admin API. Mutations validate hostnames, persist to the domains file
// when one is configured, and only then touch the live set, so a failed
// write never leaves the set ahead of the file.
type EgressAdminService struct {
	domains *egress.DomainSet
	file    *domainsfile.Store // nil disables persistence
	logger  *slog.Logger
	mu      sync.Mutex // serializes mutations against file writes
}

// NewEgressAdminService creates an EgressAdminService. file may be nil,
// in which case mutations are in-memory only and lost on restart.
func NewEgressAdminService(domains *egress.DomainSet, file *domainsfile.Store, logger *slog.Logger) *EgressAdminService {
	if logger == nil {
		logger = slog.Default()
	}
	return &EgressAdminService{
		domains: domains,
		file:    file,
		logger:  logger,
	}
}

// List returns the current allow-list, sorted.
func (s *EgressAdminService) List() []string {
	return s.domains.Snapshot()
}

// Persistent reports whether mutations survive restarts.
func (s *EgressAdminService) Persistent() bool {
	return s.file != nil
}

// Replace swaps the entire allow-list for the given hostnames and
// returns the applied list. All hostnames must validate; on any invalid
// entry nothing changes.
func (s *EgressAdminService) Replace(hosts []string) ([]string, error) {
	for _, h := range hosts {
		if !egress.ValidHost(h) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidDomain, h)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := egress.NewDomainSet(hosts).Snapshot()
	if err := s.persist(next); err != nil {
		return nil, err
	}
	s.domains.Replace(next)

	s.logger.Info("allow-list replaced", "domains", len(next))
	return next, nil
}

// Add inserts one hostname. Reports whether the set changed.
func (s *EgressAdminService) Add(host string) (bool, error) {
	if !egress.ValidHost(host) {
		return false, fmt.Errorf("%w: %q", ErrInvalidDomain, host)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.domains.Contains(host) {
		return false, nil
	}
	next := egress.NewDomainSet(append(s.domains.Snapshot(), host)).Snapshot()
	if err := s.persist(next); err != nil {
		return false, err
	}
	s.domains.Add(host)

	s.logger.Info("allow-list domain added", "domain", host)
	return true, nil
}

// Remove deletes one hostname. Reports whether the set changed.
func (s *EgressAdminService) Remove(host string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.domains.Contains(host) {
		return false, nil
	}
	target := egress.NormalizeHost(host)
	kept := make([]string, 0, s.domains.Len())
	for _, h := range s.domains.Snapshot() {
		if h != target {
			kept = append(kept, h)
		}
	}
	if err := s.persist(kept); err != nil {
		return false, err
	}
	s.domains.Remove(host)

	s.logger.Info("allow-list domain removed", "domain", host)
	return true, nil
}

// persist writes the prospective list to the domains file. No-op when
// persistence is not configured.
func (s *EgressAdminService) persist(hosts []string) error {
	if s.file == nil {
		return nil
	}
	if err := s.file.Save(hosts); err != nil {
		s.logger.Error("failed to persist allow-list", "error", err)
		return fmt.Errorf("persist allow-list: %w", err)
	}
	return nil
}
