package egress

import (
	"regexp"
	"sort"
	"strings"
	"sync"
)

// DomainSet is the set of hostnames outbound fetches may target.
// Membership is case-insensitive and exact: "api.example.com" does not
// admit "example.com" or "sub.api.example.com". The set is the only
// admission-layer state mutable at runtime; mutation happens through
// the admin API under the write lock while request-path checks hold
// read locks.
type DomainSet struct {
	mu      sync.RWMutex
	domains map[string]struct{}
}

// NewDomainSet builds a set from the given hostnames.
func NewDomainSet(hosts []string) *DomainSet {
	s := &DomainSet{domains: make(map[string]struct{}, len(hosts))}
	for _, h := range hosts {
		if h = normalizeHost(h); h != "" {
			s.domains[h] = struct{}{}
		}
	}
	return s
}

// Contains reports whether host is on the allow-list.
func (s *DomainSet) Contains(host string) bool {
	host = normalizeHost(host)
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.domains[host]
	return ok
}

// Add inserts a hostname. Reports whether the set changed.
func (s *DomainSet) Add(host string) bool {
	host = normalizeHost(host)
	if host == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.domains[host]; ok {
		return false
	}
	s.domains[host] = struct{}{}
	return true
}

// Remove deletes a hostname. Reports whether the set changed.
func (s *DomainSet) Remove(host string) bool {
	host = normalizeHost(host)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.domains[host]; !ok {
		return false
	}
	delete(s.domains, host)
	return true
}

// Replace swaps the entire set for the given hostnames.
func (s *DomainSet) Replace(hosts []string) {
	next := make(map[string]struct{}, len(hosts))
	for _, h := range hosts {
		if h = normalizeHost(h); h != "" {
			next[h] = struct{}{}
		}
	}
	s.mu.Lock()
	s.domains = next
	s.mu.Unlock()
}

// Snapshot returns the current hostnames, sorted.
func (s *DomainSet) Snapshot() []string {
	s.mu.RLock()
	hosts := make([]string, 0, len(s.domains))
	for h := range s.domains {
		hosts = append(hosts, h)
	}
	s.mu.RUnlock()
	sort.Strings(hosts)
	return hosts
}

// Len returns the number of hostnames in the set.
func (s *DomainSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.domains)
}

func normalizeHost(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}

// NormalizeHost lowercases and trims a hostname the same way set
// membership does.
func NormalizeHost(h string) string {
	return normalizeHost(h)
}

// hostnamePattern matches RFC 1123 hostnames: dot-separated labels of
// letters, digits, and hyphens, each label at most 63 characters and
// not starting or ending with a hyphen.
var hostnamePattern = regexp.MustCompile(`^([a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?\.)*[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)

// ValidHost reports whether host is a well-formed hostname after
// normalization. Admin mutations reject anything else so the set never
// holds entries no URL host could match.
func ValidHost(host string) bool {
	host = normalizeHost(host)
	if host == "" || len(host) > 253 {
		return false
	}
	return hostnamePattern.MatchString(host)
}
