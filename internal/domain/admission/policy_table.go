package admission

import (
	"sort"
	"strings"
	"time"
)

// PolicyTable resolves a route to its rate policy. Exact patterns win
// over prefix patterns; among prefix patterns the longest match wins;
// everything else gets the default policy. The table is immutable after
// construction.
type PolicyTable struct {
	exact    map[string]Policy
	prefixes []Policy // sorted by descending prefix length
	fallback Policy
}

// NewPolicyTable builds a table from explicit policies and a default.
// Policies with a zero window inherit the default window. Prefix
// patterns end in "/*"; all other patterns match exactly.
func NewPolicyTable(policies []Policy, fallback Policy) *PolicyTable {
	t := &PolicyTable{
		exact:    make(map[string]Policy, len(policies)),
		fallback: fallback,
	}
	for _, p := range policies {
		if p.Window <= 0 {
			p.Window = fallback.Window
		}
		if strings.HasSuffix(p.Route, "/*") {
			t.prefixes = append(t.prefixes, p)
			continue
		}
		t.exact[p.Route] = p
	}
	sort.SliceStable(t.prefixes, func(i, j int) bool {
		return len(t.prefixes[i].Route) > len(t.prefixes[j].Route)
	})
	return t
}

// PolicyFor returns the policy governing a route.
func (t *PolicyTable) PolicyFor(route string) Policy {
	if p, ok := t.exact[route]; ok {
		return p
	}
	for _, p := range t.prefixes {
		if strings.HasPrefix(route, strings.TrimSuffix(p.Route, "*")) {
			return p
		}
	}
	p := t.fallback
	p.Route = route
	return p
}

// Window returns the window of the policy governing a route.
func (t *PolicyTable) Window(route string) time.Duration {
	return t.PolicyFor(route).Window
}
