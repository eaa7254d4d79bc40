package egress

import (
	"net/url"
	"strings"
)

// DefaultParamKeys are the request field names scanned for URLs.
var DefaultParamKeys = []string{"url", "link", "redirect", "callback"}

// KeySet is a case-insensitive set of field names to scan.
type KeySet map[string]struct{}

// NewKeySet builds a KeySet from field names. An empty list falls back
// to DefaultParamKeys.
func NewKeySet(keys []string) KeySet {
	if len(keys) == 0 {
		keys = DefaultParamKeys
	}
	s := make(KeySet, len(keys))
	for _, k := range keys {
		s[strings.ToLower(k)] = struct{}{}
	}
	return s
}

func (s KeySet) match(key string) bool {
	_, ok := s[strings.ToLower(key)]
	return ok
}

// ExtractQuery collects candidates from query parameters whose name is
// in the key set. Every value of a repeated parameter is a candidate.
func ExtractQuery(values url.Values, keys KeySet) []Candidate {
	var out []Candidate
	for name, vals := range values {
		if !keys.match(name) {
			continue
		}
		for _, v := range vals {
			out = append(out, Candidate{Field: name, Raw: v})
		}
	}
	return out
}

// ExtractBody collects candidates from the top-level string fields of a
// decoded JSON object whose name is in the key set. Nested objects and
// arrays are not descended into.
func ExtractBody(body map[string]any, keys KeySet) []Candidate {
	var out []Candidate
	for name, val := range body {
		if !keys.match(name) {
			continue
		}
		if s, ok := val.(string); ok {
			out = append(out, Candidate{Field: name, Raw: s})
		}
	}
	return out
}
