// Package destination decides where a browser is sent after login or logout.
package destination

import "strings"

// Default is used whenever no usable destination was supplied
const Default = "/"

// Policy decides whether a non-empty destination may be used as a redirect target
type Policy interface {
	Allow(destination string) bool
}

// AllowAll accepts every destination
type AllowAll struct{}

// Allow implements Policy
func (AllowAll) Allow(string) bool { return true }

// PrefixPolicy accepts destinations starting with one of its prefixes
type PrefixPolicy struct {
	prefixes []string
}

// AllowPrefixes builds an accept-list policy. With no prefixes nothing but
// the default destination is reachable.
func AllowPrefixes(prefixes ...string) *PrefixPolicy {
	return &PrefixPolicy{prefixes: prefixes}
}

// Allow implements Policy
func (p *PrefixPolicy) Allow(destination string) bool {
	for _, prefix := range p.prefixes {
		if strings.HasPrefix(destination, prefix) {
			return true
		}
	}
	return false
}

// Filter normalizes client-supplied destinations
type Filter struct {
	policy Policy
}

// NewFilter creates a filter. A nil policy accepts everything.
func NewFilter(policy Policy) Filter {
	if policy == nil {
		policy = AllowAll{}
	}
	return Filter{policy: policy}
}

// Filter returns raw when present and allowed, Default otherwise.
// TODO: ship an accept-list of hosts by default once deployments declare their public origins.
func (f Filter) Filter(raw string) string {
	if raw == "" {
		return Default
	}
	if f.policy != nil && !f.policy.Allow(raw) {
		return Default
	}
	return raw
}
