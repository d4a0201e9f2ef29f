// Package capabilities implements the ct capability policy that gates host access.
package capabilities

import (
	"fmt"
	"slices"
)

// Capability identifiers understood by the native modules.
const (
	FSRead  = "fs.read"
	FSWrite = "fs.write"
	HTTPGet = "http.get"
	ShExec  = "sh.exec"
)

// Known lists every capability a policy may mention.
var Known = []string{FSRead, FSWrite, HTTPGet, ShExec}

// Policy defines which capabilities are allowed for program execution.
type Policy struct {
	Allowed map[string]bool
}

// IsAllowed checks whether a capability is permitted by this policy.
// A nil Allowed map allows everything.
func (p *Policy) IsAllowed(cap string) bool {
	if p == nil {
		return false
	}
	if p.Allowed == nil {
		return true
	}
	return p.Allowed[cap]
}

// List returns the allowed capabilities in sorted order.
func (p *Policy) List() []string {
	if p == nil {
		return nil
	}
	if p.Allowed == nil {
		return slices.Clone(Known)
	}
	var out []string
	for _, c := range Known {
		if p.Allowed[c] {
			out = append(out, c)
		}
	}
	return out
}

// New builds a policy from allow and deny lists. Deny overrides allow.
// Unknown capability names are rejected.
func New(allow, deny []string) (*Policy, error) {
	for _, c := range slices.Concat(allow, deny) {
		if !slices.Contains(Known, c) {
			return nil, fmt.Errorf("unknown capability %q (known: %v)", c, Known)
		}
	}

	allowed := make(map[string]bool)
	for _, c := range allow {
		allowed[c] = true
	}
	for _, c := range deny {
		delete(allowed, c)
	}
	return &Policy{Allowed: allowed}, nil
}

// AllowAll returns a policy that permits all capabilities. Used for --unsafe-allow-all.
func AllowAll() *Policy {
	return &Policy{Allowed: nil}
}

// DenyAll returns a policy that denies all capabilities.
func DenyAll() *Policy {
	return &Policy{Allowed: make(map[string]bool)}
}
