package resolver

import "strings"

// TLDSet is a static set of TLDs, used for the ICANN-rooted forwarding set
// (§4.8, §6). Blacklisted TLDs are held by TLDBlocklist instead.
type TLDSet struct {
	set map[string]bool
}

// NewTLDSet builds a TLDSet from a list of TLD labels (without leading or
// trailing dots).
func NewTLDSet(tlds []string) *TLDSet {
	s := make(map[string]bool, len(tlds))
	for _, t := range tlds {
		s[strings.ToLower(strings.Trim(t, "."))] = true
	}
	return &TLDSet{set: s}
}

// Contains reports whether name's rightmost label is a member of the set.
func (s *TLDSet) Contains(name string) bool {
	if s == nil {
		return false
	}
	return s.set[tldLabel(name)]
}
