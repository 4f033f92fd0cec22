// Package admin holds the super-admin authorization policy. It is a plain
// predicate so a future role/claims check can replace it without touching
// call sites.
package admin

import "strings"

// Policy authorizes admin access by exact email allow-list or by email
// domain suffix. Matching is case-insensitive.
type Policy struct {
	emails map[string]bool
	domain string
}

func NewPolicy(emails []string, domain string) *Policy {
	p := &Policy{
		emails: make(map[string]bool, len(emails)),
		domain: strings.ToLower(strings.TrimSpace(domain)),
	}
	for _, e := range emails {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			p.emails[e] = true
		}
	}
	return p
}

// IsAuthorized reports whether the identity may use the admin surface.
func (p *Policy) IsAuthorized(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false
	}
	if p.emails[email] {
		return true
	}
	return p.domain != "" && strings.HasSuffix(email, "@"+p.domain)
}
