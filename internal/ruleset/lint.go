package ruleset

import (
	"github.com/miekg/dns"
)

// Lint returns the entries of domains that are not syntactically valid DNS
// names. It never changes what gets written.
func Lint(domains []string) []string {
	var bad []string
	for _, d := range domains {
		if _, ok := dns.IsDomainName(d); !ok {
			bad = append(bad, d)
		}
	}

	return bad
}
