package ruleset

import (
	"slices"
)

// BuiltinDomains are reserved and infrastructure suffixes that always route
// directly, independent of the upstream list.
func BuiltinDomains() []string {
	return []string{
		// RFC / IANA reserved
		"localhost",
		"local",
		"localdomain",
		"lan",

		// ARPA
		"home.arpa",
		"in-addr.arpa",
		"ip6.arpa",

		// RFC 2606 / 6761
		"test",
		"example",
		"invalid",
	}
}

// Aggregate concatenates parsed and builtin, then returns the sorted,
// duplicate-free union. Neither input is modified.
func Aggregate(parsed, builtin []string) []string {
	out := make([]string, 0, len(parsed)+len(builtin))
	out = append(out, parsed...)
	out = append(out, builtin...)

	slices.Sort(out)

	return slices.Compact(out)
}
