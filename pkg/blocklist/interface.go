// Package blocklist defines where the upstream dnsmasq domain list comes from.
package blocklist

import "context"

// DefaultURL is the dnsmasq-china-list file the rule-set is generated from.
const DefaultURL = "https://raw.githubusercontent.com/felixonmars/dnsmasq-china-list/master/accelerated-domains.china.conf"

// Source returns the raw upstream list. Implementations fail the whole call
// on any transport or status error; they never retry.
//
//go:generate mockgen -package mockblocklist -source=interface.go -destination=mock/mockblocklist.go *
type Source interface {
	// Fetch returns the complete list body.
	Fetch(ctx context.Context) ([]byte, error)
	// Location describes where the list is read from, for logging.
	Location() string
}
