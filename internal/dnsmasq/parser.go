// Package dnsmasq extracts domain tokens from dnsmasq server directives.
package dnsmasq

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// serverRe matches exactly one domain segment of "server=/<domain>/<resolver>".
var serverRe = regexp.MustCompile(`^server=/([^/]+)/`) //nolint: gochecknoglobals

const maxLineLength = 1 << 20

// Stats counts what the parser saw. Lines = Blank + Comments + Skipped + Matched.
type Stats struct {
	Lines    int
	Blank    int
	Comments int
	Skipped  int
	Matched  int
}

// Parse returns the domains of every server directive in r, in input order
// and with duplicates preserved. See ParseWithStats.
func Parse(r io.Reader) ([]string, error) {
	domains, _, err := ParseWithStats(r)

	return domains, err
}

// ParseWithStats scans r line by line. Blank lines and lines starting with
// '#' are ignored, lines not matching the server grammar are skipped.
// Matched domains are lower-cased and lose one leading "www.".
func ParseWithStats(r io.Reader) ([]string, Stats, error) {
	var (
		domains []string
		stats   Stats
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)
	for scanner.Scan() {
		stats.Lines++

		// surrounding whitespace is ignored, so indented directives match too
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			stats.Blank++

			continue
		case strings.HasPrefix(line, "#"):
			stats.Comments++

			continue
		}

		domain, ok := Domain(line)
		if !ok {
			stats.Skipped++

			continue
		}
		stats.Matched++
		domains = append(domains, domain)
	}
	if err := scanner.Err(); err != nil {
		return nil, stats, fmt.Errorf("could not scan line %d: %w", stats.Lines+1, err)
	}

	return domains, stats, nil
}

// ParseBytes is Parse over an in-memory body.
func ParseBytes(b []byte) ([]string, Stats, error) {
	return ParseWithStats(bytes.NewReader(b))
}

// Domain extracts the normalized domain of a single server directive.
func Domain(line string) (string, bool) {
	m := serverRe.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}

	domain := strings.TrimPrefix(strings.ToLower(m[1]), "www.")
	if domain == "" {
		return "", false
	}

	return domain, true
}
