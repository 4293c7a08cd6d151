// Package ruleset builds the sing-box source rule-set document from parsed
// domains: it merges the built-in reserved suffixes, deduplicates and sorts,
// and encodes the result deterministically so repeated runs over the same
// input produce byte-identical files.
package ruleset
