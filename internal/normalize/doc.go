// Package normalize maps the raw keys of a parsed credit report onto the
// closed canonical schema of domain.NormalizedRecord.
//
// Every section has its own tables. A raw key goes through an optional
// pre-correction on the raw label, Standardize, an optional post-correction
// and finally a vocabulary membership test; keys that fail the test are
// dropped along with missing values. Adjudicated income and expense lines
// that neither match nor have a correction fall back to LongestPrefixMatch.
package normalize
