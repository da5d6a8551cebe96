package crypto

import (
	"regexp"
	"strings"
	"sync"
)

var (
	nameRe      = regexp.MustCompile(`^[a-z0-9]{1,64}$`)
	fetchNameRe = regexp.MustCompile(`^(?:xn--)?[a-z0-9]{1,64}$`)
	metanameRe  = regexp.MustCompile(`^[a-z0-9-_]{1,32}$`)
	metadataRe  = regexp.MustCompile(`^[\x20-\x7F\n]+$`)
	aRecordRe   = regexp.MustCompile(`^[^\s.?#].[^\s]*$`)
	v1AddressRe = regexp.MustCompile(`^[a-f0-9]{10}$`)

	v2AddressRes sync.Map // prefix -> *regexp.Regexp
)

func v2AddressRe(prefix string) *regexp.Regexp {
	if re, ok := v2AddressRes.Load(prefix); ok {
		return re.(*regexp.Regexp)
	}
	re := regexp.MustCompile(`^` + regexp.QuoteMeta(prefix) + `[a-z0-9]{9}$`)
	v2AddressRes.Store(prefix, re)
	return re
}

// IsValidV2Address reports whether addr is a well-formed v2 address for
// the given prefix.
func IsValidV2Address(prefix, addr string) bool {
	return v2AddressRe(prefix).MatchString(addr)
}

// IsValidAddress reports whether addr is a well-formed address, v2 or
// the ten digit hex form of the first network generation.
func IsValidAddress(prefix, addr string) bool {
	return IsValidV2Address(prefix, addr) || v1AddressRe.MatchString(addr)
}

// IsValidName reports whether s is a registrable name, without suffix.
func IsValidName(s string) bool {
	return nameRe.MatchString(s)
}

// IsValidFetchName reports whether s may be used to look a name up.
// Lookups additionally accept the punycode prefix.
func IsValidFetchName(s string) bool {
	return fetchNameRe.MatchString(s)
}

// IsValidMetaname reports whether s may appear before the @ in a name
// transfer target.
func IsValidMetaname(s string) bool {
	return metanameRe.MatchString(s)
}

// IsValidMetadata reports whether s is acceptable transaction metadata:
// printable ASCII plus newline, at most max bytes.
func IsValidMetadata(s string, max int) bool {
	return len(s) <= max && metadataRe.MatchString(s)
}

// IsValidARecord reports whether s is an acceptable name data record.
func IsValidARecord(s string, max int) bool {
	return len(s) <= max && aRecordRe.MatchString(s)
}

// CleanName lowercases a name and strips the network suffix if present,
// returning the registrable form.
func CleanName(s, suffix string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.TrimSuffix(s, "."+suffix)
}
