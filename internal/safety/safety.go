// Package safety holds the compliance rules the assistant operates under:
// job discovery goes through board APIs, browser assistance only opens
// allowlisted domains, and the user always clicks submit themselves.
package safety

import (
	"net/url"
	"strings"
)

// IsDomainAllowed reports whether the URL's host matches the comma-separated
// allowlist, either exactly or as a subdomain. A leading "www." on the host
// is ignored. Unparseable URLs are never allowed.
func IsDomainAllowed(rawURL, allowlistCSV string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")
	if host == "" {
		return false
	}

	for _, entry := range strings.Split(allowlistCSV, ",") {
		domain := strings.ToLower(strings.TrimSpace(entry))
		if domain == "" {
			continue
		}
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

// ParseCountries splits a comma-separated country list into trimmed
// upper-case codes, dropping empty entries.
func ParseCountries(csv string) []string {
	var out []string
	for _, entry := range strings.Split(csv, ",") {
		code := strings.ToUpper(strings.TrimSpace(entry))
		if code != "" {
			out = append(out, code)
		}
	}
	return out
}
