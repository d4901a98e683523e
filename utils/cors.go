package utils

import (
	"net/netip"
	"net/url"
	"strings"
)

// CORSPolicy decides which browser origins may call the API. Only the listed
// frontend origins are trusted unless AllowPrivate is set.
type CORSPolicy struct {
	Origins []string
	// AllowPrivate trusts localhost, .local names and loopback, private or
	// link-local addresses.
	AllowPrivate bool
}

type originSet struct {
	listed       map[string]struct{}
	allowPrivate bool
}

func newOriginSet(p CORSPolicy) originSet {
	listed := make(map[string]struct{}, len(p.Origins))
	for _, origin := range p.Origins {
		if o := normalizeOrigin(origin); o != "" {
			listed[o] = struct{}{}
		}
	}
	return originSet{listed: listed, allowPrivate: p.AllowPrivate}
}

func (s originSet) allows(origin string) bool {
	if origin == "" {
		return false
	}
	if _, ok := s.listed[normalizeOrigin(origin)]; ok {
		return true
	}
	return s.allowPrivate && IsPrivateOrigin(origin)
}

// IsPrivateOrigin reports whether the origin points at the local machine or a
// private network.
func IsPrivateOrigin(origin string) bool {
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Host == "" {
		return false
	}
	host := strings.ToLower(parsed.Hostname())
	if host == "localhost" || strings.HasSuffix(host, ".localhost") || strings.HasSuffix(host, ".local") {
		return true
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	return addr.IsLoopback() || addr.IsPrivate() || addr.IsLinkLocalUnicast()
}

// normalizeOrigin lowercases the origin and drops a trailing slash so
// configured origins compare equal to browser Origin headers.
func normalizeOrigin(origin string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(origin)), "/")
}
