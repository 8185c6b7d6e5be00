package util

import (
	"net/url"
	"regexp"
	"strings"
)

// bareDomainRe matches free-text domains like "smile-dental.co.uk/contact"
// that appear on detail pages without an anchor around them.
var bareDomainRe = regexp.MustCompile(`(?i)\b(?:[a-z0-9][a-z0-9-]*\.)+[a-z]{2,}(?:/[^\s"'<>]*)?`)

// Hosts that are part of the mapping service or generic platforms; an
// outbound link to one of these is never the business's own website.
var websiteHostBlocklist = []string{
	"google.com",
	"googleusercontent.com",
	"gstatic.com",
	"googleapis.com",
	"facebook.com",
	"instagram.com",
	"youtube.com",
	"twitter.com",
	"linkedin.com",
	"wa.me",
	"whatsapp.com",
	"goo.gl",
	"maps.app.goo.gl",
}

func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(s)
}

// NormalizeWebsiteURL turns a candidate website reference (href or bare
// domain text) into an https:// URL, or "" if it doesn't survive a
// permissive shape check.
func NormalizeWebsiteURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	if u.User != nil {
		// userinfo means the candidate was an email or credential-bearing
		// URL, not a website
		return ""
	}
	host := strings.ToLower(u.Hostname())
	if host == "" || !strings.Contains(host, ".") {
		return ""
	}
	if IsBlockedWebsiteHost(host) {
		return ""
	}

	u.Scheme = "https"
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	return u.String()
}

// FindBareDomain scans free text for the first domain-shaped substring that
// normalizes to an acceptable website URL.
func FindBareDomain(text string) string {
	for _, m := range bareDomainRe.FindAllString(text, 8) {
		if w := NormalizeWebsiteURL(m); w != "" {
			return w
		}
	}
	return ""
}

func IsBlockedWebsiteHost(host string) bool {
	host = strings.ToLower(strings.TrimPrefix(host, "www."))
	for _, b := range websiteHostBlocklist {
		if host == b || strings.HasSuffix(host, "."+b) {
			return true
		}
	}
	return false
}

// HostOf returns the lowercase hostname of a URL, "" if unparseable.
func HostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
