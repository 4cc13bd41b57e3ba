// Location Tracker - Per-user location databases on Cloudant/CouchDB
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/locationtracker

package session

import "strings"

// cookieAttributes are the Set-Cookie attributes kept when relaying a store
// session to the client, in output order. Secure is left out so the cookie
// also works against plain-HTTP deployments.
var cookieAttributes = []string{"Version", "Expires", "Max-Age", "Path", "HttpOnly"}

// RewriteSessionCookie rebuilds a store Set-Cookie header for the client.
// The AuthSession pair comes first, followed by Version, Expires, Max-Age,
// Path and HttpOnly when present. Secure and unknown attributes are dropped.
// The result is empty when header carries no AuthSession.
func RewriteSessionCookie(header string) string {
	values := make(map[string]string)
	flags := make(map[string]bool)
	for _, part := range strings.Split(header, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, hasValue := strings.Cut(part, "=")
		key = canonicalAttribute(strings.TrimSpace(key))
		if hasValue {
			if _, seen := values[key]; !seen {
				values[key] = strings.TrimSpace(value)
			}
		} else {
			flags[key] = true
		}
	}

	token, ok := values[AuthSessionCookie]
	if !ok {
		return ""
	}

	parts := []string{AuthSessionCookie + "=" + token}
	for _, attr := range cookieAttributes {
		if v, ok := values[attr]; ok {
			parts = append(parts, attr+"="+v)
		} else if flags[attr] {
			parts = append(parts, attr)
		}
	}
	return strings.Join(parts, "; ")
}

// canonicalAttribute maps attribute names onto their usual spelling so
// "httponly" and "HttpOnly" are treated alike. The cookie name is kept as is.
func canonicalAttribute(key string) string {
	for _, attr := range cookieAttributes {
		if strings.EqualFold(key, attr) {
			return attr
		}
	}
	return key
}
