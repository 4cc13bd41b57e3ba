// Location Tracker - Per-user location databases on Cloudant/CouchDB
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/locationtracker

package session

import "testing"

func TestRewriteSessionCookie(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		header string
		want   string
	}{
		{
			name:   "couchdb header",
			header: "AuthSession=YWxpY2U6NjM0Rjk; Version=1; Expires=Tue, 20-Oct-2026 12:00:00 GMT; Max-Age=86400; Path=/; HttpOnly; Secure",
			want:   "AuthSession=YWxpY2U6NjM0Rjk; Version=1; Expires=Tue, 20-Oct-2026 12:00:00 GMT; Max-Age=86400; Path=/; HttpOnly",
		},
		{
			name:   "attribute order normalised",
			header: "AuthSession=abc; Path=/; HttpOnly; Max-Age=600; Secure; Version=1",
			want:   "AuthSession=abc; Version=1; Max-Age=600; Path=/; HttpOnly",
		},
		{
			name:   "token with padding",
			header: "AuthSession=YWxp==; Path=/",
			want:   "AuthSession=YWxp==; Path=/",
		},
		{
			name:   "unknown attributes dropped",
			header: "AuthSession=abc; SameSite=Lax; Domain=example.com; Path=/",
			want:   "AuthSession=abc; Path=/",
		},
		{
			name:   "lowercase attributes",
			header: "AuthSession=abc; path=/; httponly; secure",
			want:   "AuthSession=abc; Path=/; HttpOnly",
		},
		{
			name:   "session cookie only",
			header: "AuthSession=abc",
			want:   "AuthSession=abc",
		},
		{
			name:   "no session cookie",
			header: "Other=1; Path=/",
			want:   "",
		},
		{
			name:   "empty",
			header: "",
			want:   "",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := RewriteSessionCookie(tt.header); got != tt.want {
				t.Errorf("RewriteSessionCookie() =\n  %q\nwant\n  %q", got, tt.want)
			}
		})
	}
}
