// Copyright 2020 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package safehttp

import "testing"

func TestCookie(t *testing.T) {
	tests := []struct {
		name   string
		cookie *Cookie
		want   string
	}{
		{
			name:   "Default",
			cookie: NewCookie("foo", "bar"),
			want:   "foo=bar; HttpOnly; Secure; SameSite=Lax",
		},
		{
			name: "SameSite strict",
			cookie: func() *Cookie {
				c := NewCookie("foo", "bar")
				c.SetSameSite(SameSiteStrictMode)
				return c
			}(),
			want: "foo=bar; HttpOnly; Secure; SameSite=Strict",
		},
		{
			name: "SameSite none",
			cookie: func() *Cookie {
				c := NewCookie("foo", "bar")
				c.SetSameSite(SameSiteNoneMode)
				return c
			}(),
			want: "foo=bar; HttpOnly; Secure; SameSite=None",
		},
		{
			name: "Path, domain and max age",
			cookie: func() *Cookie {
				c := NewCookie("foo", "bar")
				c.SetPath("/")
				c.SetDomain("example.com")
				c.SetMaxAge(10)
				return c
			}(),
			want: "foo=bar; Path=/; Domain=example.com; Max-Age=10; HttpOnly; Secure; SameSite=Lax",
		},
		{
			name: "Readable by JavaScript over plain HTTP",
			cookie: func() *Cookie {
				c := NewCookie("foo", "bar")
				c.DisableHTTPOnly()
				c.DisableSecure()
				return c
			}(),
			want: "foo=bar; SameSite=Lax",
		},
		{
			name:   "Expired",
			cookie: ExpiredCookie("SESSION", "/"),
			want:   "SESSION=; Path=/; Max-Age=0; HttpOnly; Secure; SameSite=Lax",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cookie.String(); got != tt.want {
				t.Errorf("tt.cookie.String() got: %q want: %q", got, tt.want)
			}
		})
	}
}

func TestCookieValid(t *testing.T) {
	if c := NewCookie("", "x"); c.valid() {
		t.Error("NewCookie(\"\", \"x\").valid() got: true want: false")
	}
	if c := NewCookie("a", "x"); !c.valid() {
		t.Error("NewCookie(\"a\", \"x\").valid() got: false want: true")
	}
}
