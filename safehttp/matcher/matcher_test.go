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

package matcher_test

import (
	"testing"

	"github.com/google/go-safeweb-dsl/safehttp"
	"github.com/google/go-safeweb-dsl/safehttp/matcher"
	"github.com/google/go-safeweb-dsl/safehttp/safehttptest"
)

func TestPath(t *testing.T) {
	tests := []struct {
		pattern string
		path    string
		want    bool
	}{
		{"/public", "/public", true},
		{"/public", "/public/x", false},
		{"/api/*", "/api/users", true},
		{"/api/*", "/api/users/1", false},
		{"/api/**", "/api/users/1", true},
		{"/api/**", "/api", true},
		{"/api/**", "/apix", false},
		{"/**", "/", true},
		{"/**", "/a/b/c", true},
		{"/**/*.css", "/static/css/site.css", true},
		{"admin", "/admin", true},
	}
	for _, tt := range tests {
		t.Run(tt.pattern+" "+tt.path, func(t *testing.T) {
			r := safehttptest.NewRequest(safehttp.MethodGet, "http://foo.com"+tt.path, nil)
			if got := matcher.Path(tt.pattern).Match(r); got != tt.want {
				t.Errorf("Path(%q).Match(%q) got: %v want: %v", tt.pattern, tt.path, got, tt.want)
			}
		})
	}
}

func TestPathInvalidPanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error(`Path("/[") did not panic`)
		}
	}()
	matcher.Path("/[")
}

func TestPathMethod(t *testing.T) {
	m := matcher.PathMethod(safehttp.MethodPost, "/logout")
	if !m.Match(safehttptest.NewRequest(safehttp.MethodPost, "/logout", nil)) {
		t.Error("POST /logout got: no match")
	}
	if m.Match(safehttptest.NewRequest(safehttp.MethodGet, "/logout", nil)) {
		t.Error("GET /logout got: match")
	}
	if got, want := m.String(), "POST /logout"; got != want {
		t.Errorf("m.String() got: %q want: %q", got, want)
	}
}

func TestRegex(t *testing.T) {
	m := matcher.MustRegex("", `^/items/\d+\?page=\d+$`)
	if !m.Match(safehttptest.NewRequest(safehttp.MethodGet, "/items/12?page=3", nil)) {
		t.Error("regex did not match path with query")
	}
	if m.Match(safehttptest.NewRequest(safehttp.MethodGet, "/items/12", nil)) {
		t.Error("regex matched path without query")
	}
	if _, err := matcher.Regex("", "("); err == nil {
		t.Error(`Regex("(") got: nil error`)
	}
}

func TestHeader(t *testing.T) {
	r := safehttptest.NewRequest(safehttp.MethodGet, "/", nil)
	r.Header.Add("X-Requested-With", "XMLHttpRequest")

	if !matcher.Header("X-Requested-With", "").Match(r) {
		t.Error("presence match failed")
	}
	if !matcher.Header("X-Requested-With", "XMLHttpRequest").Match(r) {
		t.Error("value match failed")
	}
	if matcher.Header("X-Requested-With", "fetch").Match(r) {
		t.Error("wrong value matched")
	}
}

func TestIPAddress(t *testing.T) {
	tests := []struct {
		cidr, remote string
		want         bool
	}{
		{"192.168.1.0/24", "192.168.1.12:1234", true},
		{"192.168.1.0/24", "10.0.0.1:1234", false},
		{"127.0.0.1", "127.0.0.1:80", true},
		{"::1", "[::1]:80", true},
	}
	for _, tt := range tests {
		m, err := matcher.IPAddress(tt.cidr)
		if err != nil {
			t.Fatalf("IPAddress(%q): %v", tt.cidr, err)
		}
		r := safehttptest.NewRequest(safehttp.MethodGet, "/", nil)
		r.Request().RemoteAddr = tt.remote
		if got := m.Match(r); got != tt.want {
			t.Errorf("IPAddress(%q).Match(%q) got: %v want: %v", tt.cidr, tt.remote, got, tt.want)
		}
	}
	if _, err := matcher.IPAddress("not-an-ip"); err == nil {
		t.Error(`IPAddress("not-an-ip") got: nil error`)
	}
}

func TestCombinators(t *testing.T) {
	get := safehttptest.NewRequest(safehttp.MethodGet, "/a", nil)
	yes := matcher.Any()
	no := matcher.Not(matcher.Any())

	tests := []struct {
		name string
		m    matcher.Matcher
		want bool
	}{
		{"And all", matcher.And(yes, yes), true},
		{"And one false", matcher.And(yes, no), false},
		{"And empty", matcher.And(), true},
		{"Or one true", matcher.Or(no, yes), true},
		{"Or empty", matcher.Or(), false},
		{"Not", matcher.Not(no), true},
		{"Method", matcher.Method(safehttp.MethodGet), true},
		{"Func", matcher.Func("never", func(*safehttp.IncomingRequest) bool { return false }), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.m.Match(get); got != tt.want {
				t.Errorf("%s.Match() got: %v want: %v", tt.m, got, tt.want)
			}
		})
	}
}

func TestString(t *testing.T) {
	m := matcher.Or(matcher.Path("/a"), matcher.Not(matcher.Method(safehttp.MethodGet)))
	if got, want := m.String(), "or(path /a, not(method GET))"; got != want {
		t.Errorf("m.String() got: %q want: %q", got, want)
	}
}
