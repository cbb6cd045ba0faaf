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

// Package matcher provides predicates over incoming requests. Security rules
// use them to decide which requests they apply to.
package matcher

import (
	"fmt"
	"net"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/go-safeweb-dsl/safehttp"
)

// Matcher decides whether a request is in scope.
type Matcher interface {
	Match(r *safehttp.IncomingRequest) bool
	// String describes the matcher in logs and metric labels.
	String() string
}

type anyMatcher struct{}

// Any matches every request.
func Any() Matcher {
	return anyMatcher{}
}

func (anyMatcher) Match(*safehttp.IncomingRequest) bool { return true }
func (anyMatcher) String() string { return "any request" }

type pathMatcher struct {
	method  string
	pattern string
	// prefix is set for patterns ending in "/**", which also match the bare
	// directory.
	prefix string
}

// Path matches the request path against an Ant-style pattern: "*" matches
// inside a single path segment and "**" matches any number of segments.
// "/api/**" matches "/api" as well as everything below it.
//
// Path panics on malformed patterns.
func Path(pattern string) Matcher {
	return PathMethod("", pattern)
}

// PathMethod is like Path, but also requires the request method to be method.
// An empty method matches every method.
func PathMethod(method, pattern string) Matcher {
	if !strings.HasPrefix(pattern, "/") {
		pattern = "/" + pattern
	}
	if !doublestar.ValidatePattern(pattern) {
		panic(fmt.Sprintf("matcher: invalid path pattern %q", pattern))
	}
	m := pathMatcher{method: method, pattern: pattern}
	if strings.HasSuffix(pattern, "/**") {
		m.prefix = strings.TrimSuffix(pattern, "/**")
		if m.prefix == "" {
			m.prefix = "/"
		}
	}
	return m
}

func (m pathMatcher) Match(r *safehttp.IncomingRequest) bool {
	if m.method != "" && r.Method() != m.method {
		return false
	}
	p := r.URL().Path()
	if p == "" {
		p = "/"
	}
	if m.prefix != "" && p == m.prefix {
		return true
	}
	ok, err := doublestar.Match(m.pattern, p)
	return err == nil && ok
}

func (m pathMatcher) String() string {
	if m.method == "" {
		return "path " + m.pattern
	}
	return m.method + " " + m.pattern
}

type regexMatcher struct {
	method string
	re     *regexp.Regexp
}

// Regex matches requests whose path, followed by "?" and the raw query when
// one is present, matches the regular expression. An empty method matches
// every method.
func Regex(method, expr string) (Matcher, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("matcher: compiling %q: %w", expr, err)
	}
	return regexMatcher{method: method, re: re}, nil
}

// MustRegex is like Regex but panics if the expression cannot be compiled.
func MustRegex(method, expr string) Matcher {
	m, err := Regex(method, expr)
	if err != nil {
		panic(err)
	}
	return m
}

func (m regexMatcher) Match(r *safehttp.IncomingRequest) bool {
	if m.method != "" && r.Method() != m.method {
		return false
	}
	u := r.URL()
	target := u.Path()
	if q := u.RawQuery(); q != "" {
		target += "?" + q
	}
	return m.re.MatchString(target)
}

func (m regexMatcher) String() string {
	return "regex " + m.re.String()
}

type methodMatcher string

// Method matches requests with the given HTTP method.
func Method(method string) Matcher {
	return methodMatcher(method)
}

func (m methodMatcher) Match(r *safehttp.IncomingRequest) bool {
	return r.Method() == string(m)
}

func (m methodMatcher) String() string {
	return "method " + string(m)
}

type headerMatcher struct {
	name, value string
}

// Header matches requests carrying the header name. A non-empty value must
// also be equal to one of the header values.
func Header(name, value string) Matcher {
	return headerMatcher{name: name, value: value}
}

func (m headerMatcher) Match(r *safehttp.IncomingRequest) bool {
	vs := r.Header.Values(m.name)
	if m.value == "" {
		return len(vs) > 0
	}
	for _, v := range vs {
		if v == m.value {
			return true
		}
	}
	return false
}

func (m headerMatcher) String() string {
	if m.value == "" {
		return "header " + m.name
	}
	return fmt.Sprintf("header %s=%s", m.name, m.value)
}

type ipMatcher struct {
	cidr string
	n    *net.IPNet
}

// IPAddress matches requests whose remote IP is in the CIDR range. A single
// IP address is treated as a /32 (or /128) range.
func IPAddress(cidr string) (Matcher, error) {
	n, err := parseCIDR(cidr)
	if err != nil {
		return nil, err
	}
	return ipMatcher{cidr: cidr, n: n}, nil
}

func (m ipMatcher) Match(r *safehttp.IncomingRequest) bool {
	ip := r.RemoteIP()
	return ip != nil && m.n.Contains(ip)
}

func (m ipMatcher) String() string {
	return "ip " + m.cidr
}

// parseCIDR parses a CIDR range or a single IP address.
func parseCIDR(s string) (*net.IPNet, error) {
	if !strings.Contains(s, "/") {
		ip := net.ParseIP(s)
		if ip == nil {
			return nil, fmt.Errorf("matcher: invalid IP address %q", s)
		}
		bits := 128
		if ip.To4() != nil {
			ip = ip.To4()
			bits = 32
		}
		return &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)}, nil
	}
	_, n, err := net.ParseCIDR(s)
	if err != nil {
		return nil, fmt.Errorf("matcher: %w", err)
	}
	return n, nil
}

type funcMatcher struct {
	name string
	f    func(*safehttp.IncomingRequest) bool
}

// Func adapts f to a Matcher. The name is used by String.
func Func(name string, f func(*safehttp.IncomingRequest) bool) Matcher {
	return funcMatcher{name: name, f: f}
}

func (m funcMatcher) Match(r *safehttp.IncomingRequest) bool { return m.f(r) }
func (m funcMatcher) String() string { return m.name }

type andMatcher []Matcher

// And matches when every matcher matches. And() matches everything.
func And(ms ...Matcher) Matcher {
	return andMatcher(ms)
}

func (ms andMatcher) Match(r *safehttp.IncomingRequest) bool {
	for _, m := range ms {
		if !m.Match(r) {
			return false
		}
	}
	return true
}

func (ms andMatcher) String() string {
	return join("and", ms)
}

type orMatcher []Matcher

// Or matches when at least one matcher matches. Or() matches nothing.
func Or(ms ...Matcher) Matcher {
	return orMatcher(ms)
}

func (ms orMatcher) Match(r *safehttp.IncomingRequest) bool {
	for _, m := range ms {
		if m.Match(r) {
			return true
		}
	}
	return false
}

func (ms orMatcher) String() string {
	return join("or", ms)
}

type notMatcher struct {
	m Matcher
}

// Not inverts m.
func Not(m Matcher) Matcher {
	return notMatcher{m: m}
}

func (n notMatcher) Match(r *safehttp.IncomingRequest) bool { return !n.m.Match(r) }
func (n notMatcher) String() string                        { return "not(" + n.m.String() + ")" }

func join(op string, ms []Matcher) string {
	parts := make([]string, 0, len(ms))
	for _, m := range ms {
		parts = append(parts, m.String())
	}
	return op + "(" + strings.Join(parts, ", ") + ")"
}
