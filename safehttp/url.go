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

import "net/url"

// URL represents a parsed URL (technically, a URI reference).
type URL struct {
	url *url.URL
}

// Query parses the query string in the URL and returns a form
// containing its values. The returned error describes the first
// decoding error encountered, if any.
func (u URL) Query() (Form, error) {
	v, err := url.ParseQuery(u.url.RawQuery)
	if err != nil {
		return Form{}, err
	}
	return Form{values: v}, nil
}

// RawQuery returns the encoded query values, without the leading '?'.
func (u URL) RawQuery() string {
	return u.url.RawQuery
}

// String reassembles the URL into a valid URL string.
func (u URL) String() string {
	return u.url.String()
}

// Host returns the host or the host:port of the URL.
func (u URL) Host() string {
	return u.url.Host
}

// Hostname returns the host of the URL, stripping any valid port number.
func (u URL) Hostname() string {
	return u.url.Hostname()
}

// Port returns the port part of the URL, or the empty string.
func (u URL) Port() string {
	return u.url.Port()
}

// Path returns the decoded path of the URL.
func (u URL) Path() string {
	return u.url.Path
}

// RequestURI returns the encoded path?query that would be used in an HTTP
// request for u.
func (u URL) RequestURI() string {
	return u.url.RequestURI()
}

// Parse parses a rawURL string into a URL structure.
//
// The rawURL may be relative (a path, without a host) or absolute (starting
// with a scheme).
func Parse(rawURL string) (*URL, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	return &URL{url: parsed}, nil
}
