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

// Package httpsredirect redirects plain HTTP requests to HTTPS.
package httpsredirect

import (
	"net"
	"strconv"

	"go.uber.org/zap"

	"github.com/google/go-safeweb-dsl/safehttp"
	"github.com/google/go-safeweb-dsl/safehttp/auth"
	"github.com/google/go-safeweb-dsl/safehttp/matcher"
)

// PortMapper maps HTTP ports to their HTTPS counterparts.
type PortMapper map[int]int

// DefaultPortMapper maps 80 to 443 and 8080 to 8443.
func DefaultPortMapper() PortMapper {
	return PortMapper{80: 443, 8080: 8443}
}

// HTTPSPort returns the HTTPS port for httpPort.
func (m PortMapper) HTTPSPort(httpPort int) (int, bool) {
	p, ok := m[httpPort]
	return p, ok
}

// Interceptor answers insecure requests with 301 Moved Permanently to the
// same URL over https.
type Interceptor struct {
	// PortMapper defaults to DefaultPortMapper.
	PortMapper PortMapper
	// Matchers restrict the redirect to the requests matching any of them.
	// When empty, every insecure request is redirected.
	Matchers []matcher.Matcher
	Logger   *zap.Logger
}

var _ safehttp.Interceptor = Interceptor{}

func (it Interceptor) applies(r *safehttp.IncomingRequest) bool {
	if r.IsSecure() {
		return false
	}
	if len(it.Matchers) == 0 {
		return true
	}
	for _, m := range it.Matchers {
		if m.Match(r) {
			return true
		}
	}
	return false
}

// Location returns the https URL for r.
func (it Interceptor) Location(r *safehttp.IncomingRequest) (string, error) {
	host := r.Host()
	hostname, port, err := net.SplitHostPort(host)
	if err != nil {
		// No port.
		return "https://" + host + r.URL().RequestURI(), nil
	}
	p, err := strconv.Atoi(port)
	if err != nil {
		return "", err
	}
	pm := it.PortMapper
	if pm == nil {
		pm = DefaultPortMapper()
	}
	sp, ok := pm.HTTPSPort(p)
	if !ok {
		return "", &unmappedPortError{port: p}
	}
	if sp != 443 {
		hostname = net.JoinHostPort(hostname, strconv.Itoa(sp))
	} else if net.ParseIP(hostname) != nil && net.ParseIP(hostname).To4() == nil {
		hostname = "[" + hostname + "]"
	}
	return "https://" + hostname + r.URL().RequestURI(), nil
}

type unmappedPortError struct {
	port int
}

func (e *unmappedPortError) Error() string {
	return "no https port mapped for port " + strconv.Itoa(e.port)
}

// Before redirects the insecure requests the Interceptor applies to.
func (it Interceptor) Before(w safehttp.ResponseWriter, r *safehttp.IncomingRequest, _ safehttp.InterceptorConfig) safehttp.Result {
	if !it.applies(r) {
		return safehttp.NotWritten()
	}
	loc, err := it.Location(r)
	if err != nil {
		auth.Logger(it.Logger).Error("https redirect", zap.String("host", r.Host()), zap.Error(err))
		return w.WriteError(safehttp.StatusInternalServerError)
	}
	return safehttp.Redirect(w, r, loc, safehttp.StatusMovedPermanently)
}

// Commit is a no-op, required to satisfy the safehttp.Interceptor interface.
func (Interceptor) Commit(safehttp.ResponseHeadersWriter, *safehttp.IncomingRequest, safehttp.Response, safehttp.InterceptorConfig) {
}

// Match returns false since there are no supported configurations.
func (Interceptor) Match(safehttp.InterceptorConfig) bool {
	return false
}
