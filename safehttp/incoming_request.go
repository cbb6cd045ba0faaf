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

import (
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/http"
	"sync"
)

// IncomingRequest represents an HTTP request received by the server.
type IncomingRequest struct {
	req *http.Request

	// Header is the collection of HTTP headers.
	//
	// The Host header is removed from this struct and can be retrieved using
	// Host().
	Header Header
	// TLS is set just like this TLS field of the net/http.Request. For more
	// information see https://pkg.go.dev/net/http?tab=doc#Request.
	TLS *tls.ConnectionState

	postParseOnce  sync.Once
	postForm       *Form
	postErr        error
	queryParseOnce sync.Once
	queryForm      *Form
	queryErr       error
}

// NewIncomingRequest creates an IncomingRequest from the underlying
// http.Request and attaches an empty set of FlightValues to its context.
func NewIncomingRequest(req *http.Request) *IncomingRequest {
	if req == nil {
		return nil
	}
	req = req.WithContext(withFlightValues(req.Context()))
	return &IncomingRequest{
		req:    req,
		Header: NewHeader(req.Header),
		TLS:    req.TLS,
	}
}

// Method returns the HTTP method of the IncomingRequest.
func (r *IncomingRequest) Method() string {
	return r.req.Method
}

// Host returns the host the request is targeted to. This value comes from
// the Host header.
func (r *IncomingRequest) Host() string {
	return r.req.Host
}

// URL specifies the URL that is parsed from the Request-Line. For most
// requests, only URL.Path() will return a non-empty result.
func (r *IncomingRequest) URL() *URL {
	return &URL{url: r.req.URL}
}

// RemoteAddr returns the network address of the client, as reported by
// net/http. It's of the form "IP:port".
func (r *IncomingRequest) RemoteAddr() string {
	return r.req.RemoteAddr
}

// RemoteIP returns the IP part of RemoteAddr, or nil if it cannot be parsed.
func (r *IncomingRequest) RemoteIP() net.IP {
	host, _, err := net.SplitHostPort(r.req.RemoteAddr)
	if err != nil {
		host = r.req.RemoteAddr
	}
	return net.ParseIP(host)
}

// IsSecure reports whether the request was received over TLS.
func (r *IncomingRequest) IsSecure() bool {
	return r.TLS != nil
}

// BasicAuth returns the username and password provided in the request's
// Authorization header, if the request uses HTTP Basic Authentication.
func (r *IncomingRequest) BasicAuth() (username, password string, ok bool) {
	return r.req.BasicAuth()
}

// Context returns the context of a safehttp.IncomingRequest. This is always
// non-nil and will default to the background context. The context of a
// safehttp.IncomingRequest is the context of the underlying http.Request.
//
// The context is cancelled when the client's connection
// closes, the request is canceled (with HTTP/2), or when the ServeHTTP method
// returns.
func (r *IncomingRequest) Context() context.Context {
	return r.req.Context()
}

// SetContext sets the context of the safehttp.IncomingRequest to ctx. The
// provided context must be non-nil, otherwise the method panics.
func (r *IncomingRequest) SetContext(ctx context.Context) {
	if ctx == nil {
		panic("nil context")
	}
	r.req = r.req.WithContext(ctx)
}

// Cookie returns the named cookie provided in the request or
// net/http.ErrNoCookie if not found. If multiple cookies match the given name,
// only one cookie will be returned.
func (r *IncomingRequest) Cookie(name string) (*Cookie, error) {
	c, err := r.req.Cookie(name)
	if err != nil {
		return nil, err
	}
	return &Cookie{wrapped: c}, nil
}

// Cookies parses and returns the HTTP cookies sent with the request.
func (r *IncomingRequest) Cookies() []*Cookie {
	cl := r.req.Cookies()
	res := make([]*Cookie, 0, len(cl))
	for _, c := range cl {
		res = append(res, &Cookie{wrapped: c})
	}
	return res
}

// QueryForm parses the query parameters of the request URL. The result is
// computed once and shared by every caller.
func (r *IncomingRequest) QueryForm() (*Form, error) {
	r.queryParseOnce.Do(func() {
		f, err := r.URL().Query()
		if err != nil {
			r.queryErr = err
			return
		}
		r.queryForm = &f
	})
	return r.queryForm, r.queryErr
}

// PostForm parses the form parameters provided in the body of a POST, PATCH
// or PUT request that has Content-Type: application/x-www-form-urlencoded.
// The body is read once; later calls return the same Form.
func (r *IncomingRequest) PostForm() (*Form, error) {
	r.postParseOnce.Do(func() {
		switch r.req.Method {
		case http.MethodPost, http.MethodPatch, http.MethodPut:
		default:
			r.postErr = fmt.Errorf("got request method %s, want POST/PATCH/PUT", r.req.Method)
			return
		}
		ct, _, err := mime.ParseMediaType(r.req.Header.Get("Content-Type"))
		if err != nil || ct != "application/x-www-form-urlencoded" {
			r.postErr = fmt.Errorf("invalid Content-Type %q, want application/x-www-form-urlencoded", r.req.Header.Get("Content-Type"))
			return
		}
		if err := r.req.ParseForm(); err != nil {
			r.postErr = err
			return
		}
		r.postForm = &Form{values: r.req.PostForm}
	})
	return r.postForm, r.postErr
}

// Request returns the wrapped net/http request. It is meant for plugins that
// hand the request to libraries speaking net/http, such as OAuth2 clients.
func (r *IncomingRequest) Request() *http.Request {
	return r.req
}
