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
	"fmt"
	"net/http"
)

// flight is a single request in the lifecycle of the ServeMux. It implements
// ResponseWriter and drives the interceptors, the handler and the Dispatcher.
type flight struct {
	rw  http.ResponseWriter
	req *IncomingRequest

	cfg handlerConfig

	header  Header
	written bool
}

type handlerConfig struct {
	Dispatcher   Dispatcher
	Handler      Handler
	Interceptors []configuredInterceptor
}

func processRequest(cfg handlerConfig, rw http.ResponseWriter, req *http.Request) {
	f := &flight{
		cfg:    cfg,
		rw:     rw,
		header: NewHeader(rw.Header()),
		req:    NewIncomingRequest(req),
	}

	// The net/http package handles all panics. We only make sure that no
	// header set so far (e.g. Set-Cookie) leaks into the 500 response.
	defer func() {
		if r := recover(); r != nil {
			for h := range f.rw.Header() {
				delete(f.rw.Header(), h)
			}
			panic(r)
		}
	}()

	for _, it := range f.cfg.Interceptors {
		it.Before(f, f.req)
		if f.written {
			return
		}
	}
	f.cfg.Handler.ServeHTTP(f, f.req)
	if !f.written {
		f.Write(NoContentResponse{})
	}
}

// Write dispatches the response to the Dispatcher, after running the Commit
// phase of all interceptors. NoContentResponse and RedirectResponse are
// written by the framework itself.
func (f *flight) Write(resp Response) Result {
	if f.written {
		panic("ResponseWriter was already written to")
	}
	f.written = true
	f.commitPhase(resp)

	switch x := resp.(type) {
	case NoContentResponse:
		f.rw.WriteHeader(int(StatusNoContent))
		return Result{}
	case RedirectResponse:
		http.Redirect(f.rw, x.Request.req, x.Location, int(x.Code))
		return Result{}
	}
	if err := f.cfg.Dispatcher.Write(f.rw, resp); err != nil {
		panic(err)
	}
	return Result{}
}

// WriteError dispatches the error response to the Dispatcher, after running
// the Commit phase of all interceptors.
func (f *flight) WriteError(resp ErrorResponse) Result {
	if f.written {
		panic("ResponseWriter was already written to")
	}
	f.written = true
	f.commitPhase(resp)
	if err := f.cfg.Dispatcher.Error(f.rw, resp); err != nil {
		panic(err)
	}
	return Result{}
}

// Header returns the response headers.
func (f *flight) Header() Header {
	return f.header
}

// AddCookie adds a Set-Cookie header.
func (f *flight) AddCookie(c *Cookie) error {
	if !c.valid() {
		return fmt.Errorf("invalid cookie name %q", c.Name())
	}
	f.header.addCookie(c)
	return nil
}

func (f *flight) commitPhase(resp Response) {
	for i := len(f.cfg.Interceptors) - 1; i >= 0; i-- {
		f.cfg.Interceptors[i].Commit(f, f.req, resp)
	}
}
