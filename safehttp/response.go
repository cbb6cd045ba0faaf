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
	"io"
)

// Response should encapsulate the data passed to the ResponseWriter to be
// written by the Dispatcher. Any implementation of the interface should be
// supported by the Dispatcher.
type Response interface{}

// ErrorResponse is an HTTP error response. The Dispatcher is responsible for
// determining whether it is safe.
type ErrorResponse interface {
	Code() StatusCode
}

// JSONResponse should encapsulate a valid JSON object that will be serialised
// and written to the http.ResponseWriter using a JSON encoder.
type JSONResponse struct {
	Data interface{}
}

// WriteJSON creates a JSONResponse from the data object and calls the Write
// function of the ResponseWriter, passing the response.
func WriteJSON(w ResponseWriter, data interface{}) Result {
	return w.Write(JSONResponse{data})
}

// Template implements a template.
type Template interface {
	// Execute applies data to the template and then writes the result to
	// the io.Writer.
	Execute(wr io.Writer, data interface{}) error
	// ExecuteTemplate applies the named associated template to the specified
	// data object and writes the output to the io.Writer.
	ExecuteTemplate(wr io.Writer, name string, data interface{}) error
}

// TemplateResponse bundles a Template with its data and names to function
// mappings to be passed together to the commit phase.
type TemplateResponse struct {
	Template Template
	Name     string
	Data     interface{}
	FuncMap  map[string]interface{}
}

// ExecuteTemplate creates a TemplateResponse from the provided Template and
// its data and calls the Write function of the ResponseWriter.
// Leaving name empty is valid if the template does not have associated
// templates.
func ExecuteTemplate(w ResponseWriter, t Template, name string, data interface{}) Result {
	return w.Write(&TemplateResponse{Template: t, Name: name, Data: data})
}

// NoContentResponse is written when a handler returns without writing.
type NoContentResponse struct{}

// RedirectResponse redirects the client to Location with a 3xx status.
type RedirectResponse struct {
	// Request is the request being redirected, used to resolve relative
	// locations.
	Request *IncomingRequest
	// Location is the target URL.
	Location string
	// Code must be a 3xx status code.
	Code StatusCode
}

// Redirect writes a RedirectResponse to w. It panics if code is not a 3xx
// status code.
func Redirect(w ResponseWriter, r *IncomingRequest, location string, code StatusCode) Result {
	if !code.isRedirect() {
		panic(fmt.Sprintf("wrong method called: redirect with status %d", code))
	}
	return w.Write(RedirectResponse{Request: r, Location: location, Code: code})
}
