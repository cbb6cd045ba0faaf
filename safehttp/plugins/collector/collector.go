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

// Package collector receives the violation reports browsers send for the
// report-uri of a Content-Security-Policy and for the Reporting API.
package collector

import (
	"encoding/json"
	"io"

	"github.com/google/go-safeweb-dsl/safehttp"
)

// MaxReportSize caps the accepted request bodies.
const MaxReportSize = 64 << 10

// Report represents a generic report as specified by https://w3c.github.io/reporting/#serialize-reports
type Report struct {
	// Type controls the shape of Body.
	Type string `json:"type"`
	// Age is the number of milliseconds between the violation and the
	// report.
	Age uint64 `json:"age"`
	// URL is the address of the Document or Worker the report comes from.
	URL       string `json:"url"`
	UserAgent string `json:"user_agent"`
	// Body is a CSPReport for Type "csp-violation" and the decoded JSON
	// object otherwise.
	Body interface{} `json:"body"`
}

// CSPReport represents a CSP violation report as specified by https://www.w3.org/TR/CSP3/#deprecated-serialize-violation
type CSPReport struct {
	// BlockedURL is truncated to its origin when cross-origin to DocumentURL.
	BlockedURL string
	// Disposition is "enforce" or "report".
	Disposition        string
	DocumentURL        string
	EffectiveDirective string
	OriginalPolicy     string
	Referrer           string
	// Sample holds the first 40 characters of the offending inline code.
	Sample            string
	StatusCode        uint
	ViolatedDirective string
	SourceFile        string
	LineNumber        uint
	ColumnNumber      uint
}

// Handler builds a safehttp.Handler which calls handler or cspHandler when a
// report is received. Register it for POST requests. Reports of the
// Reporting API that carry a CSP violation go to cspHandler too. A nil
// function drops its reports.
func Handler(handler func(Report), cspHandler func(CSPReport)) safehttp.Handler {
	if handler == nil {
		handler = func(Report) {}
	}
	if cspHandler == nil {
		cspHandler = func(CSPReport) {}
	}
	return safehttp.HandlerFunc(func(w safehttp.ResponseWriter, r *safehttp.IncomingRequest) safehttp.Result {
		if r.Method() != safehttp.MethodPost {
			return w.WriteError(safehttp.StatusMethodNotAllowed)
		}
		b, err := io.ReadAll(io.LimitReader(r.Request().Body, MaxReportSize+1))
		if err != nil {
			return w.WriteError(safehttp.StatusBadRequest)
		}
		if len(b) > MaxReportSize {
			return w.WriteError(safehttp.StatusRequestEntityTooLarge)
		}

		switch r.Header.Get("Content-Type") {
		case "application/csp-report":
			return handleDeprecatedCSPReports(cspHandler, w, b)
		case "application/reports+json":
			return handleReports(handler, cspHandler, w, b)
		}
		return w.WriteError(safehttp.StatusUnsupportedMediaType)
	})
}

// deprecatedCSPReport accepts both the CSP2 shape, wrapped in a
// "csp-report" key, and the unwrapped CSP3 one.
type deprecatedCSPReport struct {
	CSPReport          json.RawMessage `json:"csp-report"`
	BlockedURL         string          `json:"blocked-uri"`
	Disposition        string          `json:"disposition"`
	DocumentURL        string          `json:"document-uri"`
	EffectiveDirective string          `json:"effective-directive"`
	OriginalPolicy     string          `json:"original-policy"`
	Referrer           string          `json:"referrer"`
	Sample             string          `json:"script-sample"`
	StatusCode         uint            `json:"status-code"`
	ViolatedDirective  string          `json:"violated-directive"`
	SourceFile         string          `json:"source-file"`
	LineNo             uint            `json:"lineno"`
	LineNumber         uint            `json:"line-number"`
	ColNo              uint            `json:"colno"`
	ColumnNumber       uint            `json:"column-number"`
}

func handleDeprecatedCSPReports(h func(CSPReport), w safehttp.ResponseWriter, b []byte) safehttp.Result {
	var r deprecatedCSPReport
	if err := json.Unmarshal(b, &r); err != nil {
		return w.WriteError(safehttp.StatusBadRequest)
	}
	if len(r.CSPReport) != 0 {
		if err := json.Unmarshal(r.CSPReport, &r); err != nil {
			return w.WriteError(safehttp.StatusBadRequest)
		}
	}

	ln := r.LineNo
	if ln == 0 {
		ln = r.LineNumber
	}
	cn := r.ColNo
	if cn == 0 {
		cn = r.ColumnNumber
	}
	h(CSPReport{
		BlockedURL:         r.BlockedURL,
		Disposition:        r.Disposition,
		DocumentURL:        r.DocumentURL,
		EffectiveDirective: r.EffectiveDirective,
		OriginalPolicy:     r.OriginalPolicy,
		Referrer:           r.Referrer,
		Sample:             r.Sample,
		StatusCode:         r.StatusCode,
		ViolatedDirective:  r.ViolatedDirective,
		SourceFile:         r.SourceFile,
		LineNumber:         ln,
		ColumnNumber:       cn,
	})
	return w.Write(safehttp.NoContentResponse{})
}

// cspViolation is the body of a "csp-violation" report,
// https://w3c.github.io/webappsec-csp/#reporting.
type cspViolation struct {
	BlockedURL         string `json:"blockedURL"`
	Disposition        string `json:"disposition"`
	DocumentURL        string `json:"documentURL"`
	EffectiveDirective string `json:"effectiveDirective"`
	OriginalPolicy     string `json:"originalPolicy"`
	Referrer           string `json:"referrer"`
	Sample             string `json:"sample"`
	StatusCode         uint   `json:"statusCode"`
	SourceFile         string `json:"sourceFile"`
	LineNumber         uint   `json:"lineNumber"`
	ColumnNumber       uint   `json:"columnNumber"`
}

func handleReports(h func(Report), csp func(CSPReport), w safehttp.ResponseWriter, b []byte) safehttp.Result {
	var raw []struct {
		Type      string          `json:"type"`
		Age       uint64          `json:"age"`
		URL       string          `json:"url"`
		UserAgent string          `json:"user_agent"`
		Body      json.RawMessage `json:"body"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return w.WriteError(safehttp.StatusBadRequest)
	}

	badRequest := false
	for _, rr := range raw {
		r := Report{Type: rr.Type, Age: rr.Age, URL: rr.URL, UserAgent: rr.UserAgent}
		if rr.Type == "csp-violation" {
			var v cspViolation
			if err := json.Unmarshal(rr.Body, &v); err != nil {
				badRequest = true
				continue
			}
			c := CSPReport{
				BlockedURL:         v.BlockedURL,
				Disposition:        v.Disposition,
				DocumentURL:        v.DocumentURL,
				EffectiveDirective: v.EffectiveDirective,
				OriginalPolicy:     v.OriginalPolicy,
				Referrer:           v.Referrer,
				Sample:             v.Sample,
				StatusCode:         v.StatusCode,
				// Removed in CSP3, kept as a copy of EffectiveDirective.
				ViolatedDirective: v.EffectiveDirective,
				SourceFile:        v.SourceFile,
				LineNumber:        v.LineNumber,
				ColumnNumber:      v.ColumnNumber,
			}
			r.Body = c
			csp(c)
		} else {
			var m map[string]interface{}
			if err := json.Unmarshal(rr.Body, &m); err != nil || m == nil {
				badRequest = true
				continue
			}
			r.Body = m
		}
		h(r)
	}

	if badRequest {
		return w.WriteError(safehttp.StatusBadRequest)
	}
	return w.Write(safehttp.NoContentResponse{})
}
