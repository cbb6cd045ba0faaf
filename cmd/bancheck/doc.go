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

// Bancheck reports the use of risky APIs.
//
// # Overview
//
// Bancheck resolves fully qualified function and import names with
// golang.org/x/tools/go/analysis and checks them against a list of banned
// APIs. It is meant to run in CI, so that a protection switched off in the
// websecurity configuration does not go unnoticed.
//
// By default the websecurity methods that turn a default protection off are
// banned, e.g. (*websecurity.CSRF).Disable and
// (*websecurity.Headers).Disable. Pass -defaults=false to check only the
// configured APIs.
//
// # Config
//
// Config files list banned imports and functions, with a message and
// optional package exemptions, matched with filepath.Match. Every exemption
// must carry a justification.
// Files ending in .yaml or .yml are read as YAML, the others as JSON.
// Functions are named as go/types prints them: "fmt.Printf" for a function
// and "(*example.com/pkg.T).Method" for a method.
//
// When several entries ban the same API, one finding is reported per entry,
// unless one of them exempts the package.
//
//	functions:
//	  - name: (*github.com/google/go-safeweb-dsl/websecurity.CSRF).Disable
//	    msg: CSRF protection must stay on
//	    exemptions:
//	      - justification: the API only serves bearer token clients
//	        allowedPkg: example.com/api/*
//	imports:
//	  - name: github.com/google/go-safeweb-dsl/safehttp/plugins/xsrf
//	    msg: configure CSRF protection with websecurity
//
// # CLI usage
//
//	$ bancheck -configs security.yaml ./...
//	/src/app/main.go:21:5: Banned API found "(*github.com/google/go-safeweb-dsl/websecurity.CSRF).Disable". Additional info: CSRF protection must stay on
package main
