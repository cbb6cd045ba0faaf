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

// Package safehttp is the request pipeline the security configuration runs on.
//
// # Safe Responses
//
// Handlers never write bytes. They hand a Response to the ResponseWriter and a
// Dispatcher decides whether it is safe to send: the DefaultDispatcher only
// accepts github.com/google/safehtml values, safehtml templates and JSON
// (prefixed against XSSI).
//
// # Interceptors
//
// Every security feature is an Interceptor installed on a ServeMuxConfig.
// Interceptors run in installation order before the handler (Before) and in
// reverse order right before the response is dispatched (Commit). A Before
// that writes a response short-circuits the rest of the chain, which is how
// authentication and authorization reject requests.
//
// Interceptors claim the response headers they own with Header.Claim so that
// handlers cannot tamper with them, and share per-request data through
// FlightValues.
//
// # Local development
//
// UseLocalDev disables the Secure cookie attribute and transport security
// redirects. It must be called before the first ServeMuxConfig is created.
package safehttp
