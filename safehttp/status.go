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

import "net/http"

// StatusCode is an HTTP status code. Only the codes the security
// configuration produces or forwards are declared here; any other value is
// still valid.
type StatusCode int

const (
	StatusOK        StatusCode = 200
	StatusNoContent StatusCode = 204

	StatusMovedPermanently  StatusCode = 301
	StatusFound             StatusCode = 302
	StatusSeeOther          StatusCode = 303
	StatusNotModified       StatusCode = 304
	StatusTemporaryRedirect StatusCode = 307
	StatusPermanentRedirect StatusCode = 308

	StatusBadRequest            StatusCode = 400
	StatusUnauthorized          StatusCode = 401
	StatusForbidden             StatusCode = 403
	StatusNotFound              StatusCode = 404
	StatusMethodNotAllowed      StatusCode = 405
	StatusRequestEntityTooLarge StatusCode = 413
	StatusUnsupportedMediaType  StatusCode = 415
	StatusMisdirectedRequest    StatusCode = 421
	StatusTooManyRequests       StatusCode = 429

	StatusInternalServerError StatusCode = 500
	StatusServiceUnavailable  StatusCode = 503
)

// Code implements ErrorResponse.
func (c StatusCode) Code() StatusCode {
	return c
}

// String returns the status text.
func (c StatusCode) String() string {
	return http.StatusText(int(c))
}

func (c StatusCode) isRedirect() bool {
	return c >= 300 && c < 400
}
