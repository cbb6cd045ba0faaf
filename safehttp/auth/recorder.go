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

package auth

import "go.uber.org/zap"

// Recorder observes authentication attempts. internal/metrics provides a
// Prometheus implementation.
type Recorder interface {
	AuthenticationAttempt(mechanism string, success bool)
}

// NopRecorder discards everything.
type NopRecorder struct{}

// AuthenticationAttempt implements Recorder.
func (NopRecorder) AuthenticationAttempt(string, bool) {}

// OrNop returns r, or NopRecorder if r is nil.
func OrNop(r Recorder) Recorder {
	if r == nil {
		return NopRecorder{}
	}
	return r
}

// Logger returns l, or a no-op logger if l is nil.
func Logger(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
