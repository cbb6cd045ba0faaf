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

import "sync"

var (
	devMu      sync.RWMutex
	isLocalDev bool
	// freezeLocalDev is set when the first ServeMuxConfig is created.
	freezeLocalDev bool
)

// UseLocalDev relaxes the protections that make development on
// http://localhost impossible: cookies stop carrying the Secure attribute and
// transport security plugins stop redirecting to HTTPS.
//
// It must be called before any ServeMuxConfig is created and cannot be
// undone. This configuration is not valid for production use.
func UseLocalDev() {
	devMu.Lock()
	defer devMu.Unlock()
	if freezeLocalDev {
		panic("UseLocalDev can only be called before any other part of the framework")
	}
	isLocalDev = true
}

// IsLocalDev reports whether UseLocalDev has been called.
func IsLocalDev() bool {
	devMu.RLock()
	defer devMu.RUnlock()
	return isLocalDev
}

func freezeDev() {
	devMu.Lock()
	freezeLocalDev = true
	devMu.Unlock()
}
