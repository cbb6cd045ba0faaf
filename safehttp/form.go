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
	"strconv"
)

// Form contains parsed data from query or body form parameters. Values are
// only reachable through the typed getters, which record the last conversion
// error in Err.
type Form struct {
	values map[string][]string
	err    error
}

// String returns the first value of param, or defaultValue if param is not
// present.
func (f *Form) String(param string, defaultValue string) string {
	vals, ok := f.values[param]
	if !ok || len(vals) == 0 {
		return defaultValue
	}
	return vals[0]
}

// Values returns every value of param in the order they were sent.
func (f *Form) Values(param string) []string {
	return append([]string(nil), f.values[param]...)
}

// Has reports whether param was sent at all, possibly with an empty value.
func (f *Form) Has(param string) bool {
	_, ok := f.values[param]
	return ok
}

// Int64 converts the first value of param to an int64. A missing param yields
// defaultValue; an invalid one yields defaultValue and sets Err.
func (f *Form) Int64(param string, defaultValue int64) int64 {
	vals, ok := f.values[param]
	if !ok || len(vals) == 0 {
		return defaultValue
	}
	v, err := strconv.ParseInt(vals[0], 10, 64)
	if err != nil {
		f.err = err
		return defaultValue
	}
	return v
}

// Bool converts the first value of param to a bool. Only "true" and "false"
// are accepted.
func (f *Form) Bool(param string, defaultValue bool) bool {
	vals, ok := f.values[param]
	if !ok || len(vals) == 0 {
		return defaultValue
	}
	switch vals[0] {
	case "true":
		return true
	case "false":
		return false
	}
	f.err = fmt.Errorf("values of form parameter %q not a boolean", param)
	return defaultValue
}

// Err returns the last error that occurred while converting form values.
func (f *Form) Err() error {
	return f.err
}
