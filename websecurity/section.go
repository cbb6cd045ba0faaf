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

package websecurity

import "time"

// section collects the customizers of a block that may be configured
// several times. Customizers run in call order, so later values win.
type section[T any] struct {
	used        bool
	disabled    bool
	customizers []func(*T)
}

func (s *section[T]) add(customize func(*T), disabled bool) {
	s.used = true
	s.disabled = s.disabled || disabled
	s.customizers = append(s.customizers, customize)
}

func (s *section[T]) apply(t *T) {
	for _, c := range s.customizers {
		c(t)
	}
}

// enabled reports whether the block is on. A disabled block stays off.
func (s *section[T]) enabled(byDefault bool) bool {
	if s.disabled {
		return false
	}
	return s.used || byDefault
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// Bool returns a pointer to b, for the optional boolean fields of the
// configuration blocks.
func Bool(b bool) *bool {
	return &b
}

// Duration returns a pointer to d, for the optional duration fields of the
// configuration blocks.
func Duration(d time.Duration) *time.Duration {
	return &d
}
