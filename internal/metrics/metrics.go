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

// Package metrics exports the security decisions of the filter chain as
// Prometheus counters.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "safeweb"

// Recorder counts authentication attempts, authorization decisions and
// rejected CSRF tokens. It implements auth.Recorder, authz.Recorder and
// xsrf.Recorder.
type Recorder struct {
	authentications *prometheus.CounterVec
	decisions       *prometheus.CounterVec
	csrfRejections  *prometheus.CounterVec
}

// New registers the counters with reg, prometheus.DefaultRegisterer when nil.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		authentications: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "authentication_attempts_total",
			Help:      "Authentication attempts by mechanism and outcome.",
		}, []string{"mechanism", "success"}),
		decisions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "authorization_decisions_total",
			Help:      "Authorization decisions by rule and outcome.",
		}, []string{"rule", "granted"}),
		csrfRejections: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "csrf_rejections_total",
			Help:      "Requests rejected for a missing or invalid CSRF token.",
		}, []string{"reason"}),
	}
}

// AuthenticationAttempt implements auth.Recorder.
func (r *Recorder) AuthenticationAttempt(mechanism string, success bool) {
	r.authentications.WithLabelValues(mechanism, strconv.FormatBool(success)).Inc()
}

// Decision implements authz.Recorder.
func (r *Recorder) Decision(rule string, granted bool) {
	r.decisions.WithLabelValues(rule, strconv.FormatBool(granted)).Inc()
}

// Rejected implements xsrf.Recorder.
func (r *Recorder) Rejected(reason string) {
	r.csrfRejections.WithLabelValues(reason).Inc()
}
