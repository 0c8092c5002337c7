// Package metrics exposes Prometheus collectors for the authentication flows.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OutcomeSuccess labels a successful operation. Failures are labelled with
// the lower-cased failure kind.
const OutcomeSuccess = "success"

// Signups counts signup attempts by outcome.
var Signups = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "auth_signups_total",
		Help: "Total number of signup attempts",
	},
	[]string{"outcome"},
)

// Logins counts login attempts by outcome.
var Logins = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "auth_logins_total",
		Help: "Total number of login attempts",
	},
	[]string{"outcome"},
)

// TokenValidations counts presented tokens by validation outcome.
var TokenValidations = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "auth_token_validations_total",
		Help: "Total number of token validations",
	},
	[]string{"outcome"},
)

// PasswordHashDuration tracks time spent in the password hasher.
var PasswordHashDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "auth_password_hash_duration_seconds",
		Help:    "Password hash and verify duration in seconds",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	},
	[]string{"operation"},
)

// Register registers the package collectors with reg.
// Panics if registration fails (following prometheus convention).
func Register(reg prometheus.Registerer) {
	reg.MustRegister(Signups)
	reg.MustRegister(Logins)
	reg.MustRegister(TokenValidations)
	reg.MustRegister(PasswordHashDuration)
}

// RecordSignup increments the signup counter.
func RecordSignup(outcome string) {
	Signups.WithLabelValues(outcome).Inc()
}

// RecordLogin increments the login counter.
func RecordLogin(outcome string) {
	Logins.WithLabelValues(outcome).Inc()
}

// RecordTokenValidation increments the token validation counter.
func RecordTokenValidation(outcome string) {
	TokenValidations.WithLabelValues(outcome).Inc()
}

// ObservePasswordHash records how long a hash or verify call took.
func ObservePasswordHash(operation string, d time.Duration) {
	PasswordHashDuration.WithLabelValues(operation).Observe(d.Seconds())
}
