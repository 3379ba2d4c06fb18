package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector counts session-service outcomes for Prometheus scraping.
type Collector struct {
	registrations   *prometheus.CounterVec
	logins          *prometheus.CounterVec
	logouts         prometheus.Counter
	forcedSignouts  prometheus.Counter
	stateMigrations *prometheus.CounterVec
	stateRestores   *prometheus.CounterVec
}

func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storesync_registrations_total",
			Help: "Registration attempts by result.",
		}, []string{"result"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storesync_logins_total",
			Help: "Login attempts by result.",
		}, []string{"result"}),
		logouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storesync_logouts_total",
			Help: "Completed logouts.",
		}),
		forcedSignouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storesync_forced_signouts_total",
			Help: "Sign-outs forced by account-status policy.",
		}),
		stateMigrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storesync_state_migrations_total",
			Help: "Logout-time cart/wishlist migrations by result.",
		}, []string{"result"}),
		stateRestores: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storesync_state_restores_total",
			Help: "Post-login cart/wishlist restores by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(
		c.registrations,
		c.logins,
		c.logouts,
		c.forcedSignouts,
		c.stateMigrations,
		c.stateRestores,
	)

	return c
}

func result(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}

func (c *Collector) RecordRegistration(ok bool) {
	if c == nil {
		return
	}
	c.registrations.WithLabelValues(result(ok)).Inc()
}

func (c *Collector) RecordLogin(ok bool) {
	if c == nil {
		return
	}
	c.logins.WithLabelValues(result(ok)).Inc()
}

func (c *Collector) RecordLogout() {
	if c == nil {
		return
	}
	c.logouts.Inc()
}

func (c *Collector) RecordForcedSignout() {
	if c == nil {
		return
	}
	c.forcedSignouts.Inc()
}

func (c *Collector) RecordStateMigration(ok bool) {
	if c == nil {
		return
	}
	c.stateMigrations.WithLabelValues(result(ok)).Inc()
}

func (c *Collector) RecordStateRestore(ok bool) {
	if c == nil {
		return
	}
	c.stateRestores.WithLabelValues(result(ok)).Inc()
}
