// Package prom exports authentication flow outcomes as Prometheus counters.
package prom

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/vncsmyrnk/tokenauth/internal/core/ports"
)

type Recorder struct {
	logins    *prometheus.CounterVec
	refreshes *prometheus.CounterVec
	logouts   *prometheus.CounterVec
}

var _ ports.AuthMetrics = (*Recorder)(nil)

// NewRecorder registers the counters on reg.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tokenauth",
			Name:      "logins_total",
			Help:      "Login attempts by outcome.",
		}, []string{"outcome"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tokenauth",
			Name:      "refreshes_total",
			Help:      "Refresh token rotations by outcome.",
		}, []string{"outcome"}),
		logouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tokenauth",
			Name:      "logouts_total",
			Help:      "Logouts by outcome.",
		}, []string{"outcome"}),
	}

	for _, c := range []prometheus.Collector{r.logins, r.refreshes, r.logouts} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Recorder) ObserveLogin(outcome string) {
	r.logins.WithLabelValues(outcome).Inc()
}

func (r *Recorder) ObserveRefresh(outcome string) {
	r.refreshes.WithLabelValues(outcome).Inc()
}

func (r *Recorder) ObserveLogout(outcome string) {
	r.logouts.WithLabelValues(outcome).Inc()
}
