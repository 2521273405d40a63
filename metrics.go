/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type metrics struct {
	registry     *prometheus.Registry
	refreshes    *prometheus.CounterVec
	participants prometheus.Gauge
	submissions  *prometheus.CounterVec
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "anmeldung",
			Name:      "refresh_total",
			Help:      "Participant list refreshes, by result.",
		}, []string{"result"}),
		participants: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "anmeldung",
			Name:      "participants",
			Help:      "Participants in the most recent list.",
		}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "anmeldung",
			Name:      "submissions_total",
			Help:      "Registration submissions, by result.",
		}, []string{"result"}),
	}

	m.registry.MustRegister(
		m.refreshes,
		m.participants,
		m.submissions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

func serveMetrics(cfg *Config, m *metrics) httprouter.Handle {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})

	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		securityHeaders(cfg, w)

		h.ServeHTTP(w, r)
	}
}
