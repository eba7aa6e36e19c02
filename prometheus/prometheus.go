// Nnc
// Copyright (C) 2013-2026+ James Shubin and the project contributors
// Written by James Shubin <james@shubin.ca> and the project contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.


// Package prometheus collects the compiler metrics in a private prometheus
// registry and exports them in the text exposition format.
package prometheus

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus is the struct that contains the compiler metrics. Run Init() on
// it. It implements interfaces.Metrics.
type Prometheus struct {
	registry *prometheus.Registry

	passRunTotal            *prometheus.CounterVec   // total of pass runs
	passDuration            *prometheus.HistogramVec // pass run durations
	ruleFiredTotal          *prometheus.CounterVec   // total of rule rewrites
	mutatorAppliedTotal     *prometheus.CounterVec   // total of mutator rewrites
	iterations              *prometheus.GaugeVec     // last fixpoint iteration count
	processStartTimeSeconds prometheus.Gauge         // process start time in seconds since unix epoch
}

// Init builds and registers all the metrics.
func (obj *Prometheus) Init() error {
	obj.registry = prometheus.NewRegistry()

	obj.passRunTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nnc_pass_run_total",
			Help: "Number of pass runs.",
		},
		// pass: the name of the pass
		// errorful: did the pass return an error
		[]string{"pass", "errorful"},
	)
	obj.passDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nnc_pass_duration_seconds",
			Help:    "Duration of the pass runs in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		},
		[]string{"pass"},
	)
	obj.ruleFiredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nnc_rule_fired_total",
			Help: "Number of rewrites performed by each rule.",
		},
		[]string{"rule"},
	)
	obj.mutatorAppliedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nnc_mutator_applied_total",
			Help: "Number of rewrites performed by each mutator.",
		},
		[]string{"mutator"},
	)
	obj.iterations = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "nnc_pass_iterations",
			Help: "Number of accepted changes in the last run of a fixpoint pass.",
		},
		[]string{"pass"},
	)
	obj.processStartTimeSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "nnc_process_start_time_seconds",
			Help: "Start time of the process since unix epoch in seconds.",
		},
	)

	for _, c := range []prometheus.Collector{
		obj.passRunTotal,
		obj.passDuration,
		obj.ruleFiredTotal,
		obj.mutatorAppliedTotal,
		obj.iterations,
		obj.processStartTimeSeconds,
	} {
		if err := obj.registry.Register(c); err != nil {
			return err
		}
	}
	// directly set the processStartTimeSeconds
	obj.processStartTimeSeconds.SetToCurrentTime()

	return nil
}

// Gatherer returns the registry holding the metrics.
func (obj *Prometheus) Gatherer() prometheus.Gatherer {
	return obj.registry
}

// PassRun records one run of a pass.
func (obj *Prometheus) PassRun(pass string, duration time.Duration, err error) {
	labels := prometheus.Labels{"pass": pass, "errorful": strconv.FormatBool(err != nil)}
	obj.passRunTotal.With(labels).Inc()
	obj.passDuration.WithLabelValues(pass).Observe(duration.Seconds())
}

// RuleFired records a rewrite performed by a rule.
func (obj *Prometheus) RuleFired(rule string) {
	obj.ruleFiredTotal.WithLabelValues(rule).Inc()
}

// MutatorApplied records a rewrite performed by a mutator.
func (obj *Prometheus) MutatorApplied(mutator string) {
	obj.mutatorAppliedTotal.WithLabelValues(mutator).Inc()
}

// Iterations records how many changes a fixpoint pass accepted.
func (obj *Prometheus) Iterations(pass string, n int) {
	obj.iterations.WithLabelValues(pass).Set(float64(n))
}

// WriteTextfile writes all the metrics to the file in the format read by the
// node exporter textfile collector. The file is replaced atomically.
func (obj *Prometheus) WriteTextfile(filename string) error {
	return prometheus.WriteToTextfile(filename, obj.registry)
}
