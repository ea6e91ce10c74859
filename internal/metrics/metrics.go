// Package metrics holds the Prometheus instruments shared by the gather
// job and the web UI.  All collectors are registered with the global
// registry, so importing this package in main.go is enough to expose them
// on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Run results used as the `result` label of GatherRunsTotal.
const (
	ResultOK         = "ok"
	ResultFailed     = "failed"
	ResultInProgress = "in_progress"
)

var (
	GatherRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gather_runs_total",
			Help: "Siteinfo gather runs by result.",
		}, []string{"result"})

	GatherRowsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gather_rows_total",
			Help: "Remote siteinfo rows written to the central store.",
		})

	GatherDegradedFieldsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gather_degraded_fields_total",
			Help: "Optional siteinfo fields that fell back to a default.",
		})

	GatherSchoolsCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gather_schools_created_total",
			Help: "Schools created by identity resolution.",
		})

	GatherSitesCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gather_sites_created_total",
			Help: "Sites created by identity resolution.",
		})

	GatherLastSuccess = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "gather_last_success_timestamp_seconds",
			Help: "Unix time of the last gather run that finished without error.",
		})

	CourseInstallRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "course_install_requests_total",
			Help: "Remote course install calls by result.",
		}, []string{"result"})
)

func init() {
	prometheus.MustRegister(
		GatherRunsTotal,
		GatherRowsTotal,
		GatherDegradedFieldsTotal,
		GatherSchoolsCreatedTotal,
		GatherSitesCreatedTotal,
		GatherLastSuccess,
		CourseInstallRequestsTotal,
	)
}
