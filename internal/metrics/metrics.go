// SPDX-License-Identifier: MPL-2.0

// Package metrics counts repository traffic, resolutions and publications
// with Prometheus collectors on a private registry. The CLI writes them out
// in the text exposition format when a command ends.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilnbuild/kiln/pkg/publish"
	"github.com/kilnbuild/kiln/pkg/resolve"
)

// Collector holds kiln's metrics. It implements transport.Observer.
type Collector struct {
	registry *prometheus.Registry

	operations      *prometheus.CounterVec
	bytes           *prometheus.CounterVec
	operationTime   *prometheus.HistogramVec
	resolutions     *prometheus.CounterVec
	resolvedModules prometheus.Gauge
	unresolved      prometheus.Gauge
	conflicts       prometheus.Gauge
	resolutionTime  prometheus.Histogram
	publications    *prometheus.CounterVec
	uploadedFiles   prometheus.Counter
}

// New returns a Collector registered on its own registry.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kiln_repository_operations_total",
			Help: "Repository operations by URL scheme, operation and outcome.",
		}, []string{"scheme", "op", "outcome"}),
		bytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kiln_repository_bytes_total",
			Help: "Bytes downloaded or uploaded by operation.",
		}, []string{"scheme", "op"}),
		operationTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kiln_repository_operation_duration_seconds",
			Help:    "Time spent per repository operation.",
			Buckets: prometheus.DefBuckets,
		}, []string{"scheme", "op"}),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kiln_resolutions_total",
			Help: "Resolutions by outcome.",
		}, []string{"outcome"}),
		resolvedModules: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "kiln_resolution_modules",
			Help: "Modules resolved by the last resolution.",
		}),
		unresolved: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "kiln_resolution_unresolved",
			Help: "Modules left unresolved by the last resolution.",
		}),
		conflicts: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "kiln_resolution_conflicts",
			Help: "Version conflicts settled by the last resolution.",
		}),
		resolutionTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "kiln_resolution_duration_seconds",
			Help:    "Time taken to resolve a scope.",
			Buckets: prometheus.DefBuckets,
		}),
		publications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kiln_publications_total",
			Help: "Publications by outcome.",
		}, []string{"outcome"}),
		uploadedFiles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kiln_published_files_total",
			Help: "Files uploaded by successful publications, checksums included.",
		}),
	}
	c.registry.MustRegister(
		c.operations,
		c.bytes,
		c.operationTime,
		c.resolutions,
		c.resolvedModules,
		c.unresolved,
		c.conflicts,
		c.resolutionTime,
		c.publications,
		c.uploadedFiles,
	)
	return c
}

// Registry returns the registry the collectors are registered on.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// ObserveOperation implements transport.Observer.
func (c *Collector) ObserveOperation(scheme, op, outcome string, bytes int, elapsed time.Duration) {
	c.operations.WithLabelValues(scheme, op, outcome).Inc()
	if bytes > 0 {
		c.bytes.WithLabelValues(scheme, op).Add(float64(bytes))
	}
	c.operationTime.WithLabelValues(scheme, op).Observe(elapsed.Seconds())
}

// ObserveResolution records a finished resolution. res may be nil when the
// request was rejected.
func (c *Collector) ObserveResolution(res *resolve.Result, err error, elapsed time.Duration) {
	c.resolutionTime.Observe(elapsed.Seconds())
	switch {
	case res == nil:
		c.resolutions.WithLabelValues("error").Inc()
		return
	case !res.IsComplete():
		c.resolutions.WithLabelValues("incomplete").Inc()
	case err != nil:
		c.resolutions.WithLabelValues("error").Inc()
	default:
		c.resolutions.WithLabelValues("complete").Inc()
	}
	c.resolvedModules.Set(float64(len(res.Modules)))
	c.unresolved.Set(float64(len(res.Unresolved)))
	c.conflicts.Set(float64(len(res.Conflicts)))
}

// ObservePublication records a publication attempt.
func (c *Collector) ObservePublication(receipt *publish.Receipt, err error) {
	if err != nil {
		c.publications.WithLabelValues(publicationOutcome(err)).Inc()
		return
	}
	c.publications.WithLabelValues("ok").Inc()
	c.uploadedFiles.Add(float64(len(receipt.Uploaded)))
}

// WriteFile writes every metric to path in the text exposition format.
func (c *Collector) WriteFile(path string) error {
	return prometheus.WriteToTextfile(path, c.registry)
}
