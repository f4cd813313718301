// Package metrics exposes controller state as Prometheus metrics.
package metrics
