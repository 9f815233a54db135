/*
Package metrics provides Prometheus metrics collection and exposition for
coldb, plus simple HTTP health/readiness/liveness handlers.

All metrics are registered at package init against the default Prometheus
registry; pkg/api exposes them at /metrics via Handler(), and /health,
/ready, /live via the handlers in health.go.
*/
package metrics
