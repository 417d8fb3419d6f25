// Package server holds the process-level HTTP pieces that sit beside the
// API: Kubernetes-style health probes with dependency checks and the
// dedicated Prometheus metrics server.
//
// Probes:
//   - /healthz: liveness, always ok while the process runs
//   - /readyz: readiness, fails while shutting down or when a required
//     dependency check fails
//   - /healthz/detailed: uptime plus the result of every dependency check
package server
