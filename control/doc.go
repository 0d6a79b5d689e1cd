// Package control
// Author: momentics <momentics@gmail.com>
//
// Configuration, runtime metrics, and debug introspection for the reactor.
//
// Provides:
//   - YAML configuration with defaults, validation and a reload-aware store
//   - Prometheus metrics for one reactor loop
//   - State export and debug probe registration
package control
