// Package health provides a health check registry and HTTP endpoints.
//
// Components register named CheckFuncs (kv store reachability, proxy
// configuration state); the Checker aggregates their results. Two handlers
// are exposed: liveness ("is the process up") and readiness ("are the
// registered components healthy").
package health
