// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The IndexCache registry is the only mutable shared state in this
// package; the Router and the evidence sources are stateless per call.
package services
