// Package cli provides shared helpers for the skyhook command-line
// interface: signal-driven shutdown contexts, output formatting, and
// command error types.
package cli
